package stripe

import (
	"encoding/json"
	"fmt"

	"github.com/Dhoini/Entitlement-service/internal/domain"
	"github.com/Dhoini/Entitlement-service/pkg/logger"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"
)

// Типы событий Stripe, отслеживаемые обработчиком
const (
	eventCheckoutCompleted    = "checkout.session.completed"
	eventSubscriptionUpdated  = "customer.subscription.updated"
	eventSubscriptionDeleted  = "customer.subscription.deleted"
	eventInvoicePaymentFailed = "invoice.payment_failed"
	eventInvoicePaid          = "invoice.paid"
)

// WebhookVerifier проверяет подпись вебхука и разбирает полезную нагрузку
// в закрытое множество типизированных событий domain.BillingEvent.
type WebhookVerifier struct {
	secret string
	log    *logger.Logger
}

// NewWebhookVerifier создает новый верификатор вебхуков
func NewWebhookVerifier(secret string, log *logger.Logger) *WebhookVerifier {
	return &WebhookVerifier{
		secret: secret,
		log:    log,
	}
}

// VerifyAndParse проверяет подпись по общему секрету и возвращает
// типизированное событие. Ошибка подписи терминальна: шлюз получает
// клиентскую ошибку и событие не переобрабатывается.
func (v *WebhookVerifier) VerifyAndParse(payload []byte, sigHeader string) (domain.BillingEvent, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, v.secret)
	if err != nil {
		v.log.Warnw("Webhook signature verification failed", "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrWebhookValidationFailed, err)
	}

	switch string(event.Type) {
	case eventCheckoutCompleted:
		return v.parseCheckoutCompleted(event)
	case eventSubscriptionUpdated:
		sub, err := parseSubscription(event)
		if err != nil {
			return nil, err
		}
		return domain.SubscriptionUpdatedEvent{
			SubscriptionRef: sub.ID,
			AccountID:       sub.Metadata[metadataAccountIDKey],
		}, nil
	case eventSubscriptionDeleted:
		sub, err := parseSubscription(event)
		if err != nil {
			return nil, err
		}
		return domain.SubscriptionDeletedEvent{
			SubscriptionRef: sub.ID,
			AccountID:       sub.Metadata[metadataAccountIDKey],
		}, nil
	case eventInvoicePaymentFailed:
		ref, err := parseInvoiceSubscriptionRef(event)
		if err != nil {
			return nil, err
		}
		return domain.InvoicePaymentFailedEvent{SubscriptionRef: ref}, nil
	case eventInvoicePaid:
		ref, err := parseInvoiceSubscriptionRef(event)
		if err != nil {
			return nil, err
		}
		return domain.InvoicePaidEvent{SubscriptionRef: ref}, nil
	default:
		v.log.Debugw("Ignoring untracked webhook event type", "type", event.Type)
		return domain.IgnoredEvent{Type: string(event.Type)}, nil
	}
}

// parseCheckoutCompleted разбирает завершение checkout-сессии.
// Сессия с метаданными gift=true порождает подарочное событие,
// любая другая - обычную покупку подписки.
func (v *WebhookVerifier) parseCheckoutCompleted(event stripe.Event) (domain.BillingEvent, error) {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("%w: malformed checkout session payload: %v", domain.ErrWebhookValidationFailed, err)
	}

	if sess.Metadata[metadataGiftKey] == "true" {
		return domain.GiftCheckoutCompletedEvent{
			SessionRef:         sess.ID,
			PurchaserAccountID: sess.Metadata[metadataPurchaserKey],
			RecipientEmail:     sess.Metadata[metadataRecipientEmailKey],
			AmountTotal:        sess.AmountTotal,
		}, nil
	}

	evt := domain.CheckoutCompletedEvent{
		SessionRef: sess.ID,
		AccountID:  sess.Metadata[metadataAccountIDKey],
	}
	if sess.Subscription != nil {
		evt.SubscriptionRef = sess.Subscription.ID
	}
	return evt, nil
}

// parseSubscription разбирает объект подписки из полезной нагрузки события
func parseSubscription(event stripe.Event) (*stripe.Subscription, error) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return nil, fmt.Errorf("%w: malformed subscription payload: %v", domain.ErrWebhookValidationFailed, err)
	}
	return &sub, nil
}

// parseInvoiceSubscriptionRef извлекает реф подписки из инвойса.
// Пустой реф (разовый инвойс) не ошибка: обработчик пропустит событие.
func parseInvoiceSubscriptionRef(event stripe.Event) (string, error) {
	var inv stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		return "", fmt.Errorf("%w: malformed invoice payload: %v", domain.ErrWebhookValidationFailed, err)
	}
	if inv.Subscription == nil {
		return "", nil
	}
	return inv.Subscription.ID, nil
}
