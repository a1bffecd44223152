package service

import (
	"context"
	"errors"
	"time"

	"github.com/Dhoini/Entitlement-service/internal/domain"
	"github.com/Dhoini/Entitlement-service/internal/metrics"
	"github.com/Dhoini/Entitlement-service/internal/repository"
	"github.com/Dhoini/Entitlement-service/pkg/logger"

	"github.com/google/uuid"
)

// WebhookService обрабатывает события платежного шлюза.
// Единственный писатель биллинговых полей аккаунта после привязки подписки.
// Для событий живой подписки состояние перечитывается из шлюза, а не
// берется из полезной нагрузки: повторная доставка устаревшего события
// тогда безвредна.
type WebhookService struct {
	verifier      EventVerifier
	gateway       PaymentGateway
	accountRepo   repository.AccountRepository
	giftRepo      repository.GiftRepository
	publisher     EventPublisher
	metrics       metrics.EntitlementMetrics
	annualPriceID string
	giftAnnualMin int64
	log           *logger.Logger
	now           func() time.Time
}

// NewWebhookService конструктор сервиса обработки вебхуков
func NewWebhookService(
	verifier EventVerifier,
	gateway PaymentGateway,
	accountRepo repository.AccountRepository,
	giftRepo repository.GiftRepository,
	publisher EventPublisher,
	m metrics.EntitlementMetrics,
	annualPriceID string,
	giftAnnualMin int64,
	log *logger.Logger,
) *WebhookService {
	if publisher == nil {
		log.Warnw("Event publisher is nil, entitlement events will not be published")
	}
	return &WebhookService{
		verifier:      verifier,
		gateway:       gateway,
		accountRepo:   accountRepo,
		giftRepo:      giftRepo,
		publisher:     publisher,
		metrics:       m,
		annualPriceID: annualPriceID,
		giftAnnualMin: giftAnnualMin,
		log:           log,
		now:           time.Now,
	}
}

// ProcessWebhook проверяет подпись и применяет событие.
// Ошибка подписи терминальна (HTTP 400, шлюз не повторяет доставку).
// Ошибка хранилища или шлюза возвращается наверх как HTTP 500, чтобы
// шлюз доставил событие повторно. Событие, которое не удается отнести
// к известному аккаунту, пропускается с успешным ответом.
func (s *WebhookService) ProcessWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.verifier.VerifyAndParse(payload, signature)
	if err != nil {
		s.log.Warnw("Webhook signature verification failed", "error", err)
		s.metrics.IncWebhookEvent("unknown", metrics.OutcomeRejected)
		return err
	}

	name := eventName(event)

	var outcome string
	switch e := event.(type) {
	case domain.CheckoutCompletedEvent:
		outcome, err = s.applyCheckoutCompleted(ctx, e)
	case domain.GiftCheckoutCompletedEvent:
		outcome, err = s.applyGiftCheckoutCompleted(ctx, e)
	case domain.SubscriptionUpdatedEvent:
		outcome, err = s.applySubscriptionChange(ctx, e.SubscriptionRef)
	case domain.SubscriptionDeletedEvent:
		outcome, err = s.applySubscriptionDeleted(ctx, e)
	case domain.InvoicePaymentFailedEvent:
		outcome, err = s.applyInvoiceEvent(ctx, e.SubscriptionRef, domain.SubscriptionStatusPastDue)
	case domain.InvoicePaidEvent:
		outcome, err = s.applyInvoiceEvent(ctx, e.SubscriptionRef, domain.SubscriptionStatusActive)
	case domain.IgnoredEvent:
		outcome = metrics.OutcomeSkipped
	default:
		outcome = metrics.OutcomeSkipped
	}

	if err != nil {
		s.metrics.IncWebhookEvent(name, metrics.OutcomeFailed)
		return err
	}

	s.metrics.IncWebhookEvent(name, outcome)
	return nil
}

// applyCheckoutCompleted привязывает новую подписку к аккаунту.
// Перечитывает подписку из шлюза, сохраняет внешние рефы и биллинговые поля.
func (s *WebhookService) applyCheckoutCompleted(ctx context.Context, e domain.CheckoutCompletedEvent) (string, error) {
	if e.AccountID == "" || e.SubscriptionRef == "" {
		s.log.Warnw("Checkout completed event without account metadata, skipping", "session", e.SessionRef)
		return metrics.OutcomeSkipped, nil
	}

	accountID, err := uuid.Parse(e.AccountID)
	if err != nil {
		s.log.Warnw("Checkout completed event with malformed account id, skipping", "accountID", e.AccountID)
		return metrics.OutcomeSkipped, nil
	}

	gw, err := s.gateway.GetSubscription(ctx, e.SubscriptionRef)
	if err != nil {
		return "", err
	}

	acc, skip, err := s.writableAccount(ctx, accountID)
	if err != nil || skip {
		return metrics.OutcomeSkipped, err
	}

	if err := s.accountRepo.AttachPaymentRefs(ctx, acc.ID, gw.CustomerRef, gw.Ref); err != nil {
		return "", domain.NewPersistenceError("account", "attach payment refs", err)
	}

	upd := s.billingUpdateFromGateway(gw)
	if err := s.accountRepo.UpdateBilling(ctx, acc.ID, upd); err != nil {
		return "", domain.NewPersistenceError("account", "update billing", err)
	}

	s.log.Infow("Subscription attached to account", "accountID", acc.ID, "subscriptionRef", gw.Ref, "status", upd.Status)
	s.publishSubscriptionChanged(ctx, acc.ID, upd)
	return metrics.OutcomeApplied, nil
}

// applyGiftCheckoutCompleted создает запись подарка в статусе pending.
// Никакие аккаунты не изменяются; грант применяется позже при активации.
func (s *WebhookService) applyGiftCheckoutCompleted(ctx context.Context, e domain.GiftCheckoutCompletedEvent) (string, error) {
	if e.RecipientEmail == "" || e.PurchaserAccountID == "" {
		s.log.Warnw("Gift checkout event without gift metadata, skipping", "session", e.SessionRef)
		return metrics.OutcomeSkipped, nil
	}

	purchaserID, err := uuid.Parse(e.PurchaserAccountID)
	if err != nil {
		s.log.Warnw("Gift checkout event with malformed purchaser id, skipping", "purchaserAccountID", e.PurchaserAccountID)
		return metrics.OutcomeSkipped, nil
	}

	// На разовой подарочной сессии нет идентификатора цены,
	// поэтому тариф выводится из оплаченной суммы
	tier := domain.SubscriptionTierMonthly
	if s.giftAnnualMin > 0 && e.AmountTotal >= s.giftAnnualMin {
		tier = domain.SubscriptionTierAnnual
	}

	gift := &domain.GiftSubscription{
		ID:                 uuid.New(),
		PurchaserAccountID: purchaserID,
		RecipientEmail:     e.RecipientEmail,
		Tier:               tier,
		Status:             domain.GiftStatusPending,
		CheckoutSessionRef: e.SessionRef,
		CreatedAt:          s.now(),
		UpdatedAt:          s.now(),
	}

	if err := s.giftRepo.Create(ctx, gift); err != nil {
		return "", domain.NewPersistenceError("gift", "create", err)
	}

	s.log.Infow("Gift subscription recorded", "giftID", gift.ID, "tier", gift.Tier, "recipient", gift.RecipientEmail)
	return metrics.OutcomeApplied, nil
}

// applySubscriptionChange перечитывает подписку из шлюза и синхронизирует
// биллинговые поля аккаунта с ее актуальным состоянием
func (s *WebhookService) applySubscriptionChange(ctx context.Context, subscriptionRef string) (string, error) {
	if subscriptionRef == "" {
		return metrics.OutcomeSkipped, nil
	}

	gw, err := s.gateway.GetSubscription(ctx, subscriptionRef)
	if err != nil {
		return "", err
	}

	if gw.AccountID == "" {
		s.log.Warnw("Subscription without account metadata, skipping", "subscriptionRef", subscriptionRef)
		return metrics.OutcomeSkipped, nil
	}

	accountID, err := uuid.Parse(gw.AccountID)
	if err != nil {
		s.log.Warnw("Subscription with malformed account id, skipping", "accountID", gw.AccountID)
		return metrics.OutcomeSkipped, nil
	}

	acc, skip, err := s.writableAccount(ctx, accountID)
	if err != nil || skip {
		return metrics.OutcomeSkipped, err
	}

	upd := s.billingUpdateFromGateway(gw)
	if err := s.accountRepo.UpdateBilling(ctx, acc.ID, upd); err != nil {
		return "", domain.NewPersistenceError("account", "update billing", err)
	}

	s.log.Infow("Subscription state synced", "accountID", acc.ID, "status", upd.Status)
	s.publishSubscriptionChanged(ctx, acc.ID, upd)
	return metrics.OutcomeApplied, nil
}

// applySubscriptionDeleted переводит аккаунт в canceled.
// Удаленную подписку перечитать из шлюза уже нельзя, поэтому аккаунт
// определяется по метаданным самого события. Тариф сохраняется.
func (s *WebhookService) applySubscriptionDeleted(ctx context.Context, e domain.SubscriptionDeletedEvent) (string, error) {
	if e.AccountID == "" {
		s.log.Warnw("Subscription deleted event without account metadata, skipping", "subscriptionRef", e.SubscriptionRef)
		return metrics.OutcomeSkipped, nil
	}

	accountID, err := uuid.Parse(e.AccountID)
	if err != nil {
		s.log.Warnw("Subscription deleted event with malformed account id, skipping", "accountID", e.AccountID)
		return metrics.OutcomeSkipped, nil
	}

	acc, skip, err := s.writableAccount(ctx, accountID)
	if err != nil || skip {
		return metrics.OutcomeSkipped, err
	}

	upd := domain.BillingUpdate{Status: domain.SubscriptionStatusExpired}
	if err := s.accountRepo.UpdateBilling(ctx, acc.ID, upd); err != nil {
		return "", domain.NewPersistenceError("account", "update billing", err)
	}

	s.log.Infow("Subscription deleted, account expired", "accountID", acc.ID)
	s.publishSubscriptionChanged(ctx, acc.ID, domain.BillingUpdate{Status: domain.SubscriptionStatusExpired, Tier: &acc.SubscriptionTier})
	return metrics.OutcomeApplied, nil
}

// applyInvoiceEvent обрабатывает исход оплаты инвойса подписки.
// Неудачная оплата дает past_due с сохранением тарифа, успешная
// восстанавливает active и продлевает период из актуального состояния шлюза.
func (s *WebhookService) applyInvoiceEvent(ctx context.Context, subscriptionRef string, status domain.SubscriptionStatus) (string, error) {
	if subscriptionRef == "" {
		// Инвойс без подписки (например, разовый платеж за подарок)
		return metrics.OutcomeSkipped, nil
	}

	gw, err := s.gateway.GetSubscription(ctx, subscriptionRef)
	if err != nil {
		return "", err
	}

	if gw.AccountID == "" {
		s.log.Warnw("Invoice subscription without account metadata, skipping", "subscriptionRef", subscriptionRef)
		return metrics.OutcomeSkipped, nil
	}

	accountID, err := uuid.Parse(gw.AccountID)
	if err != nil {
		s.log.Warnw("Invoice subscription with malformed account id, skipping", "accountID", gw.AccountID)
		return metrics.OutcomeSkipped, nil
	}

	acc, skip, err := s.writableAccount(ctx, accountID)
	if err != nil || skip {
		return metrics.OutcomeSkipped, err
	}

	upd := domain.BillingUpdate{Status: status}
	if status == domain.SubscriptionStatusActive {
		upd = s.billingUpdateFromGateway(gw)
		upd.Status = domain.SubscriptionStatusActive
	}

	if err := s.accountRepo.UpdateBilling(ctx, acc.ID, upd); err != nil {
		return "", domain.NewPersistenceError("account", "update billing", err)
	}

	s.log.Infow("Invoice outcome applied", "accountID", acc.ID, "status", status)
	s.publishSubscriptionChanged(ctx, acc.ID, upd)
	return metrics.OutcomeApplied, nil
}

// writableAccount возвращает аккаунт, биллинговые поля которого событию
// разрешено изменять. Неизвестный аккаунт и управляемый детский аккаунт
// пропускаются без ошибки.
func (s *WebhookService) writableAccount(ctx context.Context, id uuid.UUID) (*domain.Account, bool, error) {
	acc, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Warnw("Webhook event for unknown account, skipping", "accountID", id)
			return nil, true, nil
		}
		return nil, false, domain.NewPersistenceError("account", "get", err)
	}

	if acc.IsManagedChild {
		s.log.Warnw("Webhook event targets managed child account, skipping", "accountID", id)
		return nil, true, nil
	}

	return acc, false, nil
}

// billingUpdateFromGateway строит обновление биллинга из снимка подписки шлюза
func (s *WebhookService) billingUpdateFromGateway(gw domain.GatewaySubscription) domain.BillingUpdate {
	tier := tierFromPriceID(gw.PriceID, s.annualPriceID)
	upd := domain.BillingUpdate{
		Status: mapGatewayStatus(gw.Status),
		Tier:   &tier,
	}
	if gw.CurrentPeriodEnd > 0 {
		end := time.Unix(gw.CurrentPeriodEnd, 0).UTC()
		upd.CurrentPeriodEnd = &end
	}
	return upd
}

// publishSubscriptionChanged публикует событие изменения подписки (best-effort)
func (s *WebhookService) publishSubscriptionChanged(ctx context.Context, accountID uuid.UUID, upd domain.BillingUpdate) {
	if s.publisher == nil {
		return
	}
	var tier domain.SubscriptionTier
	if upd.Tier != nil {
		tier = *upd.Tier
	}
	if err := s.publisher.PublishSubscriptionChanged(ctx, accountID.String(), upd.Status, tier); err != nil {
		s.log.Errorw("Failed to publish subscription changed event", "accountID", accountID, "error", err)
	}
}

// eventName возвращает имя типа события для метрик и логов
func eventName(event domain.BillingEvent) string {
	switch e := event.(type) {
	case domain.CheckoutCompletedEvent:
		return "checkout.session.completed"
	case domain.GiftCheckoutCompletedEvent:
		return "checkout.session.completed.gift"
	case domain.SubscriptionUpdatedEvent:
		return "customer.subscription.updated"
	case domain.SubscriptionDeletedEvent:
		return "customer.subscription.deleted"
	case domain.InvoicePaymentFailedEvent:
		return "invoice.payment_failed"
	case domain.InvoicePaidEvent:
		return "invoice.paid"
	case domain.IgnoredEvent:
		return e.Type
	default:
		return "unknown"
	}
}
