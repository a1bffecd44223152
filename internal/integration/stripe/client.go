package stripe

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dhoini/Entitlement-service/internal/domain"
	"github.com/Dhoini/Entitlement-service/pkg/logger"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
)

// Ключи метаданных для связи объектов Stripe с локальными аккаунтами
const (
	metadataAccountIDKey      = "account_id"
	metadataGiftKey           = "gift"
	metadataRecipientEmailKey = "recipient_email"
	metadataPurchaserKey      = "purchaser_account_id"
)

// Config конфигурация клиента Stripe
type Config struct {
	APIKey            string
	WebhookSecret     string
	MonthlyPriceID    string
	AnnualPriceID     string
	GiftMonthlyAmount int64 // в центах
	GiftAnnualAmount  int64 // в центах
	Currency          string
	SuccessURL        string
	CancelURL         string
	PortalReturnURL   string
}

// Client реализует взаимодействие с платежным шлюзом через Stripe API
type Client struct {
	api *client.API
	cfg Config
	log *logger.Logger
}

// NewClient создает новый экземпляр клиента Stripe
func NewClient(cfg Config, log *logger.Logger) *Client {
	api := &client.API{}
	api.Init(cfg.APIKey, nil)
	return &Client{
		api: api,
		cfg: cfg,
		log: log,
	}
}

// GetSubscription перечитывает актуальное состояние подписки из шлюза.
// Обработчик вебхуков использует этот метод вместо встроенных в событие
// значений: повторная доставка устаревшего события самокорректируется.
func (c *Client) GetSubscription(ctx context.Context, ref string) (domain.GatewaySubscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := c.api.Subscriptions.Get(ref, params)
	if err != nil {
		logStripeError(c.log, "GetSubscription", err)
		return domain.GatewaySubscription{}, domain.NewUpstreamError("stripe", "get subscription", err)
	}

	gw := domain.GatewaySubscription{
		Ref:              sub.ID,
		Status:           string(sub.Status),
		AccountID:        sub.Metadata[metadataAccountIDKey],
		CurrentPeriodEnd: sub.CurrentPeriodEnd,
	}
	if sub.Customer != nil {
		gw.CustomerRef = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		gw.PriceID = sub.Items.Data[0].Price.ID
	}

	return gw, nil
}

// CreateCheckoutSession создает checkout-сессию обычной подписки.
// Биллинговый клиент ищется по email и создается при отсутствии;
// account_id кладется в метаданные сессии и будущей подписки.
func (c *Client) CreateCheckoutSession(ctx context.Context, accountID, email, priceID string) (string, error) {
	customerRef, err := c.getOrCreateCustomer(ctx, accountID, email)
	if err != nil {
		return "", err
	}

	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer: stripe.String(customerRef),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{
				metadataAccountIDKey: accountID,
			},
		},
		SuccessURL: stripe.String(c.cfg.SuccessURL),
		CancelURL:  stripe.String(c.cfg.CancelURL),
	}
	params.Context = ctx
	params.AddMetadata(metadataAccountIDKey, accountID)

	sess, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		logStripeError(c.log, "CreateCheckoutSession", err)
		return "", domain.NewUpstreamError("stripe", "create checkout session", err)
	}

	c.log.Infow("Stripe checkout session created", "sessionID", sess.ID, "accountID", accountID)
	return sess.URL, nil
}

// CreateGiftCheckoutSession создает разовую checkout-сессию подарка.
// Сессия помечается метаданными как подарочная; price id не используется,
// тариф при обработке вебхука выводится из оплаченной суммы.
func (c *Client) CreateGiftCheckoutSession(ctx context.Context, purchaserAccountID, recipientEmail string, tier domain.SubscriptionTier) (string, error) {
	amount := c.cfg.GiftMonthlyAmount
	productName := "Gift subscription (monthly)"
	if tier == domain.SubscriptionTierAnnual {
		amount = c.cfg.GiftAnnualAmount
		productName = "Gift subscription (annual)"
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(c.cfg.Currency),
					UnitAmount: stripe.Int64(amount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(productName),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(c.cfg.SuccessURL),
		CancelURL:  stripe.String(c.cfg.CancelURL),
	}
	params.Context = ctx
	params.AddMetadata(metadataGiftKey, "true")
	params.AddMetadata(metadataRecipientEmailKey, recipientEmail)
	params.AddMetadata(metadataPurchaserKey, purchaserAccountID)

	sess, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		logStripeError(c.log, "CreateGiftCheckoutSession", err)
		return "", domain.NewUpstreamError("stripe", "create gift checkout session", err)
	}

	c.log.Infow("Stripe gift checkout session created", "sessionID", sess.ID, "purchaser", purchaserAccountID)
	return sess.URL, nil
}

// CreatePortalSession создает сессию портала самообслуживания биллинга
func (c *Client) CreatePortalSession(ctx context.Context, customerRef string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerRef),
		ReturnURL: stripe.String(c.cfg.PortalReturnURL),
	}
	params.Context = ctx

	sess, err := c.api.BillingPortalSessions.New(params)
	if err != nil {
		logStripeError(c.log, "CreatePortalSession", err)
		return "", domain.NewUpstreamError("stripe", "create portal session", err)
	}

	c.log.Infow("Stripe portal session created", "customerRef", customerRef)
	return sess.URL, nil
}

// getOrCreateCustomer ищет биллингового клиента по email, при отсутствии создает нового
func (c *Client) getOrCreateCustomer(ctx context.Context, accountID, email string) (string, error) {
	listParams := &stripe.CustomerListParams{
		Email: stripe.String(email),
	}
	listParams.Context = ctx
	listParams.Limit = stripe.Int64(1)

	iter := c.api.Customers.List(listParams)
	if iter.Next() {
		cus := iter.Customer()
		c.log.Debugw("Found existing Stripe customer", "customerRef", cus.ID, "email", email)
		return cus.ID, nil
	}
	if err := iter.Err(); err != nil {
		logStripeError(c.log, "ListCustomers", err)
		return "", domain.NewUpstreamError("stripe", "list customers", err)
	}

	createParams := &stripe.CustomerParams{
		Email: stripe.String(email),
		Metadata: map[string]string{
			metadataAccountIDKey: accountID,
		},
	}
	createParams.Context = ctx

	cus, err := c.api.Customers.New(createParams)
	if err != nil {
		logStripeError(c.log, "CreateCustomer", err)
		return "", domain.NewUpstreamError("stripe", "create customer", err)
	}

	c.log.Infow("Stripe customer created", "customerRef", cus.ID, "accountID", accountID)
	return cus.ID, nil
}

// logStripeError - вспомогательная функция для логирования деталей ошибки Stripe
func logStripeError(log *logger.Logger, operation string, err error) {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		log.Errorw("Stripe API error",
			"operation", operation,
			"type", string(stripeErr.Type),
			"code", string(stripeErr.Code),
			"message", stripeErr.Msg,
			"request_id", stripeErr.RequestID,
			"status_code", stripeErr.HTTPStatusCode,
		)
	} else {
		log.Errorw("Non-Stripe error during Stripe operation",
			"operation", operation,
			"error", fmt.Sprintf("%v", err),
		)
	}
}
