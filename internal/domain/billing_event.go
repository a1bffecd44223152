package domain

// BillingEvent закрытое множество событий платежного шлюза.
// Каждое событие несет только те поля, которые извлекаются из полезной
// нагрузки вебхука; актуальное состояние подписки обработчик перечитывает
// из шлюза перед записью, а не доверяет встроенным значениям.
type BillingEvent interface {
	billingEvent()
}

// CheckoutCompletedEvent завершение checkout-сессии (обычная покупка подписки).
// AccountID берется из метаданных сессии, SubscriptionRef - из самой сессии.
type CheckoutCompletedEvent struct {
	SessionRef      string
	AccountID       string
	SubscriptionRef string
}

// GiftCheckoutCompletedEvent завершение checkout-сессии, помеченной как подарок.
// Аккаунты не изменяются; создается запись GiftSubscription со статусом pending.
// Тариф выводится из оплаченной суммы (на подарочной сессии нет price id).
type GiftCheckoutCompletedEvent struct {
	SessionRef         string
	PurchaserAccountID string
	RecipientEmail     string
	AmountTotal        int64
}

// SubscriptionUpdatedEvent изменение подписки в шлюзе
type SubscriptionUpdatedEvent struct {
	SubscriptionRef string
	AccountID       string
}

// SubscriptionDeletedEvent удаление подписки в шлюзе.
// Подписку перечитать уже нельзя, поэтому AccountID берется из метаданных события.
type SubscriptionDeletedEvent struct {
	SubscriptionRef string
	AccountID       string
}

// InvoicePaymentFailedEvent неудачная оплата инвойса
type InvoicePaymentFailedEvent struct {
	SubscriptionRef string
}

// InvoicePaidEvent успешная оплата инвойса
type InvoicePaidEvent struct {
	SubscriptionRef string
}

// IgnoredEvent событие, тип которого обработчик не отслеживает.
// Не является ошибкой: шлюзу возвращается успешный ответ.
type IgnoredEvent struct {
	Type string
}

func (CheckoutCompletedEvent) billingEvent()     {}
func (GiftCheckoutCompletedEvent) billingEvent() {}
func (SubscriptionUpdatedEvent) billingEvent()   {}
func (SubscriptionDeletedEvent) billingEvent()   {}
func (InvoicePaymentFailedEvent) billingEvent()  {}
func (InvoicePaidEvent) billingEvent()           {}
func (IgnoredEvent) billingEvent()               {}

// GatewaySubscription снимок подписки, перечитанный из платежного шлюза
type GatewaySubscription struct {
	Ref              string
	CustomerRef      string
	Status           string
	PriceID          string
	AccountID        string
	CurrentPeriodEnd int64
}
