package metrics

import (
	"github.com/Dhoini/Entitlement-service/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Исходы обработки вебхук-событий
const (
	OutcomeApplied  = "applied"
	OutcomeSkipped  = "skipped"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// EntitlementMetrics интерфейс для метрик entitlement
type EntitlementMetrics interface {
	IncWebhookEvent(eventType, outcome string)
	IncGiftRedemption(outcome string)
	IncEntitlementCheck(hasAccess bool)
	IncChildProvisioned()
}

type entitlementMetrics struct {
	log             *logger.Logger
	webhookEvents   *prometheus.CounterVec
	giftRedemptions *prometheus.CounterVec
	checks          *prometheus.CounterVec
	childrenCreated prometheus.Counter
}

// NewEntitlementMetrics создает новые метрики entitlement
func NewEntitlementMetrics(registry *prometheus.Registry, log *logger.Logger) EntitlementMetrics {
	webhookEvents := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "The total number of processed webhook events by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	giftRedemptions := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gift_redemptions_total",
			Help: "The total number of gift redemption attempts by outcome",
		},
		[]string{"outcome"},
	)

	checks := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "entitlement_checks_total",
			Help: "The total number of entitlement checks by access decision",
		},
		[]string{"access"},
	)

	childrenCreated := promauto.With(registry).NewCounter(
		prometheus.CounterOpts{
			Name: "managed_children_created_total",
			Help: "The total number of provisioned managed child accounts",
		},
	)

	return &entitlementMetrics{
		log:             log,
		webhookEvents:   webhookEvents,
		giftRedemptions: giftRedemptions,
		checks:          checks,
		childrenCreated: childrenCreated,
	}
}

// IncWebhookEvent увеличивает счетчик обработанных вебхук-событий
func (m *entitlementMetrics) IncWebhookEvent(eventType, outcome string) {
	m.webhookEvents.WithLabelValues(eventType, outcome).Inc()
}

// IncGiftRedemption увеличивает счетчик активаций подарков
func (m *entitlementMetrics) IncGiftRedemption(outcome string) {
	m.giftRedemptions.WithLabelValues(outcome).Inc()
}

// IncEntitlementCheck увеличивает счетчик проверок доступа
func (m *entitlementMetrics) IncEntitlementCheck(hasAccess bool) {
	access := "denied"
	if hasAccess {
		access = "granted"
	}
	m.checks.WithLabelValues(access).Inc()
}

// IncChildProvisioned увеличивает счетчик созданных детских аккаунтов
func (m *entitlementMetrics) IncChildProvisioned() {
	m.childrenCreated.Inc()
}
