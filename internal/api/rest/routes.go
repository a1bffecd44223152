package rest

import (
	"github.com/Dhoini/Entitlement-service/config"
	"github.com/Dhoini/Entitlement-service/internal/api/rest/handlers"
	"github.com/Dhoini/Entitlement-service/internal/api/rest/middleware"
	"github.com/Dhoini/Entitlement-service/internal/service"
	"github.com/Dhoini/Entitlement-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services сервисы, обслуживаемые HTTP-поверхностью
type Services struct {
	Webhook     *service.WebhookService
	Billing     *service.BillingService
	Gift        *service.GiftService
	Entitlement *service.EntitlementService
	Child       *service.ChildService
}

// SetupRouter настраивает маршрутизатор Gin с маршрутами и middleware
func SetupRouter(svcs Services, cfg *config.Config, registry *prometheus.Registry, log *logger.Logger) *gin.Engine {
	r := gin.New()

	r.Use(middleware.LoggerMiddleware(log))
	r.Use(gin.Recovery())

	// Endpoint для проверки работоспособности сервиса
	r.GET("/health", handlers.HealthCheck)

	// Prometheus метрики
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	webhookHandler := handlers.NewWebhookHandler(svcs.Webhook, log)
	billingHandler := handlers.NewBillingHandler(svcs.Billing, log)
	giftHandler := handlers.NewGiftHandler(svcs.Gift, log)
	entitlementHandler := handlers.NewEntitlementHandler(svcs.Entitlement, log)
	childHandler := handlers.NewChildHandler(svcs.Child, log)

	// Вебхуки на корневом уровне роутера, без аутентификации:
	// подлинность запроса доказывает подпись
	webhooks := r.Group("/webhooks")
	{
		webhooks.POST("/stripe", webhookHandler.HandleStripeWebhook)
	}

	v1 := r.Group("/api/v1")
	{
		// Активация подарка идентифицирует аккаунт телом запроса
		gifts := v1.Group("/gifts")
		{
			gifts.POST("/redeem", giftHandler.RedeemGift)
		}

		authed := v1.Group("")
		authed.Use(middleware.AuthMiddleware(cfg.Auth.JWTSecret, log))
		{
			authed.GET("/entitlement", entitlementHandler.GetEntitlement)

			billing := authed.Group("/billing")
			{
				billing.POST("/checkout", billingHandler.CreateCheckout)
				billing.POST("/portal", billingHandler.CreatePortal)
			}

			children := authed.Group("/children")
			{
				children.POST("", childHandler.CreateChild)
			}
		}
	}

	return r
}
