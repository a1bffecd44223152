package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dhoini/Entitlement-service/config"
	"github.com/Dhoini/Entitlement-service/internal/api/rest"
	"github.com/Dhoini/Entitlement-service/internal/integration/identity"
	"github.com/Dhoini/Entitlement-service/internal/integration/stripe"
	"github.com/Dhoini/Entitlement-service/internal/kafka"
	"github.com/Dhoini/Entitlement-service/internal/kafka/producer"
	"github.com/Dhoini/Entitlement-service/internal/metrics"
	"github.com/Dhoini/Entitlement-service/internal/repository"
	"github.com/Dhoini/Entitlement-service/internal/repository/postgres"
	"github.com/Dhoini/Entitlement-service/internal/service"
	"github.com/Dhoini/Entitlement-service/pkg/logger"

	"github.com/IBM/sarama"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Загрузка конфигурации (.env подхватывается внутри Load)
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New("info")
		fallback.Fatalw("Failed to load configuration", "error", err)
	}

	log := logger.New(cfg.Logging.Level)
	defer log.Sync()

	log.Infow("Entitlement service starting up...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Инициализация Prometheus
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	entMetrics := metrics.NewEntitlementMetrics(promRegistry, log)

	// Подключение к базе данных: pgxpool для аккаунтов, sqlx для подарков
	dbPool, err := postgres.NewConnection(ctx, cfg.Database.GetDSN(), log)
	if err != nil {
		log.Fatalw("Failed to connect to database", "error", err)
	}
	defer dbPool.Close()

	sqlxDB, err := postgres.NewSQLXConnection(cfg.Database.GetDSN(), log)
	if err != nil {
		log.Fatalw("Failed to open sqlx connection", "error", err)
	}
	defer sqlxDB.Close()

	// Репозитории
	baseAccountRepo := postgres.NewPostgresAccountRepository(dbPool, log)
	giftRepo := postgres.NewPostgresGiftRepository(sqlxDB, log)

	var accountRepo repository.AccountRepository = baseAccountRepo
	if cfg.Redis.Enabled {
		redisCache, err := repository.NewRedisCacheRepository(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
		if err != nil {
			log.Warnw("Failed to initialize Redis cache, continuing without caching", "error", err)
		} else {
			defer func() {
				if err := redisCache.Close(); err != nil {
					log.Errorw("Error closing Redis connection", "error", err)
				}
			}()
			accountRepo = repository.NewCachedAccountRepository(baseAccountRepo, redisCache, log)
			log.Infow("Using cached account repository")
		}
	}

	// Интеграции
	stripeClient := stripe.NewClient(stripe.Config{
		APIKey:            cfg.Stripe.APIKey,
		WebhookSecret:     cfg.Stripe.WebhookSecret,
		MonthlyPriceID:    cfg.Stripe.MonthlyPriceID,
		AnnualPriceID:     cfg.Stripe.AnnualPriceID,
		GiftMonthlyAmount: cfg.Stripe.GiftMonthlyAmount,
		GiftAnnualAmount:  cfg.Stripe.GiftAnnualAmount,
		Currency:          cfg.Stripe.Currency,
		SuccessURL:        cfg.Stripe.SuccessURL,
		CancelURL:         cfg.Stripe.CancelURL,
		PortalReturnURL:   cfg.Stripe.PortalReturnURL,
	}, log)
	webhookVerifier := stripe.NewWebhookVerifier(cfg.Stripe.WebhookSecret, log)
	identityClient := identity.NewClient(identity.Config{
		BaseURL:    cfg.Identity.BaseURL,
		ServiceKey: cfg.Identity.ServiceKey,
	}, log)

	// Kafka продюсер: публикация best-effort, без него сервис тоже работает
	var publisher service.EventPublisher
	if cfg.Kafka.Enabled {
		if err := kafka.EnsureKafkaTopics(cfg.Kafka.Brokers, log); err != nil {
			log.Errorw("Failed to ensure Kafka topics, continuing without event publishing", "error", err)
		} else {
			kafkaConfig := kafka.NewConfig(cfg.Kafka.Brokers)
			saramaConfig := kafka.NewSaramaConfig(kafkaConfig, log)

			syncProducer, err := sarama.NewSyncProducer(kafkaConfig.Brokers, saramaConfig)
			if err != nil {
				log.Errorw("Failed to create Kafka producer, continuing without event publishing", "error", err)
			} else {
				entProducer := producer.NewKafkaEntitlementProducer(syncProducer, log)
				defer func() {
					if err := entProducer.Close(); err != nil {
						log.Errorw("Error closing Kafka producer", "error", err)
					}
				}()
				publisher = entProducer
				log.Infow("Kafka producer initialized")
			}
		}
	}

	// Сервисы
	webhookService := service.NewWebhookService(
		webhookVerifier,
		stripeClient,
		accountRepo,
		giftRepo,
		publisher,
		entMetrics,
		cfg.Stripe.AnnualPriceID,
		cfg.Stripe.GiftAnnualAmount,
		log,
	)
	billingService := service.NewBillingService(stripeClient, accountRepo, cfg.Stripe.MonthlyPriceID, cfg.Stripe.AnnualPriceID, log)
	giftService := service.NewGiftService(giftRepo, accountRepo, publisher, entMetrics, log)
	entitlementService := service.NewEntitlementService(accountRepo, entMetrics, cfg.Entitlement.TrialDays, log)
	childService := service.NewChildService(
		accountRepo,
		identityClient,
		publisher,
		entMetrics,
		cfg.Entitlement.MaxManagedChildren,
		cfg.Entitlement.ChildEmailDomain,
		log,
	)

	// Установка режима Gin
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Настройка маршрутизатора и HTTP сервера
	router := rest.SetupRouter(rest.Services{
		Webhook:     webhookService,
		Billing:     billingService,
		Gift:        giftService,
		Entitlement: entitlementService,
		Child:       childService,
	}, cfg, promRegistry, log)

	server := rest.NewServer(router, cfg, log)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalw("Server error", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownTimeout := time.Duration(cfg.Server.ShutdownTimeout) * time.Second
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalw("Server forced to shutdown", "error", err)
	}

	log.Infow("Server stopped gracefully")
}
