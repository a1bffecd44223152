package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config структура конфигурации приложения
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	Stripe      StripeConfig
	Entitlement EntitlementConfig
	Identity    IdentityConfig
	Auth        AuthConfig
	Logging     LoggingConfig
}

// ServerConfig конфигурация HTTP сервера
type ServerConfig struct {
	Port            string
	ReadTimeout     int
	WriteTimeout    int
	ShutdownTimeout int
}

// DatabaseConfig конфигурация базы данных
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig конфигурация Redis
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Enabled  bool
}

// KafkaConfig конфигурация Kafka
type KafkaConfig struct {
	Brokers []string
	Enabled bool
}

// StripeConfig конфигурация Stripe
type StripeConfig struct {
	APIKey            string
	WebhookSecret     string
	MonthlyPriceID    string
	AnnualPriceID     string
	GiftMonthlyAmount int64
	GiftAnnualAmount  int64
	Currency          string
	SuccessURL        string
	CancelURL         string
	PortalReturnURL   string
}

// EntitlementConfig параметры доменной логики
type EntitlementConfig struct {
	TrialDays          int
	MaxManagedChildren int
	ChildEmailDomain   string
}

// IdentityConfig конфигурация внешнего identity-провайдера
type IdentityConfig struct {
	BaseURL    string
	ServiceKey string
}

// AuthConfig конфигурация проверки JWT
type AuthConfig struct {
	JWTSecret string
}

// LoggingConfig конфигурация логгера
type LoggingConfig struct {
	Level string
}

// GetDSN возвращает строку подключения к базе данных
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Load загружает конфигурацию: значения по умолчанию, затем .env (если есть),
// затем переменные окружения. Переменные окружения имеют приоритет.
func Load() (*Config, error) {
	// .env опционален: в контейнере конфигурация приходит из окружения
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetString("server.port"),
			ReadTimeout:     v.GetInt("server.read_timeout"),
			WriteTimeout:    v.GetInt("server.write_timeout"),
			ShutdownTimeout: v.GetInt("server.shutdown_timeout"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("db.host"),
			Port:     v.GetInt("db.port"),
			User:     v.GetString("db.user"),
			Password: v.GetString("db.password"),
			Database: v.GetString("db.name"),
			SSLMode:  v.GetString("db.sslmode"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			Enabled:  v.GetBool("redis.enabled"),
		},
		Kafka: KafkaConfig{
			Brokers: strings.Split(v.GetString("kafka.brokers"), ","),
			Enabled: v.GetBool("kafka.enabled"),
		},
		Stripe: StripeConfig{
			APIKey:            v.GetString("stripe.api_key"),
			WebhookSecret:     v.GetString("stripe.webhook_secret"),
			MonthlyPriceID:    v.GetString("stripe.monthly_price_id"),
			AnnualPriceID:     v.GetString("stripe.annual_price_id"),
			GiftMonthlyAmount: v.GetInt64("stripe.gift_monthly_amount"),
			GiftAnnualAmount:  v.GetInt64("stripe.gift_annual_amount"),
			Currency:          v.GetString("stripe.currency"),
			SuccessURL:        v.GetString("stripe.success_url"),
			CancelURL:         v.GetString("stripe.cancel_url"),
			PortalReturnURL:   v.GetString("stripe.portal_return_url"),
		},
		Entitlement: EntitlementConfig{
			TrialDays:          v.GetInt("entitlement.trial_days"),
			MaxManagedChildren: v.GetInt("entitlement.max_managed_children"),
			ChildEmailDomain:   v.GetString("entitlement.child_email_domain"),
		},
		Identity: IdentityConfig{
			BaseURL:    v.GetString("identity.base_url"),
			ServiceKey: v.GetString("identity.service_key"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("auth.jwt_secret"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("log.level"),
		},
	}

	if cfg.Stripe.APIKey == "" {
		return nil, fmt.Errorf("stripe api key is not configured")
	}
	if cfg.Stripe.WebhookSecret == "" {
		return nil, fmt.Errorf("stripe webhook secret is not configured")
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 15)
	v.SetDefault("server.write_timeout", 15)
	v.SetDefault("server.shutdown_timeout", 30)

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("db.name", "entitlement_service")
	v.SetDefault("db.sslmode", "disable")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.enabled", true)

	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.enabled", true)

	v.SetDefault("stripe.api_key", "")
	v.SetDefault("stripe.webhook_secret", "")
	v.SetDefault("stripe.monthly_price_id", "")
	v.SetDefault("stripe.annual_price_id", "")
	v.SetDefault("stripe.gift_monthly_amount", 999)
	v.SetDefault("stripe.gift_annual_amount", 7999)
	v.SetDefault("stripe.currency", "usd")
	v.SetDefault("stripe.success_url", "http://localhost:3000/billing/success")
	v.SetDefault("stripe.cancel_url", "http://localhost:3000/billing/cancel")
	v.SetDefault("stripe.portal_return_url", "http://localhost:3000/account")

	v.SetDefault("entitlement.trial_days", 14)
	v.SetDefault("entitlement.max_managed_children", 5)
	v.SetDefault("entitlement.child_email_domain", "children.local")

	v.SetDefault("identity.base_url", "")
	v.SetDefault("identity.service_key", "")

	v.SetDefault("auth.jwt_secret", "")

	v.SetDefault("log.level", "info")
}
