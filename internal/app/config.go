package app

import (
	"fmt"
	"time"

	server "github.com/N1seb/Render/internal/adapters/primary/http"
	alerterAdapter "github.com/N1seb/Render/internal/adapters/secondary/alerter"
	"github.com/N1seb/Render/internal/adapters/secondary/cryptopay"
	kafkaAdapter "github.com/N1seb/Render/internal/adapters/secondary/kafka"
	"github.com/N1seb/Render/internal/adapters/secondary/storage/pg"
	redisAdapter "github.com/N1seb/Render/internal/adapters/secondary/storage/redis"
	"github.com/N1seb/Render/internal/adapters/secondary/storage/s3"
	"github.com/N1seb/Render/internal/adapters/secondary/telegram"
	"github.com/N1seb/Render/internal/pkg/logger"
	eventsService "github.com/N1seb/Render/internal/services/events"
	"github.com/N1seb/Render/internal/services/jobs"
	"github.com/N1seb/Render/internal/usecases/admin"
	"github.com/N1seb/Render/internal/usecases/orders"
	"github.com/N1seb/Render/internal/usecases/pricing"
	"github.com/N1seb/Render/internal/usecases/session"
	"github.com/N1seb/Render/internal/usecases/shop"
	"github.com/N1seb/Render/internal/usecases/support"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Postgres   *pg.Config             `envconfig:"PG"`
	Redis      *redisAdapter.Config   `envconfig:"REDIS"`
	Log        *logger.Config         `envconfig:"LOGGER"`
	Server     *server.Config         `envconfig:"HTTP"`
	Telegram   *telegram.Config       `envconfig:"TELEGRAM"`
	CryptoPay  *cryptopay.Config      `envconfig:"CRYPTOPAY"`
	Kafka      *kafkaAdapter.Config   `envconfig:"KAFKA"`
	S3         *s3.Config             `envconfig:"S3"`
	Alerter    *alerterAdapter.Config `envconfig:"ALERTER"`
	Shop       ShopConfig             `envconfig:"SHOP"`
	Admin      admin.Config           `envconfig:"ADMIN"`
	Orders     orders.Config          `envconfig:"ORDERS"`
	Pricing    pricing.Config         `envconfig:"PRICING"`
	Session    session.Config         `envconfig:"SESSION"`
	Support    support.Config         `envconfig:"SUPPORT"`
	Events     eventsService.Config   `envconfig:"EVENTS"`
	Jobs       jobs.Config            `envconfig:"JOBS"`
	Reconciler jobs.ReconcilerConfig  `envconfig:"RECONCILER"`
}

// ShopConfig настройки диалога и всего, что вокруг него
type ShopConfig struct {
	shop.Config
	QRSize             int           `envconfig:"QR_SIZE" default:"320"`
	RateCacheTTL       time.Duration `envconfig:"RATE_CACHE_TTL" default:"60s"`
	CachePurgeInterval time.Duration `envconfig:"CACHE_PURGE_INTERVAL" default:"10m"`
}

func NewEnvConfig(envPrefix string) (*Config, error) {
	cfg := &Config{}

	_ = godotenv.Load("deployments/local/.env")

	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate проверки, которые не выразить тегами envconfig
func (c *Config) Validate() error {
	if c.Telegram.IsWebhookEnabled() && c.Telegram.WebhookURL == "" {
		return fmt.Errorf("telegram webhook_url is required when use_webhook is true")
	}
	if c.CryptoPay.VerifyWebhook && c.CryptoPay.Token == "" {
		return fmt.Errorf("cryptopay token is required to verify webhooks")
	}
	if len(c.Admin.AdminIDs) == 0 {
		return fmt.Errorf("at least one admin chat id is required")
	}
	if c.Kafka.Enabled && c.Kafka.Brokers == "" {
		return fmt.Errorf("kafka brokers are required when kafka is enabled")
	}
	return nil
}
