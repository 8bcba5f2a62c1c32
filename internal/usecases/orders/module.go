package orders

import (
	"log/slog"
	"time"

	"github.com/N1seb/Render/internal/domain"
	"github.com/N1seb/Render/internal/pkg/metrics"
	"github.com/N1seb/Render/internal/ports/cache"
	"github.com/N1seb/Render/internal/ports/events"
	"github.com/N1seb/Render/internal/ports/payment"
	"github.com/N1seb/Render/internal/ports/persistence"
	"github.com/N1seb/Render/internal/ports/repository"
	"github.com/N1seb/Render/internal/ports/service"
	"github.com/N1seb/Render/internal/usecases/pricing"
)

type Config struct {
	PaidTokens         []string      `envconfig:"PAID_TOKENS" default:"paid,success,succeeded,confirmed,finished,complete,completed"`
	CallbackURL        string        `envconfig:"CALLBACK_URL"`
	InvoiceDescription string        `envconfig:"INVOICE_DESCRIPTION" default:"Оплата заказа"`
	DuplicateNoticeTTL time.Duration `envconfig:"DUPLICATE_NOTICE_TTL" default:"24h"`
}

// Service машина состояний заказа: создание, выставление инвойса,
// подтверждение оплаты и отмена
type Service struct {
	Tx          persistence.Transactor
	OrderRepo   repository.IOrderRepo
	CartRepo    repository.ICartRepo
	InvoiceRepo repository.IInvoiceRepo
	Gateway     payment.IPaymentGateway
	Pricing     *pricing.Engine
	Notifier    service.IOrderNotifier
	Publisher   events.IOrderEventPublisher
	Alerter     service.IAlerterService
	Cache       cache.Cache
	Metrics     *metrics.Metrics
	Log         *slog.Logger
	cfg         Config
	now         func() time.Time
}

func New(
	cfg Config,
	tx persistence.Transactor,
	orderRepo repository.IOrderRepo,
	cartRepo repository.ICartRepo,
	invoiceRepo repository.IInvoiceRepo,
	gateway payment.IPaymentGateway,
	pricingEngine *pricing.Engine,
	notifier service.IOrderNotifier,
	publisher events.IOrderEventPublisher,
	alerter service.IAlerterService,
	c cache.Cache,
	m *metrics.Metrics,
	log *slog.Logger,
) *Service {
	if len(cfg.PaidTokens) == 0 {
		cfg.PaidTokens = domain.DefaultPaidTokens
	}
	if cfg.InvoiceDescription == "" {
		cfg.InvoiceDescription = "Оплата заказа"
	}
	if cfg.DuplicateNoticeTTL <= 0 {
		cfg.DuplicateNoticeTTL = 24 * time.Hour
	}

	return &Service{
		Tx:          tx,
		OrderRepo:   orderRepo,
		CartRepo:    cartRepo,
		InvoiceRepo: invoiceRepo,
		Gateway:     gateway,
		Pricing:     pricingEngine,
		Notifier:    notifier,
		Publisher:   publisher,
		Alerter:     alerter,
		Cache:       c,
		Metrics:     m,
		Log:         log.With("component", "orders"),
		cfg:         cfg,
		now:         time.Now,
	}
}
