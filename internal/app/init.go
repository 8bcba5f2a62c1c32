package app

import (
	"context"
	"fmt"
	"net/http"

	server "github.com/N1seb/Render/internal/adapters/primary/http"
	adminController "github.com/N1seb/Render/internal/adapters/primary/http/controllers/admin"
	healthcheckController "github.com/N1seb/Render/internal/adapters/primary/http/controllers/healthcheck"
	metricsController "github.com/N1seb/Render/internal/adapters/primary/http/controllers/metrics"
	paymentController "github.com/N1seb/Render/internal/adapters/primary/http/controllers/payment"
	telegramController "github.com/N1seb/Render/internal/adapters/primary/http/controllers/telegram"
	"github.com/N1seb/Render/internal/adapters/primary/http/middlewares"
	kafkaConsumerAdapter "github.com/N1seb/Render/internal/adapters/primary/kafka"
	kafkaHandlers "github.com/N1seb/Render/internal/adapters/primary/kafka/handlers"
	alerterAdapter "github.com/N1seb/Render/internal/adapters/secondary/alerter"
	"github.com/N1seb/Render/internal/adapters/secondary/cryptopay"
	kafkaAdapter "github.com/N1seb/Render/internal/adapters/secondary/kafka"
	"github.com/N1seb/Render/internal/adapters/secondary/storage/inmemory"
	"github.com/N1seb/Render/internal/adapters/secondary/storage/pg"
	redisAdapter "github.com/N1seb/Render/internal/adapters/secondary/storage/redis"
	"github.com/N1seb/Render/internal/adapters/secondary/storage/s3"
	tgAdapter "github.com/N1seb/Render/internal/adapters/secondary/telegram"
	"github.com/N1seb/Render/internal/domain"
	"github.com/N1seb/Render/internal/pkg/metrics"
	"github.com/N1seb/Render/internal/ports/cache"
	"github.com/N1seb/Render/internal/ports/events"
	"github.com/N1seb/Render/internal/ports/repository"
	"github.com/N1seb/Render/internal/ports/service"
	"github.com/N1seb/Render/internal/ports/storage"
	cartRepo "github.com/N1seb/Render/internal/repository/cart"
	invoiceRepo "github.com/N1seb/Render/internal/repository/invoice"
	operatorRepo "github.com/N1seb/Render/internal/repository/operator"
	orderRepo "github.com/N1seb/Render/internal/repository/order"
	supportRepo "github.com/N1seb/Render/internal/repository/support"
	userRepo "github.com/N1seb/Render/internal/repository/user"
	webhookEventRepo "github.com/N1seb/Render/internal/repository/webhook_event"
	alerterService "github.com/N1seb/Render/internal/services/alerter"
	eventsService "github.com/N1seb/Render/internal/services/events"
	jobScheduler "github.com/N1seb/Render/internal/services/jobs"
	paymentsService "github.com/N1seb/Render/internal/services/payments"
	telegramService "github.com/N1seb/Render/internal/services/telegram"
	adminUsecase "github.com/N1seb/Render/internal/usecases/admin"
	ordersUsecase "github.com/N1seb/Render/internal/usecases/orders"
	"github.com/N1seb/Render/internal/usecases/pricing"
	"github.com/N1seb/Render/internal/usecases/session"
	shopUsecase "github.com/N1seb/Render/internal/usecases/shop"
	supportUsecase "github.com/N1seb/Render/internal/usecases/support"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Dependencies struct {
	DB             *sqlx.DB
	HTTPServer     *http.Server
	Bus            *eventsService.Bus
	Dispatcher     *eventsService.Dispatcher
	TelegramClient *tgAdapter.Client
	TelegramPoller *tgAdapter.Poller
	KafkaProducer  *kafkaAdapter.Producer
	KafkaConsumer  *kafkaConsumerAdapter.Consumer
	Cache          cache.Cache
	Sessions       *session.Manager
	Admin          *adminUsecase.Service
	JobScheduler   *jobScheduler.Scheduler
}

// initDependencies инициализирует все зависимости приложения
func (a *App) initDependencies(ctx context.Context) (*Dependencies, error) {
	db, err := a.initPostgres(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to init postgres: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	persistenceLayer := pg.NewDB(db)
	repos := a.initRepositories(persistenceLayer)
	cacheClient, purger := a.initCache(ctx)
	objectStorage := a.initObjectStorage()

	tgClient := tgAdapter.NewClient(a.Cfg.Telegram.BotToken, a.Log, tgAdapter.WithAPIBaseURL(a.Cfg.Telegram.APIBaseURL))
	if err := a.registerBotCommands(ctx, tgClient); err != nil {
		a.Log.Warn("failed to register bot commands", "error", err)
	}
	gateway := telegramService.NewSender(tgClient, a.Log)

	alerter := alerterService.New(
		alerterAdapter.NewClient(a.Cfg.Alerter, a.Cfg.Telegram.BotToken, a.Log),
		gateway,
		a.Cfg.Admin.AdminIDs,
		a.Log,
	)

	cryptoPay := cryptopay.NewClient(a.Cfg.CryptoPay, a.Log)
	catalog, err := pricing.NewCatalog(pricing.DefaultEntries())
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog: %w", err)
	}
	rates := pricing.NewCachedRates(cryptoPay, cacheClient, a.Cfg.Shop.RateCacheTTL, a.Log)
	engine := pricing.NewEngine(catalog, rates, a.Cfg.Pricing, m, a.Log)

	sessions := session.NewManager(a.Cfg.Session, a.Log)
	support := supportUsecase.New(a.Cfg.Support, repos.Support, repos.Operator, gateway, a.Cfg.Admin.AdminIDs, a.Log)
	notifier := telegramService.NewNotifier(gateway, support, a.Log)

	producer, err := a.initKafkaProducer()
	if err != nil {
		return nil, fmt.Errorf("failed to init kafka producer: %w", err)
	}
	// без kafka заявка операторам уходит напрямую
	var publisher events.IOrderEventPublisher = notifier
	if producer != nil {
		publisher = producer
	}

	orders := ordersUsecase.New(
		a.Cfg.Orders,
		persistenceLayer,
		repos.Order,
		repos.Cart,
		repos.Invoice,
		cryptoPay,
		engine,
		notifier,
		publisher,
		alerter,
		cacheClient,
		m,
		a.Log,
	)
	admin := adminUsecase.New(a.Cfg.Admin, repos.Operator, repos.User, orders, a.Log)
	qr := telegramService.NewQRService(gateway, objectStorage, a.Cfg.Shop.QRSize, a.Log)
	shop := shopUsecase.New(a.Cfg.Shop.Config, repos.User, orders, support, admin, sessions, gateway, qr, a.Log)
	router := telegramService.New(shop, sessions, gateway, a.Log)

	bus := eventsService.NewBus(a.Cfg.Events.BusSize, a.Log)
	dispatcher := eventsService.NewDispatcher(a.Cfg.Events, bus, m, a.Log)
	dispatcher.Register(domain.InboundEventChat, router)
	dispatcher.Register(domain.InboundEventPayment, paymentsService.New(orders, repos.WebhookEvent, a.Log))

	consumer, err := a.initKafkaConsumer(notifier)
	if err != nil {
		return nil, fmt.Errorf("failed to init kafka consumer: %w", err)
	}

	httpServer := a.initHTTP(db, bus, repos.WebhookEvent, admin, m, registry)

	poller, err := a.initTelegramMode(ctx, tgClient, bus)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram mode: %w", err)
	}

	scheduler := jobScheduler.NewScheduler(a.Cfg.Jobs, alerter, m, a.Log)
	scheduler.Register(jobScheduler.NewInvoiceReconciler(a.Cfg.Reconciler, repos.Order, cryptoPay, orders, a.Log))
	if purger != nil {
		scheduler.Register(jobScheduler.NewCachePurger(purger, a.Cfg.Shop.CachePurgeInterval, a.Log))
	}

	return &Dependencies{
		DB:             db,
		HTTPServer:     httpServer,
		Bus:            bus,
		Dispatcher:     dispatcher,
		TelegramClient: tgClient,
		TelegramPoller: poller,
		KafkaProducer:  producer,
		KafkaConsumer:  consumer,
		Cache:          cacheClient,
		Sessions:       sessions,
		Admin:          admin,
		JobScheduler:   scheduler,
	}, nil
}

// repositories содержит инициализированные репозитории
type repositories struct {
	User         repository.IUserRepo
	Order        repository.IOrderRepo
	Cart         repository.ICartRepo
	Invoice      repository.IInvoiceRepo
	Operator     repository.IOperatorRepo
	Support      repository.ISupportRepo
	WebhookEvent repository.IWebhookEventRepo
}

// initRepositories инициализирует репозитории для работы с БД
func (a *App) initRepositories(persistenceLayer *pg.DB) *repositories {
	return &repositories{
		User:         userRepo.New(persistenceLayer, a.Log),
		Order:        orderRepo.New(persistenceLayer, a.Log),
		Cart:         cartRepo.New(persistenceLayer, a.Log),
		Invoice:      invoiceRepo.New(persistenceLayer, a.Log),
		Operator:     operatorRepo.New(persistenceLayer, a.Log),
		Support:      supportRepo.New(persistenceLayer, a.Log),
		WebhookEvent: webhookEventRepo.New(persistenceLayer, a.Log),
	}
}

// initCache redis, если включен и доступен, иначе кэш в памяти процесса.
// Для кэша в памяти возвращается ещё и чистильщик истёкших ключей
func (a *App) initCache(ctx context.Context) (cache.Cache, jobScheduler.IPurger) {
	if a.Cfg.Redis != nil && a.Cfg.Redis.Enabled {
		redisClient, err := a.Cfg.Redis.NewConnection(ctx)
		if err == nil {
			a.Log.Info("redis cache connected successfully")
			return redisAdapter.NewClient(redisClient, a.Cfg.Redis.KeyPrefix), nil
		}
		a.Log.Warn("failed to init redis cache, falling back to in-memory cache", "error", err)
	}

	memory := inmemory.NewCache()
	return memory, memory
}

// initObjectStorage архив QR-кодов в S3. nil, если выключен или недоступен
func (a *App) initObjectStorage() storage.IObjectStorage {
	if a.Cfg.S3 == nil || !a.Cfg.S3.Enabled {
		return nil
	}

	minioClient, err := a.Cfg.S3.NewClient()
	if err != nil {
		a.Log.Warn("failed to init s3, qr codes will not be archived", "error", err)
		return nil
	}

	a.Log.Info("s3 connected successfully", "bucket", a.Cfg.S3.Bucket)
	return s3.NewClient(minioClient, a.Cfg.S3.Bucket, a.Log)
}

// initKafkaProducer nil, если kafka выключена
func (a *App) initKafkaProducer() (*kafkaAdapter.Producer, error) {
	if a.Cfg.Kafka == nil || !a.Cfg.Kafka.Enabled {
		a.Log.Info("kafka disabled, order paid events are delivered in-process")
		return nil, nil
	}

	return kafkaAdapter.NewProducer(a.Cfg.Kafka, a.Log)
}

// initKafkaConsumer читает события оплаты и рассылает заявки операторам
func (a *App) initKafkaConsumer(notifier service.IFulfillmentNotifier) (*kafkaConsumerAdapter.Consumer, error) {
	if a.Cfg.Kafka == nil || !a.Cfg.Kafka.Enabled {
		return nil, nil
	}

	handler := kafkaHandlers.NewOrderPaidHandler(notifier, a.Log)
	return kafkaConsumerAdapter.NewConsumer(a.Cfg.Kafka, handler, a.Log)
}

// initHTTP инициализирует HTTP сервер и контроллеры
func (a *App) initHTTP(
	db *sqlx.DB,
	sink events.IEventSink,
	eventRepo repository.IWebhookEventRepo,
	admin *adminUsecase.Service,
	m *metrics.Metrics,
	registry *prometheus.Registry,
) *http.Server {
	limiter := middlewares.NewRateLimiter(a.Cfg.Server.RateLimitRPS, a.Cfg.Server.RateLimitBurst).Handler()

	var verifier paymentController.ISignatureVerifier
	if a.Cfg.CryptoPay.VerifyWebhook {
		verifier = cryptopay.NewSignatureVerifier(a.Cfg.CryptoPay.Token)
	}

	controllers := []server.Controller{
		healthcheckController.New(a.Name, db, a.Log),
		metricsController.New(registry),
		telegramController.New(sink, a.Cfg.Telegram.WebhookSecret, a.Log, limiter),
		paymentController.New(eventRepo, sink, verifier, m, a.Log, limiter),
		adminController.New(admin, a.Cfg.Admin.HTTPToken, a.Log, limiter),
	}

	return server.NewHTTPServer(a.Cfg.Server, a.Log, middlewares.NewHTTPMetrics(registry), controllers...)
}

// initTelegramMode webhook в проде, polling для локальной разработки
func (a *App) initTelegramMode(ctx context.Context, client *tgAdapter.Client, sink events.IEventSink) (*tgAdapter.Poller, error) {
	a.Log.Info("telegram configuration",
		"use_webhook", a.Cfg.Telegram.IsWebhookEnabled(),
		"webhook_url", a.Cfg.Telegram.WebhookURL,
	)

	if a.Cfg.Telegram.IsWebhookEnabled() {
		webhookURL := a.Cfg.Telegram.WebhookURL + "/webhook/telegram"
		if err := client.SetWebhook(ctx, webhookURL, a.Cfg.Telegram.WebhookSecret); err != nil {
			return nil, fmt.Errorf("failed to set webhook: %w", err)
		}
		a.Log.Info("webhook set successfully", "webhook_url", webhookURL)
		return nil, nil
	}

	a.Log.Warn("polling mode enabled - this should only be used for local development")
	return tgAdapter.NewPoller(client, a.Cfg.Telegram, sink, a.Log), nil
}

// registerBotCommands регистрирует команды бота в Telegram
func (a *App) registerBotCommands(ctx context.Context, client *tgAdapter.Client) error {
	commands := []tgAdapter.BotCommand{
		{Command: "start", Description: "Главное меню"},
		{Command: "cart", Description: "Корзина"},
		{Command: "orders", Description: "Мои заказы"},
		{Command: "support", Description: "Написать в поддержку"},
		{Command: "cancel", Description: "Отменить текущее действие"},
	}

	return client.SetMyCommands(ctx, commands)
}
