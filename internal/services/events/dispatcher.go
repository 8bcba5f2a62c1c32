package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/N1seb/Render/internal/domain"
	"github.com/N1seb/Render/internal/pkg/metrics"
	"github.com/N1seb/Render/internal/ports/events"
	"golang.org/x/sync/semaphore"
)

type Config struct {
	BusSize        int           `envconfig:"BUS_SIZE" default:"256"`
	MaxConcurrency int64         `envconfig:"MAX_CONCURRENCY" default:"32"`
	HandleTimeout  time.Duration `envconfig:"HANDLE_TIMEOUT" default:"60s"`

	// PaymentConcurrency отдельный бюджет для платёжных событий, чаты его не занимают
	PaymentConcurrency int64 `envconfig:"PAYMENT_CONCURRENCY" default:"8"`
	// ChatQueueSize сколько событий одного чата ждут своей очереди
	ChatQueueSize      int   `envconfig:"CHAT_QUEUE_SIZE" default:"32"`
}

// Dispatcher читает шину и обрабатывает события в горутинах.
// События одного чата идут по очереди через свою очередь и слот занимают,
// только когда реально обрабатываются. Платёжные события ограничены своим пулом
type Dispatcher struct {
	bus       *Bus
	handlers  map[domain.InboundEventKind]events.IEventHandler
	chatSem   *semaphore.Weighted
	paySem    *semaphore.Weighted
	queueSize int
	timeout   time.Duration
	metrics   *metrics.Metrics
	log       *slog.Logger
	wg        sync.WaitGroup

	mu     sync.Mutex
	queues map[int64][]domain.InboundEvent
}

func NewDispatcher(cfg Config, bus *Bus, m *metrics.Metrics, log *slog.Logger) *Dispatcher {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 32
	}
	if cfg.PaymentConcurrency <= 0 {
		cfg.PaymentConcurrency = 8
	}
	if cfg.ChatQueueSize <= 0 {
		cfg.ChatQueueSize = 32
	}
	if cfg.HandleTimeout <= 0 {
		cfg.HandleTimeout = time.Minute
	}

	return &Dispatcher{
		bus:       bus,
		handlers:  make(map[domain.InboundEventKind]events.IEventHandler),
		chatSem:   semaphore.NewWeighted(cfg.MaxConcurrency),
		paySem:    semaphore.NewWeighted(cfg.PaymentConcurrency),
		queueSize: cfg.ChatQueueSize,
		timeout:   cfg.HandleTimeout,
		metrics:   m,
		log:       log.With("component", "dispatcher"),
		queues:    make(map[int64][]domain.InboundEvent),
	}
}

// Register обработчик для типа событий. Вызывается до Run
func (d *Dispatcher) Register(kind domain.InboundEventKind, handler events.IEventHandler) {
	d.handlers[kind] = handler
}

// Run до отмены ctx. После отмены дожидается уже начатых обработок,
// ещё не начатые события чатов отбрасываются
func (d *Dispatcher) Run(ctx context.Context) error {
	d.log.Info("dispatcher started", "handlers", len(d.handlers))
	defer func() {
		d.wg.Wait()
		d.log.Info("dispatcher stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event := <-d.bus.Events():
			d.dispatch(ctx, event)
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, event domain.InboundEvent) {
	chatID := event.ChatID()
	if event.Kind != domain.InboundEventChat || chatID == 0 {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.run(ctx, event)
		}()
		return
	}

	d.mu.Lock()
	queue, busy := d.queues[chatID]
	if busy {
		if len(queue) >= d.queueSize {
			d.mu.Unlock()
			d.metrics.Event(string(event.Kind), "dropped")
			d.log.Warn("chat queue is full, event dropped", "chat_id", chatID)
			return
		}
		d.queues[chatID] = append(queue, event)
		d.mu.Unlock()
		return
	}
	d.queues[chatID] = nil
	d.mu.Unlock()

	d.wg.Add(1)
	go d.drainChat(ctx, chatID, event)
}

// drainChat обрабатывает события чата по одному, пока очередь не опустеет
func (d *Dispatcher) drainChat(ctx context.Context, chatID int64, event domain.InboundEvent) {
	defer d.wg.Done()

	for {
		d.run(ctx, event)

		d.mu.Lock()
		queue := d.queues[chatID]
		if len(queue) == 0 {
			delete(d.queues, chatID)
			d.mu.Unlock()
			return
		}
		event = queue[0]
		d.queues[chatID] = queue[1:]
		d.mu.Unlock()
	}
}

// run занимает слот своего пула на время обработки
func (d *Dispatcher) run(ctx context.Context, event domain.InboundEvent) {
	sem := d.chatSem
	if event.Kind == domain.InboundEventPayment {
		sem = d.paySem
	}

	if err := sem.Acquire(ctx, 1); err != nil {
		d.metrics.Event(string(event.Kind), "dropped")
		d.log.Warn("event dropped on shutdown", "kind", event.Kind, "chat_id", event.ChatID())
		return
	}
	defer sem.Release(1)

	d.handle(context.WithoutCancel(ctx), event)
}

func (d *Dispatcher) handle(ctx context.Context, event domain.InboundEvent) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			d.metrics.Event(string(event.Kind), "panic")
			d.log.Error("panic while handling event",
				"panic", fmt.Sprint(r),
				"kind", event.Kind,
				"chat_id", event.ChatID(),
			)
		}
	}()

	handler, ok := d.handlers[event.Kind]
	if !ok {
		d.metrics.Event(string(event.Kind), "unhandled")
		d.log.Warn("no handler for event", "kind", event.Kind)
		return
	}

	if err := handler.HandleEvent(ctx, event); err != nil {
		d.metrics.Event(string(event.Kind), "error")
		d.log.Error("failed to handle event",
			"error", err,
			"kind", event.Kind,
			"chat_id", event.ChatID(),
		)
		return
	}
	d.metrics.Event(string(event.Kind), "ok")
}
