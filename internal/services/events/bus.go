package events

import (
	"context"
	"errors"
	"log/slog"

	"github.com/N1seb/Render/internal/domain"
)

var ErrBusClosed = errors.New("event bus is closed")

// Bus входящая шина: polling, вебхук Telegram и вебхук оплаты пишут сюда,
// Dispatcher читает
type Bus struct {
	ch   chan domain.InboundEvent
	done chan struct{}
	log  *slog.Logger
}

func NewBus(size int, log *slog.Logger) *Bus {
	if size <= 0 {
		size = 256
	}
	return &Bus{
		ch:   make(chan domain.InboundEvent, size),
		done: make(chan struct{}),
		log:  log.With("component", "event_bus"),
	}
}

// Publish кладёт событие в шину. Блокируется, пока буфер полон
func (b *Bus) Publish(ctx context.Context, event domain.InboundEvent) error {
	select {
	case <-b.done:
		return ErrBusClosed
	default:
	}

	select {
	case b.ch <- event:
		return nil
	case <-b.done:
		return ErrBusClosed
	case <-ctx.Done():
		b.log.Warn("event dropped: context done while bus is full",
			"kind", event.Kind,
			"chat_id", event.ChatID(),
		)
		return ctx.Err()
	}
}

// Events канал для потребителя
func (b *Bus) Events() <-chan domain.InboundEvent {
	return b.ch
}

// Close запрещает новые публикации. Канал событий не закрывается:
// продюсеры могут ещё держать ссылку на шину
func (b *Bus) Close() {
	select {
	case <-b.done:
	default:
		close(b.done)
	}
}
