package events

import (
	"context"

	"github.com/N1seb/Render/internal/domain"
)

// IOrderEventPublisher публикует события оплаченных заказов в очередь выполнения
type IOrderEventPublisher interface {
	PublishOrderPaid(ctx context.Context, event domain.OrderPaidEvent) error
}

// IEventSink принимает входящие события от любого источника (polling, webhook)
type IEventSink interface {
	Publish(ctx context.Context, event domain.InboundEvent) error
}

// IEventHandler обрабатывает одно входящее событие
type IEventHandler interface {
	HandleEvent(ctx context.Context, event domain.InboundEvent) error
}
