package service

import (
	"context"

	"github.com/N1seb/Render/internal/domain"
)

// IOrderNotifier сообщения об изменениях заказов: пользователю и операторам
type IOrderNotifier interface {
	// NotifyOrdersPaid одно сообщение пользователю на все переведённые в paid заказы
	NotifyOrdersPaid(ctx context.Context, chatID int64, orders []domain.Order) error
	// NotifyOrderCancelled рассылка операторам об отмене заказа
	NotifyOrderCancelled(ctx context.Context, order domain.Order) error
}

// IFulfillmentNotifier заявка операторам на выполнение оплаченного заказа
type IFulfillmentNotifier interface {
	NotifyOrderPaidOperators(ctx context.Context, event domain.OrderPaidEvent) error
}
