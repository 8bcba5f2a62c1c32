package repository

import (
	"context"
	"time"

	"github.com/N1seb/Render/internal/domain"
)

type IOrderRepo interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	ListByIDs(ctx context.Context, ids []int64) ([]domain.Order, error)
	ListByChat(ctx context.Context, chatID int64, limit int) ([]domain.Order, error)
	ListByCart(ctx context.Context, cartID int64) ([]domain.Order, error)
	ListRecent(ctx context.Context, limit int) ([]domain.Order, error)
	// ListUninvoicedByCart заказы корзины, созданные при неудачном оформлении
	ListUninvoicedByCart(ctx context.Context, cartID int64) ([]domain.Order, error)
	// ListStaleAwaiting заказы с инвойсом, которые ждут оплату дольше olderThan
	ListStaleAwaiting(ctx context.Context, olderThan time.Time, limit int) ([]domain.Order, error)
	AttachInvoice(ctx context.Context, ids []int64, invoiceID, payURL, asset string) error
	// MarkPaid переводит в paid только заказы в awaiting_payment, возвращает переведённые
	MarkPaid(ctx context.Context, ids []int64) ([]domain.Order, error)
	// Cancel отменяет заказ в awaiting_payment, false если статус уже другой
	Cancel(ctx context.Context, id int64) (bool, error)
}
