package orders

import (
	"context"
	"fmt"

	"github.com/N1seb/Render/internal/domain"
)

// CancelOrder отменяет заказ пользователя, пока он ждёт оплату.
// Операторы получают уведомление
func (s *Service) CancelOrder(ctx context.Context, chatID, orderID int64) (*domain.Order, error) {
	order, err := s.GetOrder(ctx, chatID, orderID)
	if err != nil {
		return nil, err
	}
	return s.cancel(ctx, order)
}

func (s *Service) cancel(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := order.CanTransition(domain.OrderStatusCancelled); err != nil {
		return nil, fmt.Errorf("order %d is %s: %w", order.ID, order.Status, err)
	}

	cancelled, err := s.OrderRepo.Cancel(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if !cancelled {
		// статус успел измениться между чтением и обновлением
		return nil, fmt.Errorf("order %d changed concurrently: %w", order.ID, domain.ErrInvalidTransition)
	}

	order.Status = domain.OrderStatusCancelled
	s.Metrics.OrderCancelled()
	s.Log.Info("order cancelled", "order_id", order.ID, "chat_id", order.ChatID)

	if s.Notifier != nil {
		if err := s.Notifier.NotifyOrderCancelled(ctx, *order); err != nil {
			s.Log.Warn("failed to notify operators about cancellation", "error", err, "order_id", order.ID)
		}
	}
	return order, nil
}

// SetStatus ручная смена статуса администратором. Действуют те же ограничения,
// что и для пользователя: менять можно только заказ в awaiting_payment
func (s *Service) SetStatus(ctx context.Context, orderID int64, status domain.OrderStatus) (*domain.Order, error) {
	order, err := s.OrderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch status {
	case domain.OrderStatusCancelled:
		return s.cancel(ctx, order)
	case domain.OrderStatusPaid:
		return s.markPaidManually(ctx, order)
	default:
		return nil, fmt.Errorf("status %q: %w", status, domain.ErrInvalidTransition)
	}
}

func (s *Service) markPaidManually(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := order.CanTransition(domain.OrderStatusPaid); err != nil {
		return nil, fmt.Errorf("order %d is %s: %w", order.ID, order.Status, err)
	}

	var transitioned []domain.Order
	err := s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		transitioned, err = s.OrderRepo.MarkPaid(ctx, []int64{order.ID})
		if err != nil {
			return err
		}
		if len(transitioned) > 0 && order.CartID != nil {
			return s.settleCart(ctx, *order.CartID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(transitioned) == 0 {
		return nil, fmt.Errorf("order %d changed concurrently: %w", order.ID, domain.ErrInvalidTransition)
	}

	invoiceID := ""
	if order.InvoiceID != nil {
		invoiceID = *order.InvoiceID
	}
	s.Log.Warn("order marked paid manually", "order_id", order.ID, "invoice_id", invoiceID)
	s.afterPaid(ctx, &domain.InvoiceMapping{InvoiceID: invoiceID, ChatID: order.ChatID}, transitioned)

	return &transitioned[0], nil
}
