package admin

import (
	"context"

	"github.com/N1seb/Render/internal/domain"
)

// RecentOrders последние заказы всех пользователей, limit ограничен сверху
func (s *Service) RecentOrders(ctx context.Context, actorID int64, limit int) ([]domain.Order, error) {
	if err := s.require(actorID, "list orders"); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > s.recentMax {
		limit = s.recentMax
	}
	return s.Orders.ListRecent(ctx, limit)
}

// SetOrderStatus ручная смена статуса через машину состояний заказа
func (s *Service) SetOrderStatus(ctx context.Context, actorID, orderID int64, status domain.OrderStatus) (*domain.Order, error) {
	if err := s.require(actorID, "set order status"); err != nil {
		return nil, err
	}

	order, err := s.Orders.SetStatus(ctx, orderID, status)
	if err != nil {
		s.Log.Warn("admin status change failed", "error", err, "order_id", orderID, "status", status)
		return nil, err
	}

	s.Log.Info("admin changed order status", "actor_chat_id", actorID, "order_id", orderID, "status", status)
	return order, nil
}
