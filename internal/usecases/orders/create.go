package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/N1seb/Render/internal/domain"
	"github.com/N1seb/Render/internal/usecases/pricing"
	"github.com/shopspring/decimal"
)

// Selection выбор пользователя, из которого получается заказ или позиция корзины
type Selection struct {
	ChatID   int64
	Network  domain.Network
	Service  domain.ServiceKey
	Quantity int64
	Link     string
}

// priceSelection проверяет ссылку и считает цену по каталогу
func (s *Service) priceSelection(sel Selection) (Selection, decimal.Decimal, error) {
	link, err := pricing.ValidateLink(sel.Link)
	if err != nil {
		return sel, decimal.Zero, err
	}
	sel.Link = link

	price, err := s.Pricing.Price(sel.Network, sel.Service, sel.Quantity)
	if err != nil {
		return sel, decimal.Zero, err
	}
	return sel, price, nil
}

// CreateOrder создаёт одиночный заказ в статусе awaiting_payment
func (s *Service) CreateOrder(ctx context.Context, sel Selection) (*domain.Order, error) {
	sel, price, err := s.priceSelection(sel)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		ChatID:   sel.ChatID,
		Network:  sel.Network,
		Service:  sel.Service,
		Quantity: sel.Quantity,
		PriceUSD: price,
		Link:     sel.Link,
		Status:   domain.OrderStatusAwaitingPayment,
	}
	if err := s.OrderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.Metrics.OrderCreated("single", 1)
	s.Log.Info("order created",
		"order_id", order.ID,
		"chat_id", order.ChatID,
		"network", order.Network,
		"service", order.Service,
		"quantity", order.Quantity,
		"price_usd", order.PriceUSD.StringFixed(2),
	)
	return order, nil
}

// GetOrder заказ пользователя. Чужой заказ не отличается от несуществующего
func (s *Service) GetOrder(ctx context.Context, chatID, orderID int64) (*domain.Order, error) {
	order, err := s.OrderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.ChatID != chatID {
		return nil, fmt.Errorf("order %d: %w", orderID, domain.ErrNotFound)
	}
	return order, nil
}

// ListUserOrders последние заказы пользователя
func (s *Service) ListUserOrders(ctx context.Context, chatID int64, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.OrderRepo.ListByChat(ctx, chatID, limit)
}

// ListRecent последние заказы всех пользователей
func (s *Service) ListRecent(ctx context.Context, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.OrderRepo.ListRecent(ctx, limit)
}

func (s *Service) normalizeAsset(asset string) (string, error) {
	asset = strings.ToUpper(strings.TrimSpace(asset))
	if !s.Pricing.IsSupportedAsset(asset) {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedAsset, asset)
	}
	return asset, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
