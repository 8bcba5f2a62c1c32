package orders

import (
	"context"
	"fmt"

	"github.com/N1seb/Render/internal/domain"
	"github.com/shopspring/decimal"
)

// CartView открытая корзина с позициями
type CartView struct {
	Cart  *domain.Cart
	Items []domain.CartItem
	Total decimal.Decimal
}

func (v *CartView) IsEmpty() bool {
	return v == nil || len(v.Items) == 0
}

// AddToCart добавляет позицию в открытую корзину, создавая её при необходимости
func (s *Service) AddToCart(ctx context.Context, sel Selection) (*domain.CartItem, error) {
	sel, price, err := s.priceSelection(sel)
	if err != nil {
		return nil, err
	}

	var item *domain.CartItem
	err = s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		cart, err := s.CartRepo.GetOrCreateOpen(ctx, sel.ChatID)
		if err != nil {
			return err
		}

		item = &domain.CartItem{
			CartID:   cart.ID,
			ChatID:   sel.ChatID,
			Network:  sel.Network,
			Service:  sel.Service,
			Quantity: sel.Quantity,
			Link:     sel.Link,
			PriceUSD: price,
		}
		return s.CartRepo.AddItem(ctx, item)
	})
	if err != nil {
		return nil, fmt.Errorf("add to cart: %w", err)
	}

	s.Log.Info("cart item added",
		"chat_id", sel.ChatID,
		"cart_id", item.CartID,
		"item_id", item.ID,
		"price_usd", price.StringFixed(2),
	)
	return item, nil
}

// GetCart открытая корзина пользователя. Если корзины нет, возвращается пустой вид
func (s *Service) GetCart(ctx context.Context, chatID int64) (*CartView, error) {
	cart, err := s.CartRepo.GetOpen(ctx, chatID)
	if err != nil {
		if isNotFound(err) {
			return &CartView{Total: decimal.Zero}, nil
		}
		return nil, err
	}

	items, err := s.CartRepo.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	return &CartView{Cart: cart, Items: items, Total: domain.CartTotal(items)}, nil
}

// RemoveFromCart удаляет позицию из открытой корзины
func (s *Service) RemoveFromCart(ctx context.Context, chatID, itemID int64) error {
	removed, err := s.CartRepo.RemoveItem(ctx, chatID, itemID)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("cart item %d: %w", itemID, domain.ErrNotFound)
	}
	return nil
}

// ClearCart очищает корзину. Заказы без инвойса от неудачного оформления отменяются.
// Если у корзины не осталось выставленных заказов, она становится cancelled,
// иначе статус выводится из выставленных заказов
func (s *Service) ClearCart(ctx context.Context, chatID int64) error {
	return s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		cart, err := s.CartRepo.GetOpen(ctx, chatID)
		if err != nil {
			if isNotFound(err) {
				return nil
			}
			return err
		}

		if err := s.CartRepo.ClearItems(ctx, cart.ID); err != nil {
			return err
		}

		stale, err := s.OrderRepo.ListUninvoicedByCart(ctx, cart.ID)
		if err != nil {
			return err
		}
		for _, o := range stale {
			if _, err := s.OrderRepo.Cancel(ctx, o.ID); err != nil {
				return err
			}
		}

		orders, err := s.OrderRepo.ListByCart(ctx, cart.ID)
		if err != nil {
			return err
		}
		if len(invoiced(orders)) == 0 {
			return s.CartRepo.SetStatus(ctx, cart.ID, domain.CartStatusCancelled)
		}
		// инвойс корзины мог быть оплачен, пока в ней лежали новые позиции
		return s.settleCart(ctx, cart.ID)
	})
}

// CheckoutCart превращает позиции корзины в заказы awaiting_payment и выставляет
// один инвойс на их сумму. При ошибке шлюза заказы остаются без инвойса,
// позиции остаются в корзине, повторное оформление переиспользует эти заказы
func (s *Service) CheckoutCart(ctx context.Context, chatID int64, asset string) (*Invoice, error) {
	asset, err := s.normalizeAsset(asset)
	if err != nil {
		return nil, err
	}

	cart, err := s.CartRepo.GetOpen(ctx, chatID)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrEmptyCart
		}
		return nil, err
	}

	items, err := s.CartRepo.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.ErrEmptyCart
	}

	total := domain.CartTotal(items)

	var orders []domain.Order
	err = s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		orders, err = s.snapshotCart(ctx, cart.ID, items)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot cart %d: %w", cart.ID, err)
	}

	amount := s.Pricing.ConvertToAsset(ctx, total, asset)
	token := domain.NewReferenceToken(domain.ReferenceCart, chatID, cart.ID, s.now())

	result, err := s.createInvoice(ctx, domain.CreateInvoiceRequest{
		Amount:         amount,
		Asset:          asset,
		ReferenceToken: token.String(),
		Description:    fmt.Sprintf("%s: корзина #%d", s.cfg.InvoiceDescription, cart.ID),
		CallbackURL:    s.cfg.CallbackURL,
	})
	if err != nil {
		return nil, err
	}

	ids := domain.OrderIDs(orders)
	cartID := cart.ID
	mapping := &domain.InvoiceMapping{
		InvoiceID:  result.InvoiceID,
		ChatID:     chatID,
		CartID:     &cartID,
		OrderIDs:   domain.Int64List(ids),
		RawPayload: result.Raw,
		Reference:  token.String(),
	}

	err = s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.InvoiceRepo.Create(ctx, mapping); err != nil {
			return err
		}
		if err := s.OrderRepo.AttachInvoice(ctx, ids, result.InvoiceID, result.PayURL, asset); err != nil {
			return err
		}
		return s.CartRepo.ClearItems(ctx, cartID)
	})
	if err != nil {
		s.Log.Error("cart invoice created but not persisted",
			"error", err,
			"cart_id", cartID,
			"invoice_id", result.InvoiceID,
		)
		return nil, fmt.Errorf("attach invoice to cart %d: %w", cartID, err)
	}

	for i := range orders {
		orders[i].InvoiceID = &result.InvoiceID
		orders[i].PayURL = &result.PayURL
		orders[i].Asset = &asset
	}

	s.Log.Info("cart invoiced",
		"cart_id", cartID,
		"invoice_id", result.InvoiceID,
		"orders", ids,
		"total_usd", total.StringFixed(2),
		"asset", asset,
		"amount", amount.String(),
	)

	return &Invoice{
		InvoiceID: result.InvoiceID,
		PayURL:    result.PayURL,
		Asset:     asset,
		Amount:    amount,
		TotalUSD:  total,
		Orders:    orders,
		CartID:    &cartID,
	}, nil
}

// snapshotCart по заказу на каждую позицию. Заказы без инвойса, оставшиеся от
// прошлой попытки, переиспользуются, лишние из них отменяются
func (s *Service) snapshotCart(ctx context.Context, cartID int64, items []domain.CartItem) ([]domain.Order, error) {
	existing, err := s.OrderRepo.ListUninvoicedByCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	pool := make(map[string][]domain.Order, len(existing))
	for _, o := range existing {
		key := snapshotKey(o.Network, o.Service, o.Quantity, o.Link, o.PriceUSD)
		pool[key] = append(pool[key], o)
	}

	orders := make([]domain.Order, 0, len(items))
	created := 0
	for _, item := range items {
		key := snapshotKey(item.Network, item.Service, item.Quantity, item.Link, item.PriceUSD)
		if candidates := pool[key]; len(candidates) > 0 {
			orders = append(orders, candidates[0])
			pool[key] = candidates[1:]
			continue
		}

		order := item.ToOrder(cartID)
		if err := s.OrderRepo.Create(ctx, &order); err != nil {
			return nil, err
		}
		orders = append(orders, order)
		created++
	}

	for _, leftovers := range pool {
		for _, o := range leftovers {
			if _, err := s.OrderRepo.Cancel(ctx, o.ID); err != nil {
				return nil, err
			}
			s.Log.Info("stale cart order cancelled", "order_id", o.ID, "cart_id", cartID)
		}
	}

	s.Metrics.OrderCreated("cart", created)
	return orders, nil
}

func snapshotKey(network domain.Network, service domain.ServiceKey, quantity int64, link string, price decimal.Decimal) string {
	return fmt.Sprintf("%s|%s|%d|%s|%s", network, service, quantity, link, price.StringFixed(2))
}
