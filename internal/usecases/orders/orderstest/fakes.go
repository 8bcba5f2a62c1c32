// Package orderstest хранилища и внешние зависимости заказов в памяти для тестов
package orderstest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/N1seb/Render/internal/domain"
	"github.com/shopspring/decimal"
)

// Store хранилище в памяти для заказов, корзин и связок инвойсов
type Store struct {
	mu       sync.Mutex
	seq      int64
	Orders   map[int64]*domain.Order
	Carts    map[int64]*domain.Cart
	Items    map[int64]*domain.CartItem
	Invoices map[string]*domain.InvoiceMapping
}

func NewStore() *Store {
	return &Store{
		Orders:   make(map[int64]*domain.Order),
		Carts:    make(map[int64]*domain.Cart),
		Items:    make(map[int64]*domain.CartItem),
		Invoices: make(map[string]*domain.InvoiceMapping),
	}
}

// Order копия заказа, false если его нет
func (s *Store) Order(id int64) (domain.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.Orders[id]
	if !ok {
		return domain.Order{}, false
	}
	return *o, true
}

// Backdate сдвигает updated_at заказа в прошлое
func (s *Store) Backdate(id int64, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.Orders[id]; ok {
		o.UpdatedAt = o.UpdatedAt.Add(-d)
	}
}

func (s *Store) Repos() (OrderRepo, CartRepo, InvoiceRepo) {
	return OrderRepo{s}, CartRepo{s}, InvoiceRepo{s}
}

func (s *Store) next() int64 {
	s.seq++
	return s.seq
}

// PassTx выполняет fn без транзакции
type PassTx struct{}

func (PassTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// --- orders ---

type OrderRepo struct{ s *Store }

func (r OrderRepo) Create(_ context.Context, order *domain.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	order.ID = r.s.next()
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	cp := *order
	r.s.Orders[order.ID] = &cp
	return nil
}

func (r OrderRepo) GetByID(_ context.Context, id int64) (*domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.Orders[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, domain.ErrNotFound)
	}
	cp := *o
	return &cp, nil
}

func (r OrderRepo) filter(pred func(o *domain.Order) bool) []domain.Order {
	var out []domain.Order
	for _, o := range r.s.Orders {
		if pred(o) {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r OrderRepo) ListByIDs(_ context.Context, ids []int64) ([]domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return r.filter(func(o *domain.Order) bool { return set[o.ID] }), nil
}

func (r OrderRepo) ListByChat(_ context.Context, chatID int64, limit int) ([]domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := r.filter(func(o *domain.Order) bool { return o.ChatID == chatID })
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r OrderRepo) ListByCart(_ context.Context, cartID int64) ([]domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.filter(func(o *domain.Order) bool { return o.CartID != nil && *o.CartID == cartID }), nil
}

func (r OrderRepo) ListRecent(_ context.Context, limit int) ([]domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := r.filter(func(*domain.Order) bool { return true })
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r OrderRepo) ListUninvoicedByCart(_ context.Context, cartID int64) ([]domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.filter(func(o *domain.Order) bool {
		return o.CartID != nil && *o.CartID == cartID && !o.HasInvoice() && o.Status == domain.OrderStatusAwaitingPayment
	}), nil
}

func (r OrderRepo) ListStaleAwaiting(_ context.Context, olderThan time.Time, limit int) ([]domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := r.filter(func(o *domain.Order) bool {
		return o.Status == domain.OrderStatusAwaitingPayment && o.HasInvoice() && o.UpdatedAt.Before(olderThan)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r OrderRepo) AttachInvoice(_ context.Context, ids []int64, invoiceID, payURL, asset string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, id := range ids {
		o, ok := r.s.Orders[id]
		if !ok || o.Status != domain.OrderStatusAwaitingPayment {
			return fmt.Errorf("order %d: %w", id, domain.ErrInvalidTransition)
		}
	}
	for _, id := range ids {
		o := r.s.Orders[id]
		inv, url, a := invoiceID, payURL, asset
		o.InvoiceID, o.PayURL, o.Asset = &inv, &url, &a
	}
	return nil
}

func (r OrderRepo) MarkPaid(_ context.Context, ids []int64) ([]domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Order
	for _, id := range ids {
		o, ok := r.s.Orders[id]
		if ok && o.Status == domain.OrderStatusAwaitingPayment {
			o.Status = domain.OrderStatusPaid
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r OrderRepo) Cancel(_ context.Context, id int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.Orders[id]
	if !ok || o.Status != domain.OrderStatusAwaitingPayment {
		return false, nil
	}
	o.Status = domain.OrderStatusCancelled
	return true, nil
}

// --- carts ---

type CartRepo struct{ s *Store }

func (r CartRepo) openCart(chatID int64) *domain.Cart {
	for _, c := range r.s.Carts {
		if c.ChatID == chatID && c.Status == domain.CartStatusOpen {
			return c
		}
	}
	return nil
}

func (r CartRepo) GetOpen(_ context.Context, chatID int64) (*domain.Cart, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := r.openCart(chatID)
	if c == nil {
		return nil, fmt.Errorf("open cart: %w", domain.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (r CartRepo) GetOrCreateOpen(ctx context.Context, chatID int64) (*domain.Cart, error) {
	r.s.mu.Lock()
	if r.openCart(chatID) == nil {
		id := r.s.next()
		r.s.Carts[id] = &domain.Cart{ID: id, ChatID: chatID, Status: domain.CartStatusOpen}
	}
	r.s.mu.Unlock()
	return r.GetOpen(ctx, chatID)
}

func (r CartRepo) GetByID(_ context.Context, id int64) (*domain.Cart, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.Carts[id]
	if !ok {
		return nil, fmt.Errorf("cart %d: %w", id, domain.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (r CartRepo) SetStatus(_ context.Context, id int64, status domain.CartStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.Carts[id].Status = status
	return nil
}

func (r CartRepo) AddItem(_ context.Context, item *domain.CartItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item.ID = r.s.next()
	cp := *item
	r.s.Items[item.ID] = &cp
	return nil
}

func (r CartRepo) RemoveItem(_ context.Context, chatID, itemID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.Items[itemID]
	if !ok || it.ChatID != chatID {
		return false, nil
	}
	delete(r.s.Items, itemID)
	return true, nil
}

func (r CartRepo) ListItems(_ context.Context, cartID int64) ([]domain.CartItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.CartItem
	for _, it := range r.s.Items {
		if it.CartID == cartID {
			out = append(out, *it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r CartRepo) ClearItems(_ context.Context, cartID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, it := range r.s.Items {
		if it.CartID == cartID {
			delete(r.s.Items, id)
		}
	}
	return nil
}

// --- invoices ---

type InvoiceRepo struct{ s *Store }

func (r InvoiceRepo) Create(_ context.Context, m *domain.InvoiceMapping) error {
	if err := m.Validate(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.Invoices[m.InvoiceID]; exists {
		return fmt.Errorf("duplicate invoice %s", m.InvoiceID)
	}
	cp := *m
	r.s.Invoices[m.InvoiceID] = &cp
	return nil
}

func (r InvoiceRepo) GetByID(_ context.Context, id string) (*domain.InvoiceMapping, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.Invoices[id]
	if !ok {
		return nil, fmt.Errorf("invoice %s: %w", id, domain.ErrUnknownInvoice)
	}
	cp := *m
	return &cp, nil
}

// --- collaborators ---

// Gateway платёжный шлюз: инвойсы IV1, IV2..., Err заставляет CreateInvoice падать
type Gateway struct {
	mu       sync.Mutex
	Err      error
	seq      int
	Requests []domain.CreateInvoiceRequest
	Statuses map[string]domain.InvoiceStatus
}

func (g *Gateway) SetStatus(invoiceID string, status domain.InvoiceStatus) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Statuses == nil {
		g.Statuses = make(map[string]domain.InvoiceStatus)
	}
	g.Statuses[invoiceID] = status
}

func (g *Gateway) CreateInvoice(_ context.Context, req domain.CreateInvoiceRequest) (*domain.InvoiceResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Requests = append(g.Requests, req)
	if g.Err != nil {
		return nil, &domain.GatewayError{Op: "createInvoice", Err: g.Err}
	}
	g.seq++
	id := fmt.Sprintf("IV%d", g.seq)
	return &domain.InvoiceResult{
		InvoiceID: id,
		PayURL:    "https://pay.example/" + id,
		Raw:       domain.RawPayload(`{"ok":true}`),
	}, nil
}

func (g *Gateway) GetInvoiceStatus(_ context.Context, id string) (domain.InvoiceStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if st, ok := g.Statuses[id]; ok {
		return st, nil
	}
	return domain.InvoiceStatusActive, nil
}

type Notifier struct {
	mu        sync.Mutex
	Paid      [][]int64
	Cancelled []int64
}

func (n *Notifier) NotifyOrdersPaid(_ context.Context, _ int64, orders []domain.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Paid = append(n.Paid, domain.OrderIDs(orders))
	return nil
}

func (n *Notifier) NotifyOrderCancelled(_ context.Context, order domain.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Cancelled = append(n.Cancelled, order.ID)
	return nil
}

type Publisher struct {
	Events []domain.OrderPaidEvent
}

func (p *Publisher) PublishOrderPaid(_ context.Context, event domain.OrderPaidEvent) error {
	p.Events = append(p.Events, event)
	return nil
}

type Alerter struct {
	mu     sync.Mutex
	Alerts []string
}

func (a *Alerter) SendAlert(_ context.Context, message string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Alerts = append(a.Alerts, message)
	return nil
}

// Sent копия отправленных алертов
func (a *Alerter) Sent() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.Alerts...)
}

// FixedRates курсы asset -> USD
type FixedRates map[string]decimal.Decimal

func (f FixedRates) Rate(_ context.Context, asset, _ string) (decimal.Decimal, error) {
	r, ok := f[asset]
	if !ok {
		return decimal.Zero, fmt.Errorf("no rate for %s", asset)
	}
	return r, nil
}
