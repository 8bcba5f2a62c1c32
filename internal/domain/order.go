package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus статус заказа
type OrderStatus string

const (
	OrderStatusAwaitingPayment OrderStatus = "awaiting_payment" // создан, ждёт оплаты
	OrderStatusPaid            OrderStatus = "paid"             // оплачен, терминальный
	OrderStatusCancelled       OrderStatus = "cancelled"        // отменён, терминальный
)

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusPaid || s == OrderStatusCancelled
}

// Order единица выполнения и учёта оплаты
type Order struct {
	ID        int64           `json:"id" db:"id"`
	ChatID    int64           `json:"chat_id" db:"chat_id"`
	Network   Network         `json:"network" db:"network"`
	Service   ServiceKey      `json:"service" db:"service"`
	Quantity  int64           `json:"quantity" db:"quantity"`
	PriceUSD  decimal.Decimal `json:"price_usd" db:"price_usd"`
	Asset     *string         `json:"asset,omitempty" db:"asset"`
	Link      string          `json:"link" db:"link"`
	Status    OrderStatus     `json:"status" db:"status"`
	InvoiceID *string         `json:"invoice_id,omitempty" db:"invoice_id"`
	PayURL    *string         `json:"pay_url,omitempty" db:"pay_url"`
	CartID    *int64          `json:"cart_id,omitempty" db:"cart_id"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// CanTransition проверяет переход статуса. Из терминальных статусов переходов нет
func (o *Order) CanTransition(to OrderStatus) error {
	if o.Status != OrderStatusAwaitingPayment {
		return ErrInvalidTransition
	}
	if to != OrderStatusPaid && to != OrderStatusCancelled {
		return ErrInvalidTransition
	}
	return nil
}

func (o *Order) HasInvoice() bool {
	return o.InvoiceID != nil && *o.InvoiceID != ""
}

// OrderIDs собирает id заказов
func OrderIDs(orders []Order) []int64 {
	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	return ids
}

// SumPrices сумма цен заказов в USD
func SumPrices(orders []Order) decimal.Decimal {
	total := decimal.Zero
	for _, o := range orders {
		total = total.Add(o.PriceUSD)
	}
	return total
}

// OrderPaidEvent событие об оплаченном заказе для очереди выполнения
type OrderPaidEvent struct {
	OrderID   int64      `json:"order_id"`
	ChatID    int64      `json:"chat_id"`
	Network   Network    `json:"network"`
	Service   ServiceKey `json:"service"`
	Quantity  int64      `json:"quantity"`
	Link      string     `json:"link"`
	PriceUSD  string     `json:"price_usd"`
	InvoiceID string     `json:"invoice_id"`
	PaidAt    time.Time  `json:"paid_at"`
}

func NewOrderPaidEvent(o Order, invoiceID string, paidAt time.Time) OrderPaidEvent {
	return OrderPaidEvent{
		OrderID:   o.ID,
		ChatID:    o.ChatID,
		Network:   o.Network,
		Service:   o.Service,
		Quantity:  o.Quantity,
		Link:      o.Link,
		PriceUSD:  o.PriceUSD.StringFixed(2),
		InvoiceID: invoiceID,
		PaidAt:    paidAt,
	}
}
