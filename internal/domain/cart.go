package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartStatus статус корзины
type CartStatus string

const (
	CartStatusOpen      CartStatus = "open"
	CartStatusPaid      CartStatus = "paid"
	CartStatusCancelled CartStatus = "cancelled"
)

// Cart корзина пользователя. Открытая корзина у пользователя одна
type Cart struct {
	ID        int64      `json:"id" db:"id"`
	ChatID    int64      `json:"chat_id" db:"chat_id"`
	Status    CartStatus `json:"status" db:"status"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// CartItem позиция корзины, не изменяется после создания
type CartItem struct {
	ID        int64           `json:"id" db:"id"`
	CartID    int64           `json:"cart_id" db:"cart_id"`
	ChatID    int64           `json:"chat_id" db:"chat_id"`
	Network   Network         `json:"network" db:"network"`
	Service   ServiceKey      `json:"service" db:"service"`
	Quantity  int64           `json:"quantity" db:"quantity"`
	Link      string          `json:"link" db:"link"`
	PriceUSD  decimal.Decimal `json:"price_usd" db:"price_usd"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// CartTotal сумма позиций корзины
func CartTotal(items []CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.PriceUSD)
	}
	return total
}

// ToOrder снимок позиции корзины в заказ
func (i CartItem) ToOrder(cartID int64) Order {
	return Order{
		ChatID:   i.ChatID,
		Network:  i.Network,
		Service:  i.Service,
		Quantity: i.Quantity,
		PriceUSD: i.PriceUSD,
		Link:     i.Link,
		Status:   OrderStatusAwaitingPayment,
		CartID:   &cartID,
	}
}

// DeriveCartStatus статус корзины по её заказам: paid только когда оплачены все
func DeriveCartStatus(current CartStatus, orders []Order) CartStatus {
	if current == CartStatusCancelled || len(orders) == 0 {
		return current
	}
	for _, o := range orders {
		if o.Status != OrderStatusPaid {
			return current
		}
	}
	return CartStatusPaid
}
