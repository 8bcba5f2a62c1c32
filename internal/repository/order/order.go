package orderRepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/N1seb/Render/internal/domain"
	"github.com/N1seb/Render/internal/ports/persistence"
	ports "github.com/N1seb/Render/internal/ports/repository"
)

type orderColumns struct {
	TableName string
	ID        string
	ChatID    string
	Network   string
	Service   string
	Quantity  string
	PriceUSD  string
	Asset     string
	Link      string
	Status    string
	InvoiceID string
	PayURL    string
	CartID    string
	CreatedAt string
	UpdatedAt string
}

type Repository struct {
	db      persistence.Persistence
	Log     *slog.Logger
	columns orderColumns
}

// New создаёт репозиторий заказов
func New(db persistence.Persistence, log *slog.Logger) ports.IOrderRepo {
	return &Repository{
		db:  db,
		Log: log,
		columns: orderColumns{
			TableName: "orders",
			ID:        "id",
			ChatID:    "chat_id",
			Network:   "network",
			Service:   "service",
			Quantity:  "quantity",
			PriceUSD:  "price_usd",
			Asset:     "asset",
			Link:      "link",
			Status:    "status",
			InvoiceID: "invoice_id",
			PayURL:    "pay_url",
			CartID:    "cart_id",
			CreatedAt: "created_at",
			UpdatedAt: "updated_at",
		},
	}
}

// allColumns все колонки (14 полей)
func (r *Repository) allColumns() string {
	return strings.Join([]string{
		r.columns.ID,
		r.columns.ChatID,
		r.columns.Network,
		r.columns.Service,
		r.columns.Quantity,
		r.columns.PriceUSD,
		r.columns.Asset,
		r.columns.Link,
		r.columns.Status,
		r.columns.InvoiceID,
		r.columns.PayURL,
		r.columns.CartID,
		r.columns.CreatedAt,
		r.columns.UpdatedAt,
	}, ", ")
}

// Create вставляет заказ в статусе awaiting_payment, заполняет ID и даты
func (r *Repository) Create(ctx context.Context, order *domain.Order) error {
	if order.Status == "" {
		order.Status = domain.OrderStatusAwaitingPayment
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING %s, %s, %s`,
		r.columns.TableName,
		r.columns.ChatID,
		r.columns.Network,
		r.columns.Service,
		r.columns.Quantity,
		r.columns.PriceUSD,
		r.columns.Asset,
		r.columns.Link,
		r.columns.Status,
		r.columns.CartID,
		r.columns.ID,
		r.columns.CreatedAt,
		r.columns.UpdatedAt,
	)

	err := r.db.Conn(ctx).QueryRow(ctx, query,
		order.ChatID,
		string(order.Network),
		string(order.Service),
		order.Quantity,
		order.PriceUSD,
		order.Asset,
		order.Link,
		string(order.Status),
		order.CartID,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		r.Log.Error("failed to create order",
			"error", err,
			"chat_id", order.ChatID,
		)
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.Log.Debug("order created",
		"order_id", order.ID,
		"chat_id", order.ChatID,
		"price_usd", order.PriceUSD.StringFixed(2),
	)
	return nil
}

// GetByID получает заказ по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.ID,
	)

	var order domain.Order
	err := r.db.Conn(ctx).Get(ctx, &order, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.Log.Warn("order not found", "order_id", id)
			return nil, fmt.Errorf("order %d: %w", id, domain.ErrNotFound)
		}
		r.Log.Error("failed to get order",
			"error", err,
			"order_id", id,
		)
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return &order, nil
}

// ListByIDs заказы по списку ID в порядке возрастания
func (r *Repository) ListByIDs(ctx context.Context, ids []int64) ([]domain.Order, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ANY($1::bigint[]) ORDER BY %s`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.ID,
		r.columns.ID,
	)

	return r.selectOrders(ctx, "list orders by ids", query, int64Array(ids))
}

// ListByChat последние заказы пользователя
func (r *Repository) ListByChat(ctx context.Context, chatID int64, limit int) ([]domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY %s DESC LIMIT $2`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.ChatID,
		r.columns.ID,
	)

	return r.selectOrders(ctx, "list orders by chat", query, chatID, limit)
}

// ListByCart заказы, созданные из корзины
func (r *Repository) ListByCart(ctx context.Context, cartID int64) ([]domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY %s`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.CartID,
		r.columns.ID,
	)

	return r.selectOrders(ctx, "list orders by cart", query, cartID)
}

// ListUninvoicedByCart заказы корзины без инвойса, оставшиеся после ошибки шлюза
func (r *Repository) ListUninvoicedByCart(ctx context.Context, cartID int64) ([]domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s IS NULL AND %s = $2 ORDER BY %s`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.CartID,
		r.columns.InvoiceID,
		r.columns.Status,
		r.columns.ID,
	)

	return r.selectOrders(ctx, "list uninvoiced cart orders", query, cartID, string(domain.OrderStatusAwaitingPayment))
}

// ListRecent последние заказы всех пользователей (для админки)
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY %s DESC LIMIT $1`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.ID,
	)

	return r.selectOrders(ctx, "list recent orders", query, limit)
}

// ListStaleAwaiting заказы с инвойсом, не обновлявшиеся с olderThan
func (r *Repository) ListStaleAwaiting(ctx context.Context, olderThan time.Time, limit int) ([]domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s
		WHERE %s = $1 AND %s IS NOT NULL AND %s < $2
		ORDER BY %s LIMIT $3`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.Status,
		r.columns.InvoiceID,
		r.columns.UpdatedAt,
		r.columns.UpdatedAt,
	)

	return r.selectOrders(ctx, "list stale awaiting orders", query,
		string(domain.OrderStatusAwaitingPayment), olderThan, limit)
}

// AttachInvoice записывает инвойс на заказы, которые ещё ждут оплату
func (r *Repository) AttachInvoice(ctx context.Context, ids []int64, invoiceID, payURL, asset string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $1, %s = $2, %s = $3, %s = NOW()
		WHERE %s = ANY($4::bigint[]) AND %s = $5`,
		r.columns.TableName,
		r.columns.InvoiceID,
		r.columns.PayURL,
		r.columns.Asset,
		r.columns.UpdatedAt,
		r.columns.ID,
		r.columns.Status,
	)

	affected, err := r.db.Conn(ctx).ExecWithResult(ctx, query,
		invoiceID, payURL, asset, int64Array(ids), string(domain.OrderStatusAwaitingPayment))
	if err != nil {
		r.Log.Error("failed to attach invoice",
			"error", err,
			"invoice_id", invoiceID,
			"order_ids", ids,
		)
		return fmt.Errorf("failed to attach invoice: %w", err)
	}
	if affected != int64(len(ids)) {
		r.Log.Warn("invoice attached to fewer orders than requested",
			"invoice_id", invoiceID,
			"requested", len(ids),
			"affected", affected,
		)
		return fmt.Errorf("attach invoice %s: %d of %d orders are awaiting payment: %w",
			invoiceID, affected, len(ids), domain.ErrInvalidTransition)
	}

	r.Log.Debug("invoice attached", "invoice_id", invoiceID, "order_ids", ids)
	return nil
}

// MarkPaid переводит заказы из awaiting_payment в paid. Уже оплаченные и отменённые
// не трогает, поэтому повторный вызов ничего не меняет
func (r *Repository) MarkPaid(ctx context.Context, ids []int64) ([]domain.Order, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`UPDATE %s SET %s = $1, %s = NOW()
		WHERE %s = ANY($2::bigint[]) AND %s = $3
		RETURNING %s`,
		r.columns.TableName,
		r.columns.Status,
		r.columns.UpdatedAt,
		r.columns.ID,
		r.columns.Status,
		r.allColumns(),
	)

	orders, err := r.selectOrders(ctx, "mark orders paid", query,
		string(domain.OrderStatusPaid), int64Array(ids), string(domain.OrderStatusAwaitingPayment))
	if err != nil {
		return nil, err
	}

	r.Log.Debug("orders marked paid", "requested", len(ids), "transitioned", len(orders))
	return orders, nil
}

// Cancel отменяет заказ, только если он ещё ждёт оплату
func (r *Repository) Cancel(ctx context.Context, id int64) (bool, error) {
	query := fmt.Sprintf(`UPDATE %s SET %s = $1, %s = NOW() WHERE %s = $2 AND %s = $3`,
		r.columns.TableName,
		r.columns.Status,
		r.columns.UpdatedAt,
		r.columns.ID,
		r.columns.Status,
	)

	affected, err := r.db.Conn(ctx).ExecWithResult(ctx, query,
		string(domain.OrderStatusCancelled), id, string(domain.OrderStatusAwaitingPayment))
	if err != nil {
		r.Log.Error("failed to cancel order",
			"error", err,
			"order_id", id,
		)
		return false, fmt.Errorf("failed to cancel order: %w", err)
	}

	r.Log.Debug("order cancel executed", "order_id", id, "affected", affected)
	return affected > 0, nil
}

func (r *Repository) selectOrders(ctx context.Context, op, query string, args ...interface{}) ([]domain.Order, error) {
	var orders []domain.Order
	if err := r.db.Conn(ctx).Select(ctx, &orders, query, args...); err != nil {
		r.Log.Error("failed to "+op, "error", err)
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return orders, nil
}

// int64Array литерал массива postgres: {1,2,3}
func int64Array(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return "{" + strings.Join(parts, ",") + "}"
}
