package cartRepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/N1seb/Render/internal/domain"
	"github.com/N1seb/Render/internal/ports/persistence"
	ports "github.com/N1seb/Render/internal/ports/repository"
)

const (
	cartsTable     = "carts"
	cartItemsTable = "cart_items"

	cartColumns     = "id, chat_id, status, created_at, updated_at"
	cartItemColumns = "id, cart_id, chat_id, network, service, quantity, link, price_usd, created_at"
)

type Repository struct {
	db  persistence.Persistence
	Log *slog.Logger
}

// New создаёт репозиторий корзин
func New(db persistence.Persistence, log *slog.Logger) ports.ICartRepo {
	return &Repository{db: db, Log: log}
}

// GetOpen открытая корзина пользователя
func (r *Repository) GetOpen(ctx context.Context, chatID int64) (*domain.Cart, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE chat_id = $1 AND status = $2`, cartColumns, cartsTable)

	var cart domain.Cart
	err := r.db.Conn(ctx).Get(ctx, &cart, query, chatID, string(domain.CartStatusOpen))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("open cart for %d: %w", chatID, domain.ErrNotFound)
		}
		r.Log.Error("failed to get open cart", "error", err, "chat_id", chatID)
		return nil, fmt.Errorf("failed to get open cart: %w", err)
	}
	return &cart, nil
}

// GetOrCreateOpen открытая корзина, создаётся при первом добавлении.
// Гонку двух вставок разрешает частичный уникальный индекс
func (r *Repository) GetOrCreateOpen(ctx context.Context, chatID int64) (*domain.Cart, error) {
	insert := fmt.Sprintf(`INSERT INTO %s (chat_id, status) VALUES ($1, $2) ON CONFLICT DO NOTHING`, cartsTable)
	if err := r.db.Conn(ctx).Exec(ctx, insert, chatID, string(domain.CartStatusOpen)); err != nil {
		r.Log.Error("failed to create cart", "error", err, "chat_id", chatID)
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}

	return r.GetOpen(ctx, chatID)
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Cart, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, cartColumns, cartsTable)

	var cart domain.Cart
	err := r.db.Conn(ctx).Get(ctx, &cart, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.Log.Warn("cart not found", "cart_id", id)
			return nil, fmt.Errorf("cart %d: %w", id, domain.ErrNotFound)
		}
		r.Log.Error("failed to get cart", "error", err, "cart_id", id)
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return &cart, nil
}

func (r *Repository) SetStatus(ctx context.Context, id int64, status domain.CartStatus) error {
	query := fmt.Sprintf(`UPDATE %s SET status = $1, updated_at = NOW() WHERE id = $2`, cartsTable)
	if err := r.db.Conn(ctx).Exec(ctx, query, string(status), id); err != nil {
		r.Log.Error("failed to set cart status", "error", err, "cart_id", id, "status", status)
		return fmt.Errorf("failed to set cart status: %w", err)
	}

	r.Log.Debug("cart status updated", "cart_id", id, "status", status)
	return nil
}

func (r *Repository) AddItem(ctx context.Context, item *domain.CartItem) error {
	query := fmt.Sprintf(`INSERT INTO %s (cart_id, chat_id, network, service, quantity, link, price_usd)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at`, cartItemsTable)

	err := r.db.Conn(ctx).QueryRow(ctx, query,
		item.CartID,
		item.ChatID,
		string(item.Network),
		string(item.Service),
		item.Quantity,
		item.Link,
		item.PriceUSD,
	).Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		r.Log.Error("failed to add cart item", "error", err, "cart_id", item.CartID)
		return fmt.Errorf("failed to add cart item: %w", err)
	}

	r.Log.Debug("cart item added", "cart_id", item.CartID, "item_id", item.ID)
	return nil
}

// RemoveItem удаляет позицию из открытой корзины пользователя
func (r *Repository) RemoveItem(ctx context.Context, chatID, itemID int64) (bool, error) {
	query := fmt.Sprintf(`DELETE FROM %s i USING %s c
		WHERE i.id = $1 AND i.cart_id = c.id AND c.chat_id = $2 AND c.status = $3`,
		cartItemsTable, cartsTable)

	affected, err := r.db.Conn(ctx).ExecWithResult(ctx, query, itemID, chatID, string(domain.CartStatusOpen))
	if err != nil {
		r.Log.Error("failed to remove cart item", "error", err, "item_id", itemID)
		return false, fmt.Errorf("failed to remove cart item: %w", err)
	}
	return affected > 0, nil
}

func (r *Repository) ListItems(ctx context.Context, cartID int64) ([]domain.CartItem, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE cart_id = $1 ORDER BY id`, cartItemColumns, cartItemsTable)

	var items []domain.CartItem
	if err := r.db.Conn(ctx).Select(ctx, &items, query, cartID); err != nil {
		r.Log.Error("failed to list cart items", "error", err, "cart_id", cartID)
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	return items, nil
}

func (r *Repository) ClearItems(ctx context.Context, cartID int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE cart_id = $1`, cartItemsTable)
	if err := r.db.Conn(ctx).Exec(ctx, query, cartID); err != nil {
		r.Log.Error("failed to clear cart", "error", err, "cart_id", cartID)
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
