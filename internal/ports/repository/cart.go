package repository

import (
	"context"

	"github.com/N1seb/Render/internal/domain"
)

type ICartRepo interface {
	GetOpen(ctx context.Context, chatID int64) (*domain.Cart, error)
	GetOrCreateOpen(ctx context.Context, chatID int64) (*domain.Cart, error)
	GetByID(ctx context.Context, id int64) (*domain.Cart, error)
	SetStatus(ctx context.Context, id int64, status domain.CartStatus) error
	AddItem(ctx context.Context, item *domain.CartItem) error
	RemoveItem(ctx context.Context, chatID, itemID int64) (bool, error)
	ListItems(ctx context.Context, cartID int64) ([]domain.CartItem, error)
	ClearItems(ctx context.Context, cartID int64) error
}
