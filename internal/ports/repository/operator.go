package repository

import (
	"context"

	"github.com/N1seb/Render/internal/domain"
)

type IOperatorRepo interface {
	// Add возвращает false, если оператор уже был
	Add(ctx context.Context, operator *domain.Operator) (bool, error)
	Remove(ctx context.Context, chatID int64) (bool, error)
	List(ctx context.Context) ([]domain.Operator, error)
	Exists(ctx context.Context, chatID int64) (bool, error)
}
