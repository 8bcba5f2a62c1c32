package repository

import (
	"context"

	"github.com/N1seb/Render/internal/domain"
)

type IUserRepo interface {
	// Upsert создаёт пользователя или обновляет имя, возвращает актуальную запись
	Upsert(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByChatID(ctx context.Context, chatID int64) (*domain.User, error)
}
