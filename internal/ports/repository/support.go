package repository

import (
	"context"

	"github.com/N1seb/Render/internal/domain"
)

type ISupportRepo interface {
	CreateRequest(ctx context.Context, request *domain.SupportRequest) error
	GetRequest(ctx context.Context, id int64) (*domain.SupportRequest, error)
	GetOpenByChat(ctx context.Context, chatID int64) (*domain.SupportRequest, error)
	// Close закрывает открытое обращение, false если оно уже закрыто
	Close(ctx context.Context, id int64) (bool, error)
	ListOpen(ctx context.Context, offset, limit int) ([]domain.SupportRequest, int, error)
	AddMessage(ctx context.Context, message *domain.SupportMessage) error
	ListMessages(ctx context.Context, requestID int64) ([]domain.SupportMessage, error)
}
