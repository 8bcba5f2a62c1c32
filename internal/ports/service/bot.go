package service

import (
	"context"

	"github.com/N1seb/Render/internal/domain"
)

// IBotService бизнес-логика бота. Вызывается под блокировкой чата
type IBotService interface {
	GetOrCreateUser(ctx context.Context, tgUser *domain.TelegramUser, chat *domain.Chat) (*domain.User, error)
	HandleCommand(ctx context.Context, user *domain.User, command, args string) error
	HandleMessage(ctx context.Context, user *domain.User, message *domain.Message) error
	HandleCallback(ctx context.Context, user *domain.User, callback *domain.CallbackQuery) error
}
