package telegram

import (
	"log/slog"

	"github.com/N1seb/Render/internal/ports/service"
	"github.com/N1seb/Render/internal/ports/telegram"
	"github.com/N1seb/Render/internal/usecases/session"
)

// Service роутер апдейтов чата: фильтрует, сериализует по чату и передаёт в бизнес-логику бота
type Service struct {
	Bot      service.IBotService
	Sessions *session.Manager
	Gateway  telegram.IChatGateway
	Log      *slog.Logger
}

func New(
	bot service.IBotService,
	sessions *session.Manager,
	gateway telegram.IChatGateway,
	log *slog.Logger,
) *Service {
	return &Service{
		Bot:      bot,
		Sessions: sessions,
		Gateway:  gateway,
		Log:      log.With("component", "telegram_router"),
	}
}
