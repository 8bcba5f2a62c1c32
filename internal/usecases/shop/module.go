package shop

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/N1seb/Render/internal/domain"
	"github.com/N1seb/Render/internal/ports/repository"
	"github.com/N1seb/Render/internal/ports/service"
	"github.com/N1seb/Render/internal/ports/telegram"
	"github.com/N1seb/Render/internal/usecases/admin"
	"github.com/N1seb/Render/internal/usecases/orders"
	"github.com/N1seb/Render/internal/usecases/session"
	"github.com/N1seb/Render/internal/usecases/support"
)

type Config struct {
	// SupportUsernames внешние аккаунты поддержки, показываются кнопками в меню
	SupportUsernames []string `envconfig:"SUPPORT_USERNAMES"`
	ProfileLimit     int      `envconfig:"PROFILE_LIMIT" default:"10"`
}

// Service диалог магазина: каталог, корзина, оплата, поддержка и команды админа
type Service struct {
	UserRepo repository.IUserRepo
	Orders   *orders.Service
	Support  *support.Service
	Admin    *admin.Service
	Sessions *session.Manager
	Gateway  telegram.IChatGateway
	QR       service.IPaymentQRService
	Log      *slog.Logger
	cfg      Config
}

func New(
	cfg Config,
	userRepo repository.IUserRepo,
	ordersService *orders.Service,
	supportService *support.Service,
	adminService *admin.Service,
	sessions *session.Manager,
	gateway telegram.IChatGateway,
	qr service.IPaymentQRService,
	log *slog.Logger,
) *Service {
	if cfg.ProfileLimit <= 0 {
		cfg.ProfileLimit = 10
	}

	return &Service{
		UserRepo: userRepo,
		Orders:   ordersService,
		Support:  supportService,
		Admin:    adminService,
		Sessions: sessions,
		Gateway:  gateway,
		QR:       qr,
		Log:      log.With("component", "shop"),
		cfg:      cfg,
	}
}

// GetOrCreateUser создаёт пользователя при первом обращении и обновляет имя при следующих
func (s *Service) GetOrCreateUser(ctx context.Context, tgUser *domain.TelegramUser, chat *domain.Chat) (*domain.User, error) {
	user := domain.UserFromTelegram(tgUser, chat)
	if user.ChatID == 0 {
		return nil, fmt.Errorf("update has no chat")
	}

	stored, err := s.UserRepo.Upsert(ctx, user)
	if err != nil {
		s.Log.Error("failed to upsert user", "error", err, "chat_id", user.ChatID)
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return stored, nil
}
