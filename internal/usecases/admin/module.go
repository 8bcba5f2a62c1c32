package admin

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/N1seb/Render/internal/domain"
	"github.com/N1seb/Render/internal/ports/repository"
	"github.com/N1seb/Render/internal/usecases/orders"
)

type Config struct {
	// AdminIDs чаты администраторов через запятую
	AdminIDs        []int64 `envconfig:"IDS"`
	RecentOrdersMax int     `envconfig:"RECENT_ORDERS_MAX" default:"50"`
	// HTTPToken секрет заголовка X-Admin-Token для /admin. Пустой выключает HTTP админку
	HTTPToken       string  `envconfig:"HTTP_TOKEN"`
}

// Service действия администратора. Каждое действие сначала проверяет allow-list
type Service struct {
	OperatorRepo repository.IOperatorRepo
	UserRepo     repository.IUserRepo
	Orders       *orders.Service
	Log          *slog.Logger

	admins    map[int64]struct{}
	adminIDs  []int64
	recentMax int
}

func New(cfg Config, operatorRepo repository.IOperatorRepo, userRepo repository.IUserRepo, ordersService *orders.Service, log *slog.Logger) *Service {
	if cfg.RecentOrdersMax <= 0 {
		cfg.RecentOrdersMax = 50
	}

	admins := make(map[int64]struct{}, len(cfg.AdminIDs))
	for _, id := range cfg.AdminIDs {
		admins[id] = struct{}{}
	}

	return &Service{
		OperatorRepo: operatorRepo,
		UserRepo:     userRepo,
		Orders:       ordersService,
		Log:          log.With("component", "admin"),
		admins:       admins,
		adminIDs:     cfg.AdminIDs,
		recentMax:    cfg.RecentOrdersMax,
	}
}

func (s *Service) IsAdmin(chatID int64) bool {
	_, ok := s.admins[chatID]
	return ok
}

// AdminIDs копия allow-list
func (s *Service) AdminIDs() []int64 {
	return append([]int64(nil), s.adminIDs...)
}

func (s *Service) require(actorID int64, action string) error {
	if s.IsAdmin(actorID) {
		return nil
	}
	s.Log.Warn("admin action rejected", "actor_chat_id", actorID, "action", action)
	return fmt.Errorf("%s by %d: %w", action, actorID, domain.ErrForbidden)
}

// SeedOperators добавляет администраторов в операторы при старте
func (s *Service) SeedOperators(ctx context.Context) error {
	for _, id := range s.adminIDs {
		created, err := s.OperatorRepo.Add(ctx, &domain.Operator{ChatID: id, DisplayName: "admin"})
		if err != nil {
			return fmt.Errorf("seed operator %d: %w", id, err)
		}
		if created {
			s.Log.Info("admin seeded as operator", "chat_id", id)
		}
	}
	return nil
}
