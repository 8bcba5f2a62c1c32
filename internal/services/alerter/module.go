package alerter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/N1seb/Render/internal/adapters/secondary/alerter"
	"github.com/N1seb/Render/internal/ports/service"
	"github.com/N1seb/Render/internal/ports/telegram"
)

const alertPrefix = "⚠️ "

// Service реализует IAlerterService. Без отдельного чата алерты уходят админам в личку
type Service struct {
	client   *alerter.Client
	gateway  telegram.IChatGateway
	adminIDs []int64
	log      *slog.Logger
}

// New создаёт новый сервис для отправки алертов
func New(client *alerter.Client, gateway telegram.IChatGateway, adminIDs []int64, log *slog.Logger) service.IAlerterService {
	return &Service{
		client:   client,
		gateway:  gateway,
		adminIDs: adminIDs,
		log:      log.With("component", "alerter"),
	}
}

// SendAlert отправляет алерт
func (s *Service) SendAlert(ctx context.Context, message string) error {
	if s.client != nil {
		return s.client.SendAlert(ctx, alertPrefix+message)
	}

	if s.gateway == nil || len(s.adminIDs) == 0 {
		s.log.Warn("alert dropped: no alert destination configured", "message", message)
		return fmt.Errorf("alerter is not configured")
	}

	var errs []error
	for _, adminID := range s.adminIDs {
		if _, err := s.gateway.SendMessage(ctx, adminID, alertPrefix+message); err != nil {
			errs = append(errs, fmt.Errorf("admin %d: %w", adminID, err))
		}
	}
	return errors.Join(errs...)
}
