package support

import (
	"context"
	"errors"
	"log/slog"

	"github.com/N1seb/Render/internal/domain"
	"github.com/N1seb/Render/internal/ports/repository"
	"github.com/N1seb/Render/internal/ports/telegram"
)

var ErrRequestClosed = errors.New("support request is closed")

type Config struct {
	PageSize int `envconfig:"PAGE_SIZE" default:"5"`
}

// Service обращения в поддержку: переписка пользователя с операторами
type Service struct {
	SupportRepo  repository.ISupportRepo
	OperatorRepo repository.IOperatorRepo
	Gateway      telegram.IChatGateway
	Log          *slog.Logger

	adminIDs []int64
	pageSize int
}

func New(
	cfg Config,
	supportRepo repository.ISupportRepo,
	operatorRepo repository.IOperatorRepo,
	gateway telegram.IChatGateway,
	adminIDs []int64,
	log *slog.Logger,
) *Service {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 5
	}

	return &Service{
		SupportRepo:  supportRepo,
		OperatorRepo: operatorRepo,
		Gateway:      gateway,
		Log:          log.With("component", "support"),
		adminIDs:     adminIDs,
		pageSize:     cfg.PageSize,
	}
}

// Message сообщение в обращении: текст и, возможно, вложение по file_id
type Message struct {
	ChatID int64
	From   string
	Text   string
	Kind   domain.MessageKind
	FileID string
}

func (m Message) kind() domain.MessageKind {
	if m.Kind == "" {
		return domain.MessageKindText
	}
	return m.Kind
}

func (m Message) hasAttachment() bool {
	return m.kind() != domain.MessageKindText && m.FileID != ""
}

// IsOperator админы всегда операторы
func (s *Service) IsOperator(ctx context.Context, chatID int64) (bool, error) {
	for _, id := range s.adminIDs {
		if id == chatID {
			return true, nil
		}
	}
	return s.OperatorRepo.Exists(ctx, chatID)
}

// OperatorChatIDs получатели рассылки: операторы и админы без повторов
func (s *Service) OperatorChatIDs(ctx context.Context) ([]int64, error) {
	operators, err := s.OperatorRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]struct{}, len(operators)+len(s.adminIDs))
	ids := make([]int64, 0, len(operators)+len(s.adminIDs))
	add := func(id int64) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, op := range operators {
		add(op.ChatID)
	}
	for _, id := range s.adminIDs {
		add(id)
	}
	return ids, nil
}

func (s *Service) requireOperator(ctx context.Context, chatID int64) error {
	ok, err := s.IsOperator(ctx, chatID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrForbidden
	}
	return nil
}
