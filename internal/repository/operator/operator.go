package operatorRepo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/N1seb/Render/internal/domain"
	"github.com/N1seb/Render/internal/ports/persistence"
	ports "github.com/N1seb/Render/internal/ports/repository"
)

const operatorsTable = "operators"

type Repository struct {
	db  persistence.Persistence
	Log *slog.Logger
}

func New(db persistence.Persistence, log *slog.Logger) ports.IOperatorRepo {
	return &Repository{db: db, Log: log}
}

func (r *Repository) Add(ctx context.Context, operator *domain.Operator) (bool, error) {
	query := fmt.Sprintf(`INSERT INTO %s (chat_id, username, display_name) VALUES ($1, $2, $3)
		ON CONFLICT (chat_id) DO NOTHING`, operatorsTable)

	affected, err := r.db.Conn(ctx).ExecWithResult(ctx, query, operator.ChatID, operator.Username, operator.DisplayName)
	if err != nil {
		r.Log.Error("failed to add operator", "error", err, "chat_id", operator.ChatID)
		return false, fmt.Errorf("failed to add operator: %w", err)
	}

	r.Log.Debug("operator add executed", "chat_id", operator.ChatID, "created", affected > 0)
	return affected > 0, nil
}

func (r *Repository) Remove(ctx context.Context, chatID int64) (bool, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE chat_id = $1`, operatorsTable)

	affected, err := r.db.Conn(ctx).ExecWithResult(ctx, query, chatID)
	if err != nil {
		r.Log.Error("failed to remove operator", "error", err, "chat_id", chatID)
		return false, fmt.Errorf("failed to remove operator: %w", err)
	}
	return affected > 0, nil
}

func (r *Repository) List(ctx context.Context) ([]domain.Operator, error) {
	query := fmt.Sprintf(`SELECT chat_id, username, display_name, created_at FROM %s ORDER BY created_at`, operatorsTable)

	var operators []domain.Operator
	if err := r.db.Conn(ctx).Select(ctx, &operators, query); err != nil {
		r.Log.Error("failed to list operators", "error", err)
		return nil, fmt.Errorf("failed to list operators: %w", err)
	}
	return operators, nil
}

func (r *Repository) Exists(ctx context.Context, chatID int64) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE chat_id = $1)`, operatorsTable)

	var exists bool
	if err := r.db.Conn(ctx).Get(ctx, &exists, query, chatID); err != nil {
		r.Log.Error("failed to check operator", "error", err, "chat_id", chatID)
		return false, fmt.Errorf("failed to check operator: %w", err)
	}
	return exists, nil
}
