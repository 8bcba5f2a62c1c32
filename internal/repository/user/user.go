package userRepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/N1seb/Render/internal/domain"
	"github.com/N1seb/Render/internal/ports/persistence"
	ports "github.com/N1seb/Render/internal/ports/repository"
)

type userColumns struct {
	TableName string
	ChatID    string
	Username  string
	FirstName string
	LastName  string
	CreatedAt string
}

type Repository struct {
	db      persistence.Persistence
	Log     *slog.Logger
	columns userColumns
}

// New создаёт репозиторий пользователей
func New(db persistence.Persistence, log *slog.Logger) ports.IUserRepo {
	return &Repository{
		db:  db,
		Log: log,
		columns: userColumns{
			TableName: "users",
			ChatID:    "chat_id",
			Username:  "username",
			FirstName: "first_name",
			LastName:  "last_name",
			CreatedAt: "created_at",
		},
	}
}

func (r *Repository) allColumns() string {
	return fmt.Sprintf("%s, %s, %s, %s, %s",
		r.columns.ChatID,
		r.columns.Username,
		r.columns.FirstName,
		r.columns.LastName,
		r.columns.CreatedAt,
	)
}

// Upsert создаёт пользователя при первом обращении, при повторных обновляет имя
func (r *Repository) Upsert(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := fmt.Sprintf(`INSERT INTO %[1]s (%[2]s, %[3]s, %[4]s, %[5]s) VALUES ($1, $2, $3, $4)
		ON CONFLICT (%[2]s) DO UPDATE SET
			%[3]s = COALESCE(EXCLUDED.%[3]s, %[1]s.%[3]s),
			%[4]s = COALESCE(EXCLUDED.%[4]s, %[1]s.%[4]s),
			%[5]s = COALESCE(EXCLUDED.%[5]s, %[1]s.%[5]s)
		RETURNING %[6]s`,
		r.columns.TableName,
		r.columns.ChatID,
		r.columns.Username,
		r.columns.FirstName,
		r.columns.LastName,
		r.allColumns(),
	)

	var saved domain.User
	err := r.db.Conn(ctx).Get(ctx, &saved, query, user.ChatID, user.Username, user.FirstName, user.LastName)
	if err != nil {
		r.Log.Error("failed to upsert user",
			"error", err,
			"chat_id", user.ChatID,
		)
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	r.Log.Debug("user upserted", "chat_id", saved.ChatID)
	return &saved, nil
}

// GetByChatID получает пользователя по chat_id
func (r *Repository) GetByChatID(ctx context.Context, chatID int64) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.ChatID,
	)

	var user domain.User
	err := r.db.Conn(ctx).Get(ctx, &user, query, chatID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.Log.Warn("user not found", "chat_id", chatID)
			return nil, fmt.Errorf("user %d: %w", chatID, domain.ErrNotFound)
		}
		r.Log.Error("failed to get user",
			"error", err,
			"chat_id", chatID,
		)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}
