package supportRepo

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

const (
	requestsTable = "support_requests"
	messagesTable = "support_messages"

	requestColumns = "id, chat_id, text, status, created_at, updated_at"
	messageColumns = "id, request_id, from_chat_id, to_chat_id, direction, kind, text, file_id, created_at"
)

type Repository struct {
	db  persistence.Persistence
	Log *slog.Logger
}

// New создаёт репозиторий обращений в поддержку
func New(db persistence.Persistence, log *slog.Logger) ports.ISupportRepo {
	return &Repository{db: db, Log: log}
}

func (r *Repository) CreateRequest(ctx context.Context, request *domain.SupportRequest) error {
	if request.Status == "" {
		request.Status = domain.SupportStatusOpen
	}

	query := fmt.Sprintf(`INSERT INTO %s (chat_id, text, status) VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`, requestsTable)

	err := r.db.Conn(ctx).QueryRow(ctx, query, request.ChatID, request.Text, string(request.Status)).
		Scan(&request.ID, &request.CreatedAt, &request.UpdatedAt)
	if err != nil {
		r.Log.Error("failed to create support request", "error", err, "chat_id", request.ChatID)
		return fmt.Errorf("failed to create support request: %w", err)
	}

	r.Log.Debug("support request created", "request_id", request.ID, "chat_id", request.ChatID)
	return nil
}

func (r *Repository) GetRequest(ctx context.Context, id int64) (*domain.SupportRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, requestColumns, requestsTable)
	return r.getRequest(ctx, query, id)
}

// GetOpenByChat последнее открытое обращение пользователя
func (r *Repository) GetOpenByChat(ctx context.Context, chatID int64) (*domain.SupportRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE chat_id = $1 AND status = $2 ORDER BY id DESC LIMIT 1`,
		requestColumns, requestsTable)
	return r.getRequest(ctx, query, chatID, string(domain.SupportStatusOpen))
}

func (r *Repository) getRequest(ctx context.Context, query string, args ...interface{}) (*domain.SupportRequest, error) {
	var request domain.SupportRequest
	err := r.db.Conn(ctx).Get(ctx, &request, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("support request: %w", domain.ErrNotFound)
		}
		r.Log.Error("failed to get support request", "error", err)
		return nil, fmt.Errorf("failed to get support request: %w", err)
	}
	return &request, nil
}

func (r *Repository) Close(ctx context.Context, id int64) (bool, error) {
	query := fmt.Sprintf(`UPDATE %s SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`, requestsTable)

	affected, err := r.db.Conn(ctx).ExecWithResult(ctx, query,
		string(domain.SupportStatusClosed), id, string(domain.SupportStatusOpen))
	if err != nil {
		r.Log.Error("failed to close support request", "error", err, "request_id", id)
		return false, fmt.Errorf("failed to close support request: %w", err)
	}
	return affected > 0, nil
}

// ListOpen страница открытых обращений и их общее количество
func (r *Repository) ListOpen(ctx context.Context, offset, limit int) ([]domain.SupportRequest, int, error) {
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE status = $1`, requestsTable)

	var total int
	if err := r.db.Conn(ctx).Get(ctx, &total, countQuery, string(domain.SupportStatusOpen)); err != nil {
		r.Log.Error("failed to count open support requests", "error", err)
		return nil, 0, fmt.Errorf("failed to count open support requests: %w", err)
	}
	if total == 0 {
		return nil, 0, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE status = $1 ORDER BY id LIMIT $2 OFFSET $3`,
		requestColumns, requestsTable)

	var requests []domain.SupportRequest
	if err := r.db.Conn(ctx).Select(ctx, &requests, query, string(domain.SupportStatusOpen), limit, offset); err != nil {
		r.Log.Error("failed to list open support requests", "error", err)
		return nil, 0, fmt.Errorf("failed to list open support requests: %w", err)
	}
	return requests, total, nil
}

func (r *Repository) AddMessage(ctx context.Context, message *domain.SupportMessage) error {
	if message.Kind == "" {
		message.Kind = domain.MessageKindText
	}

	query := fmt.Sprintf(`INSERT INTO %s (request_id, from_chat_id, to_chat_id, direction, kind, text, file_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at`, messagesTable)

	err := r.db.Conn(ctx).QueryRow(ctx, query,
		message.RequestID,
		message.FromChatID,
		message.ToChatID,
		string(message.Direction),
		string(message.Kind),
		message.Text,
		message.FileID,
	).Scan(&message.ID, &message.CreatedAt)
	if err != nil {
		r.Log.Error("failed to add support message", "error", err, "request_id", message.RequestID)
		return fmt.Errorf("failed to add support message: %w", err)
	}
	return nil
}

func (r *Repository) ListMessages(ctx context.Context, requestID int64) ([]domain.SupportMessage, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE request_id = $1 ORDER BY id`, messageColumns, messagesTable)

	var messages []domain.SupportMessage
	if err := r.db.Conn(ctx).Select(ctx, &messages, query, requestID); err != nil {
		r.Log.Error("failed to list support messages", "error", err, "request_id", requestID)
		return nil, fmt.Errorf("failed to list support messages: %w", err)
	}
	return messages, nil
}
