package webhookEventRepo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/N1seb/Render/internal/domain"
	"github.com/N1seb/Render/internal/ports/persistence"
	ports "github.com/N1seb/Render/internal/ports/repository"
)

const webhookEventsTable = "webhook_events"

type Repository struct {
	db  persistence.Persistence
	Log *slog.Logger
}

// New создаёт журнал входящих вебхуков
func New(db persistence.Persistence, log *slog.Logger) ports.IWebhookEventRepo {
	return &Repository{db: db, Log: log}
}

// Create сохраняет сырое тело вебхука до обработки
func (r *Repository) Create(ctx context.Context, event *domain.WebhookEvent) error {
	query := fmt.Sprintf(`INSERT INTO %s (source, invoice_id, status, payload)
		VALUES ($1, $2, $3, $4) RETURNING id, received_at`, webhookEventsTable)

	err := r.db.Conn(ctx).QueryRow(ctx, query,
		event.Source,
		event.InvoiceID,
		event.Status,
		event.Payload,
	).Scan(&event.ID, &event.ReceivedAt)
	if err != nil {
		r.Log.Error("failed to store webhook event", "error", err, "source", event.Source)
		return fmt.Errorf("failed to store webhook event: %w", err)
	}

	r.Log.Debug("webhook event stored", "event_id", event.ID, "source", event.Source)
	return nil
}

// MarkProcessed записывает итог обработки
func (r *Repository) MarkProcessed(ctx context.Context, id int64, result string) error {
	query := fmt.Sprintf(`UPDATE %s SET result = $1, processed_at = NOW() WHERE id = $2`, webhookEventsTable)

	if err := r.db.Conn(ctx).Exec(ctx, query, result, id); err != nil {
		r.Log.Error("failed to mark webhook event processed", "error", err, "event_id", id)
		return fmt.Errorf("failed to mark webhook event processed: %w", err)
	}
	return nil
}
