package invoiceRepo

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

type invoiceColumns struct {
	TableName  string
	InvoiceID  string
	ChatID     string
	OrderID    string
	CartID     string
	OrderIDs   string
	RawPayload string
	Reference  string
	CreatedAt  string
}

type Repository struct {
	db      persistence.Persistence
	Log     *slog.Logger
	columns invoiceColumns
}

// New создаёт репозиторий связок инвойс -> заказы
func New(db persistence.Persistence, log *slog.Logger) ports.IInvoiceRepo {
	return &Repository{
		db:  db,
		Log: log,
		columns: invoiceColumns{
			TableName:  "invoices_map",
			InvoiceID:  "invoice_id",
			ChatID:     "chat_id",
			OrderID:    "order_id",
			CartID:     "cart_id",
			OrderIDs:   "order_ids",
			RawPayload: "raw_payload",
			Reference:  "reference",
			CreatedAt:  "created_at",
		},
	}
}

func (r *Repository) allColumns() string {
	return fmt.Sprintf("%s, %s, %s, %s, %s, %s, %s, %s",
		r.columns.InvoiceID,
		r.columns.ChatID,
		r.columns.OrderID,
		r.columns.CartID,
		r.columns.OrderIDs,
		r.columns.RawPayload,
		r.columns.Reference,
		r.columns.CreatedAt,
	)
}

// Create сохраняет связку. invoice_id первичный ключ: повторная вставка того же
// инвойса завершится ошибкой
func (r *Repository) Create(ctx context.Context, mapping *domain.InvoiceMapping) error {
	if err := mapping.Validate(); err != nil {
		return fmt.Errorf("invalid invoice mapping: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING %s`,
		r.columns.TableName,
		r.columns.InvoiceID,
		r.columns.ChatID,
		r.columns.OrderID,
		r.columns.CartID,
		r.columns.OrderIDs,
		r.columns.RawPayload,
		r.columns.Reference,
		r.columns.CreatedAt,
	)

	err := r.db.Conn(ctx).QueryRow(ctx, query,
		mapping.InvoiceID,
		mapping.ChatID,
		mapping.OrderID,
		mapping.CartID,
		mapping.OrderIDs,
		mapping.RawPayload,
		mapping.Reference,
	).Scan(&mapping.CreatedAt)
	if err != nil {
		r.Log.Error("failed to create invoice mapping",
			"error", err,
			"invoice_id", mapping.InvoiceID,
		)
		return fmt.Errorf("failed to create invoice mapping: %w", err)
	}

	r.Log.Debug("invoice mapping created",
		"invoice_id", mapping.InvoiceID,
		"order_ids", []int64(mapping.OrderIDs),
	)
	return nil
}

// GetByID ищет связку по идентификатору инвойса
func (r *Repository) GetByID(ctx context.Context, invoiceID string) (*domain.InvoiceMapping, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.InvoiceID,
	)

	var mapping domain.InvoiceMapping
	err := r.db.Conn(ctx).Get(ctx, &mapping, query, invoiceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.Log.Warn("invoice mapping not found", "invoice_id", invoiceID)
			return nil, fmt.Errorf("invoice %s: %w", invoiceID, domain.ErrUnknownInvoice)
		}
		r.Log.Error("failed to get invoice mapping",
			"error", err,
			"invoice_id", invoiceID,
		)
		return nil, fmt.Errorf("failed to get invoice mapping: %w", err)
	}

	return &mapping, nil
}
