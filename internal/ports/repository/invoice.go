package repository

import (
	"context"

	"github.com/N1seb/Render/internal/domain"
)

type IInvoiceRepo interface {
	Create(ctx context.Context, mapping *domain.InvoiceMapping) error
	GetByID(ctx context.Context, invoiceID string) (*domain.InvoiceMapping, error)
}
