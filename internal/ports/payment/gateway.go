package payment

import (
	"context"

	"github.com/N1seb/Render/internal/domain"
	"github.com/shopspring/decimal"
)

// IPaymentGateway платёжный сервис, выставляющий инвойсы в криптовалюте.
// Любая ошибка возвращается как *domain.GatewayError
type IPaymentGateway interface {
	CreateInvoice(ctx context.Context, req domain.CreateInvoiceRequest) (*domain.InvoiceResult, error)
	GetInvoiceStatus(ctx context.Context, invoiceID string) (domain.InvoiceStatus, error)
}

// IRateSource курс asset -> fiat (сколько fiat стоит одна единица asset)
type IRateSource interface {
	Rate(ctx context.Context, asset, fiat string) (decimal.Decimal, error)
}
