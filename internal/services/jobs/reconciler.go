package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/N1seb/Render/internal/domain"
	"github.com/N1seb/Render/internal/ports/payment"
	"github.com/N1seb/Render/internal/ports/repository"
	"github.com/N1seb/Render/internal/usecases/orders"
)

const invoiceReconcilerName = "invoice-reconciler"

type ReconcilerConfig struct {
	Interval   time.Duration `envconfig:"INTERVAL" default:"2m"`
	StaleAfter time.Duration `envconfig:"STALE_AFTER" default:"5m"`
	BatchSize  int           `envconfig:"BATCH_SIZE" default:"50"`
}

// IOrderSettler то, что сверке нужно от сценария заказов
type IOrderSettler interface {
	ConfirmPayment(ctx context.Context, event domain.PaymentEvent) (*orders.Settlement, error)
	SetStatus(ctx context.Context, orderID int64, status domain.OrderStatus) (*domain.Order, error)
}

// InvoiceReconciler догоняет потерянные вебхуки: опрашивает статус инвойсов у заказов,
// которые давно ждут оплату. Оплаченные проводит через ConfirmPayment, по истёкшим
// отменяет заказы
type InvoiceReconciler struct {
	cfg       ReconcilerConfig
	orderRepo repository.IOrderRepo
	gateway   payment.IPaymentGateway
	settler   IOrderSettler
	log       *slog.Logger
}

func NewInvoiceReconciler(
	cfg ReconcilerConfig,
	orderRepo repository.IOrderRepo,
	gateway payment.IPaymentGateway,
	settler IOrderSettler,
	log *slog.Logger,
) *InvoiceReconciler {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Minute
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 5 * time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}

	return &InvoiceReconciler{
		cfg:       cfg,
		orderRepo: orderRepo,
		gateway:   gateway,
		settler:   settler,
		log:       log.With("job", invoiceReconcilerName),
	}
}

func (j *InvoiceReconciler) Name() string {
	return invoiceReconcilerName
}

func (j *InvoiceReconciler) NextRun(now time.Time) time.Time {
	return now.Add(j.cfg.Interval)
}

// Run одна сверка. Ошибка по одному инвойсу не останавливает остальные,
// но возвращается планировщику для ретрая
func (j *InvoiceReconciler) Run(ctx context.Context) error {
	stale, err := j.orderRepo.ListStaleAwaiting(ctx, time.Now().Add(-j.cfg.StaleAfter), j.cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("list stale orders: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}

	byInvoice := make(map[string][]domain.Order)
	var invoiceIDs []string
	for _, o := range stale {
		if !o.HasInvoice() {
			continue
		}
		id := *o.InvoiceID
		if _, seen := byInvoice[id]; !seen {
			invoiceIDs = append(invoiceIDs, id)
		}
		byInvoice[id] = append(byInvoice[id], o)
	}

	var errs []error
	paid, expired := 0, 0
	for _, invoiceID := range invoiceIDs {
		status, err := j.gateway.GetInvoiceStatus(ctx, invoiceID)
		if err != nil {
			errs = append(errs, fmt.Errorf("invoice %s: %w", invoiceID, err))
			continue
		}

		switch status {
		case domain.InvoiceStatusPaid:
			if err := j.confirm(ctx, invoiceID); err != nil {
				errs = append(errs, err)
				continue
			}
			paid++
		case domain.InvoiceStatusExpired:
			expired += j.cancelExpired(ctx, invoiceID, byInvoice[invoiceID])
		}
	}

	j.log.Info("reconciliation finished",
		"stale_orders", len(stale),
		"invoices", len(invoiceIDs),
		"paid", paid,
		"expired_orders", expired,
		"errors", len(errs),
	)
	return errors.Join(errs...)
}

func (j *InvoiceReconciler) confirm(ctx context.Context, invoiceID string) error {
	settlement, err := j.settler.ConfirmPayment(ctx, domain.PaymentEvent{
		InvoiceID: invoiceID,
		Status:    string(domain.InvoiceStatusPaid),
	})
	if err != nil {
		return fmt.Errorf("confirm invoice %s: %w", invoiceID, err)
	}

	j.log.Warn("payment confirmed by reconciliation, webhook was missed",
		"invoice_id", invoiceID,
		"outcome", settlement.Outcome,
		"orders", domain.OrderIDs(settlement.Transitioned),
	)
	return nil
}

// cancelExpired заказ, оплаченный или отменённый за это время, пропускается
func (j *InvoiceReconciler) cancelExpired(ctx context.Context, invoiceID string, list []domain.Order) int {
	cancelled := 0
	for _, o := range list {
		if _, err := j.settler.SetStatus(ctx, o.ID, domain.OrderStatusCancelled); err != nil {
			if !errors.Is(err, domain.ErrInvalidTransition) {
				j.log.Error("failed to cancel order with expired invoice", "error", err, "order_id", o.ID, "invoice_id", invoiceID)
			}
			continue
		}
		cancelled++
	}
	return cancelled
}
