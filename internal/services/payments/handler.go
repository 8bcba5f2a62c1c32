package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/N1seb/Render/internal/domain"
	"github.com/N1seb/Render/internal/ports/repository"
	"github.com/N1seb/Render/internal/usecases/orders"
)

const resultError = "error"

// IPaymentConfirmer то, что обработчику нужно от сценария заказов
type IPaymentConfirmer interface {
	ConfirmPayment(ctx context.Context, event domain.PaymentEvent) (*orders.Settlement, error)
}

// Handler обрабатывает платёжные события из шины и записывает итог в журнал вебхуков
type Handler struct {
	Orders IPaymentConfirmer
	Events repository.IWebhookEventRepo
	Log    *slog.Logger
}

func New(confirmer IPaymentConfirmer, events repository.IWebhookEventRepo, log *slog.Logger) *Handler {
	return &Handler{
		Orders: confirmer,
		Events: events,
		Log:    log.With("component", "payment_handler"),
	}
}

// HandleEvent неизвестный инвойс не считается ошибкой обработки: событие
// залогировано вместе с телом и отмечено в журнале
func (h *Handler) HandleEvent(ctx context.Context, event domain.InboundEvent) error {
	if event.Payment == nil {
		return fmt.Errorf("payment event without payload")
	}
	payment := *event.Payment

	settlement, err := h.Orders.ConfirmPayment(ctx, payment)
	result := resultError
	if settlement != nil {
		result = string(settlement.Outcome)
	}
	h.markProcessed(ctx, payment.WebhookEventID, result)

	if err != nil {
		if errors.Is(err, domain.ErrUnknownInvoice) {
			return nil
		}
		h.Log.Error("failed to confirm payment",
			"error", err,
			"invoice_id", payment.InvoiceID,
			"raw", string(payment.Raw),
		)
		return fmt.Errorf("confirm payment %s: %w", payment.InvoiceID, err)
	}

	h.Log.Info("payment event processed",
		"invoice_id", settlement.InvoiceID,
		"outcome", settlement.Outcome,
		"transitioned", len(settlement.Transitioned),
	)
	return nil
}

func (h *Handler) markProcessed(ctx context.Context, eventID int64, result string) {
	if eventID == 0 || h.Events == nil {
		return
	}
	if err := h.Events.MarkProcessed(ctx, eventID, result); err != nil {
		h.Log.Warn("failed to record webhook result", "error", err, "event_id", eventID, "result", result)
	}
}
