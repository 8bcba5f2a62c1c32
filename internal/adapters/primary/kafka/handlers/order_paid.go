package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/N1seb/Render/internal/domain"
	kafkaPorts "github.com/N1seb/Render/internal/ports/kafka"
	"github.com/N1seb/Render/internal/ports/service"
)

// OrderPaidHandler превращает событие оплаты в заявку операторам
type OrderPaidHandler struct {
	Notifier service.IFulfillmentNotifier
	Log      *slog.Logger
}

// NewOrderPaidHandler создаёт handler очереди выполнения
func NewOrderPaidHandler(notifier service.IFulfillmentNotifier, log *slog.Logger) kafkaPorts.MessageHandler {
	return &OrderPaidHandler{
		Notifier: notifier,
		Log:      log.With("component", "order_paid_handler"),
	}
}

// HandleMessage обрабатывает событие orders.paid
func (h *OrderPaidHandler) HandleMessage(ctx context.Context, key string, value []byte) error {
	var event domain.OrderPaidEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return domain.WrapBusinessError(fmt.Errorf("failed to unmarshal order paid event: %w", err), "invalid order paid event")
	}

	if event.OrderID <= 0 {
		return domain.WrapBusinessError(errors.New("order_id is required in order paid event"), "invalid order paid event")
	}
	if event.ChatID == 0 {
		return domain.WrapBusinessError(errors.New("chat_id is required in order paid event"), "invalid order paid event")
	}

	h.Log.Debug("processing order paid event",
		"key", key,
		"order_id", event.OrderID,
		"invoice_id", event.InvoiceID,
	)

	if err := h.Notifier.NotifyOrderPaidOperators(ctx, event); err != nil {
		return fmt.Errorf("failed to notify operators about order %d: %w", event.OrderID, err)
	}

	return nil
}
