package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/N1seb/Render/internal/domain"
	"github.com/N1seb/Render/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	events []domain.OrderPaidEvent
	err    error
}

func (n *recordingNotifier) NotifyOrderPaidOperators(_ context.Context, event domain.OrderPaidEvent) error {
	n.events = append(n.events, event)
	return n.err
}

func TestOrderPaidHandler(t *testing.T) {
	notifier := &recordingNotifier{}
	h := NewOrderPaidHandler(notifier, logger.Nop())

	payload := []byte(`{"order_id":5,"chat_id":7,"network":"tg","service":"sub","quantity":1000,
		"link":"https://t.me/channel","price_usd":"2.20","invoice_id":"IV1","paid_at":"2026-01-02T03:04:05Z"}`)

	require.NoError(t, h.HandleMessage(context.Background(), "5", payload))
	require.Len(t, notifier.events, 1)
	assert.Equal(t, int64(5), notifier.events[0].OrderID)
	assert.Equal(t, domain.ServiceSubscribers, notifier.events[0].Service)
	assert.Equal(t, "2.20", notifier.events[0].PriceUSD)
}

func TestOrderPaidHandler_Rejects(t *testing.T) {
	notifier := &recordingNotifier{}
	h := NewOrderPaidHandler(notifier, logger.Nop())

	for name, payload := range map[string]string{
		"not json":   `{"order_id":`,
		"no order":   `{"chat_id":7}`,
		"no chat id": `{"order_id":5}`,
	} {
		t.Run(name, func(t *testing.T) {
			err := h.HandleMessage(context.Background(), "k", []byte(payload))
			require.Error(t, err)
			assert.True(t, domain.IsBusinessError(err))
		})
	}
	assert.Empty(t, notifier.events)
}

func TestOrderPaidHandler_NotifierFailureIsRetryable(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("no operator reachable")}
	h := NewOrderPaidHandler(notifier, logger.Nop())

	err := h.HandleMessage(context.Background(), "5", []byte(`{"order_id":5,"chat_id":7}`))
	require.Error(t, err)
	assert.False(t, domain.IsBusinessError(err))
}
