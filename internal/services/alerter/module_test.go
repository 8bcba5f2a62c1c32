package alerter

import (
	"context"
	"errors"
	"testing"

	"github.com/N1seb/Render/internal/domain"
	"github.com/N1seb/Render/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
)

type sentMessage struct {
	chatID int64
	text   string
}

type stubGateway struct {
	sent    []sentMessage
	failFor int64
}

func (g *stubGateway) SendMessage(_ context.Context, chatID int64, text string) (int64, error) {
	if chatID == g.failFor {
		return 0, errors.New("blocked")
	}
	g.sent = append(g.sent, sentMessage{chatID, text})
	return 1, nil
}

func (g *stubGateway) SendMessageWithKeyboard(ctx context.Context, chatID int64, text string, _ domain.InlineKeyboard) (int64, error) {
	return g.SendMessage(ctx, chatID, text)
}

func (g *stubGateway) EditMessageText(context.Context, int64, int64, string, domain.InlineKeyboard) error {
	return nil
}

func (g *stubGateway) AnswerCallbackQuery(context.Context, string, string, bool) error { return nil }

func (g *stubGateway) SendPhoto(context.Context, int64, []byte, string, string) error { return nil }

func (g *stubGateway) SendPhotoURL(context.Context, int64, string, string) error { return nil }

func (g *stubGateway) SendMedia(context.Context, int64, domain.MessageKind, string, string) error {
	return nil
}

func TestSendAlert_FallsBackToAdmins(t *testing.T) {
	gateway := &stubGateway{failFor: 2}
	svc := New(nil, gateway, []int64{1, 2, 3}, logger.Nop())

	err := svc.SendAlert(context.Background(), "invoice failed")

	assert.Error(t, err, "failure for one admin is reported")
	assert.Equal(t, []sentMessage{
		{1, "⚠️ invoice failed"},
		{3, "⚠️ invoice failed"},
	}, gateway.sent)
}

func TestSendAlert_NotConfigured(t *testing.T) {
	svc := New(nil, nil, nil, logger.Nop())
	assert.Error(t, svc.SendAlert(context.Background(), "x"))
}
