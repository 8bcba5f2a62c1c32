package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/N1seb/Render/internal/domain"
	"github.com/N1seb/Render/internal/pkg/logger"
	eventsService "github.com/N1seb/Render/internal/services/events"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	events []domain.InboundEvent
}

func (s *recordingSink) Publish(_ context.Context, event domain.InboundEvent) error {
	s.events = append(s.events, event)
	return nil
}

const updateJSON = `{"update_id":10,"message":{"message_id":1,"from":{"id":7,"is_bot":false,"first_name":"Ann"},
	"chat":{"id":7,"type":"private"},"date":0,"text":"/start"}}`

func serve(c *Controller, body string, secret string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	c.RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodPost, "/webhook/telegram", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set(secretHeader, secret)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestWebhook_PublishesChatEvent(t *testing.T) {
	sink := &recordingSink{}
	rec := serve(New(sink, "s3cret", logger.Nop()), updateJSON, "s3cret")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, sink.events, 1)
	event := sink.events[0]
	assert.Equal(t, domain.InboundEventChat, event.Kind)
	require.NotNil(t, event.Update)
	assert.Equal(t, int64(10), event.Update.UpdateID)
	assert.Equal(t, int64(7), event.ChatID())
}

func TestWebhook_RejectsWrongSecret(t *testing.T) {
	sink := &recordingSink{}

	rec := serve(New(sink, "s3cret", logger.Nop()), updateJSON, "other")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(New(sink, "s3cret", logger.Nop()), updateJSON, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Empty(t, sink.events)
}

func TestWebhook_InvalidBody(t *testing.T) {
	rec := serve(New(&recordingSink{}, "", logger.Nop()), `{"update_id":`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhook_ClosedBus(t *testing.T) {
	bus := eventsService.NewBus(1, logger.Nop())
	bus.Close()

	rec := serve(New(bus, "", logger.Nop()), updateJSON, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
