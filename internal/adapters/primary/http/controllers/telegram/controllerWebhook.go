package telegram

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"

	"github.com/N1seb/Render/internal/domain"
	"github.com/N1seb/Render/internal/ports/events"
	eventsService "github.com/N1seb/Render/internal/services/events"
	"github.com/gin-gonic/gin"
)

const secretHeader = "X-Telegram-Bot-Api-Secret-Token"

// Controller принимает апдейты Telegram в режиме вебхука и кладёт их в шину
type Controller struct {
	Sink   events.IEventSink
	Secret string
	Log    *slog.Logger

	middlewares []gin.HandlerFunc
}

func New(sink events.IEventSink, secret string, log *slog.Logger, middlewares ...gin.HandlerFunc) *Controller {
	return &Controller{
		Sink:        sink,
		Secret:      secret,
		Log:         log.With("component", "telegram_webhook"),
		middlewares: middlewares,
	}
}

func (c *Controller) RegisterRoutes(router *gin.Engine) {
	handlers := append(append([]gin.HandlerFunc{}, c.middlewares...), c.handleWebhook)
	router.POST("/webhook/telegram", handlers...)
}

func (c *Controller) handleWebhook(ctx *gin.Context) {
	if c.Secret != "" {
		token := ctx.GetHeader(secretHeader)
		if subtle.ConstantTimeCompare([]byte(token), []byte(c.Secret)) != 1 {
			c.Log.Warn("telegram webhook with invalid secret token", "client_ip", ctx.ClientIP())
			ctx.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid secret token"})
			return
		}
	}

	var update domain.Update
	if err := ctx.ShouldBindJSON(&update); err != nil {
		c.Log.Warn("failed to bind webhook request", "error", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request"})
		return
	}

	c.Log.Debug("received webhook update", "update_id", update.UpdateID)

	if err := c.Sink.Publish(ctx.Request.Context(), domain.NewChatEvent(&update)); err != nil {
		c.Log.Error("failed to enqueue update",
			"error", err,
			"update_id", update.UpdateID,
		)
		status := http.StatusInternalServerError
		if errors.Is(err, eventsService.ErrBusClosed) {
			status = http.StatusServiceUnavailable
		}
		ctx.JSON(status, gin.H{"ok": false, "error": "failed to process update"})
		return
	}

	// Telegram ожидает 200 OK в ответ
	ctx.JSON(http.StatusOK, gin.H{"ok": true})
}
