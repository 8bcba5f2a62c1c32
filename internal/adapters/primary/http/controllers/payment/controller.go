package payment

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/N1seb/Render/internal/domain"
	"github.com/N1seb/Render/internal/pkg/metrics"
	"github.com/N1seb/Render/internal/ports/events"
	"github.com/N1seb/Render/internal/ports/repository"
	"github.com/gin-gonic/gin"
)

const (
	signatureHeader = "crypto-pay-api-signature"
	eventSource     = "cryptopay"
	maxBodyBytes    = 1 << 20
)

// ISignatureVerifier проверка подписи тела вебхука
type ISignatureVerifier interface {
	Verify(body []byte, signature string) bool
}

// Controller вебхук платёжного сервиса. Тело пишется в журнал до ответа,
// обработка идёт асинхронно через шину
type Controller struct {
	Events   repository.IWebhookEventRepo
	Sink     events.IEventSink
	Verifier ISignatureVerifier
	Metrics  *metrics.Metrics
	Log      *slog.Logger

	middlewares []gin.HandlerFunc
}

// New verifier может быть nil, тогда подпись не проверяется
func New(
	eventRepo repository.IWebhookEventRepo,
	sink events.IEventSink,
	verifier ISignatureVerifier,
	m *metrics.Metrics,
	log *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *Controller {
	return &Controller{
		Events:      eventRepo,
		Sink:        sink,
		Verifier:    verifier,
		Metrics:     m,
		Log:         log.With("component", "payment_webhook"),
		middlewares: middlewares,
	}
}

func (c *Controller) RegisterRoutes(router *gin.Engine) {
	handlers := append(append([]gin.HandlerFunc{}, c.middlewares...), c.handleWebhook)
	router.POST("/cryptobot/ipn", handlers...)
	router.POST("/webhook/payment", handlers...)
}

func (c *Controller) handleWebhook(ctx *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(ctx.Request.Body, maxBodyBytes))
	if err != nil {
		c.Log.Warn("failed to read payment webhook body", "error", err)
		c.reject(ctx, http.StatusBadRequest, "read_error")
		return
	}

	c.Log.Info("payment webhook received", "raw", string(body))

	if c.Verifier != nil && !c.Verifier.Verify(body, ctx.GetHeader(signatureHeader)) {
		c.Log.Warn("payment webhook signature mismatch", "client_ip", ctx.ClientIP())
		c.reject(ctx, http.StatusUnauthorized, "bad_signature")
		return
	}

	payment, err := domain.ParsePaymentWebhook(body)
	if err != nil {
		c.Log.Warn("malformed payment webhook", "error", err, "raw", string(body))
		c.reject(ctx, http.StatusBadRequest, "malformed")
		return
	}

	record := &domain.WebhookEvent{
		Source:  eventSource,
		Payload: payment.Raw,
	}
	if payment.InvoiceID != "" {
		record.InvoiceID = &payment.InvoiceID
	}
	if payment.Status != "" {
		record.Status = &payment.Status
	}

	if err := c.Events.Create(ctx.Request.Context(), record); err != nil {
		// без записи в журнале не подтверждаем, сервис повторит доставку
		c.Log.Error("failed to store payment webhook",
			"error", err,
			"invoice_id", payment.InvoiceID,
			"raw", string(body),
		)
		c.Metrics.WebhookRequest("store_error")
		ctx.JSON(http.StatusInternalServerError, gin.H{"ok": false})
		return
	}
	payment.WebhookEventID = record.ID

	if err := c.Sink.Publish(ctx.Request.Context(), domain.NewPaymentInboundEvent(payment)); err != nil {
		// событие уже в журнале, заказ подберёт сверка инвойсов
		level := slog.LevelError
		if errors.Is(err, ctx.Request.Context().Err()) {
			level = slog.LevelWarn
		}
		c.Log.Log(ctx.Request.Context(), level, "failed to enqueue payment event",
			"error", err,
			"event_id", record.ID,
			"invoice_id", payment.InvoiceID,
		)
	}

	c.Metrics.WebhookRequest("accepted")
	ctx.JSON(http.StatusOK, gin.H{"ok": true})
}

func (c *Controller) reject(ctx *gin.Context, status int, outcome string) {
	c.Metrics.WebhookRequest(outcome)
	ctx.JSON(status, gin.H{"ok": false})
}
