package admin

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/N1seb/Render/internal/domain"
	"github.com/gin-gonic/gin"
)

const (
	adminHeader = "X-Admin-Chat-Id"
	tokenHeader = "X-Admin-Token"
	actorKey    = "admin_actor_id"
)

// IAdminService действия администратора, allow-list проверяет сам сервис
type IAdminService interface {
	AddOperator(ctx context.Context, actorID, chatID int64, name string) (bool, error)
	RemoveOperator(ctx context.Context, actorID, chatID int64) (bool, error)
	ListOperators(ctx context.Context, actorID int64) ([]domain.Operator, error)
	RecentOrders(ctx context.Context, actorID int64, limit int) ([]domain.Order, error)
	SetOrderStatus(ctx context.Context, actorID, orderID int64, status domain.OrderStatus) (*domain.Order, error)
}

type Controller struct {
	Admin IAdminService
	Token string
	Log   *slog.Logger

	middlewares []gin.HandlerFunc
}

// New token общий секрет для всех запросов. Пустой token выключает HTTP админку
func New(adminService IAdminService, token string, log *slog.Logger, middlewares ...gin.HandlerFunc) *Controller {
	return &Controller{
		Admin:       adminService,
		Token:       token,
		Log:         log.With("component", "admin_http"),
		middlewares: middlewares,
	}
}

func (c *Controller) RegisterRoutes(router *gin.Engine) {
	if c.Token == "" {
		c.Log.Warn("admin http token is not set, admin routes disabled")
		return
	}

	admin := router.Group("/admin", c.middlewares...)
	admin.Use(c.authorize, c.actor)
	{
		admin.GET("/operators", c.listOperators)
		admin.POST("/operators", c.addOperator)
		admin.DELETE("/operators/:chat_id", c.removeOperator)
		admin.GET("/orders", c.recentOrders)
		admin.POST("/orders/:id/status", c.setOrderStatus)
	}
}

// authorize пускает только запросы с общим секретом
func (c *Controller) authorize(ctx *gin.Context) {
	token := ctx.GetHeader(tokenHeader)
	if subtle.ConstantTimeCompare([]byte(token), []byte(c.Token)) != 1 {
		c.Log.Warn("admin request with invalid token", "client_ip", ctx.ClientIP(), "path", ctx.FullPath())
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid admin token"})
		return
	}
	ctx.Next()
}

// actor id администратора из заголовка. Это только личность, права проверяет сервис
func (c *Controller) actor(ctx *gin.Context) {
	actorID, err := strconv.ParseInt(ctx.GetHeader(adminHeader), 10, 64)
	if err != nil || actorID == 0 {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "admin chat id header required"})
		return
	}
	ctx.Set(actorKey, actorID)
	ctx.Next()
}

func (c *Controller) listOperators(ctx *gin.Context) {
	operators, err := c.Admin.ListOperators(ctx.Request.Context(), ctx.GetInt64(actorKey))
	if err != nil {
		c.fail(ctx, err)
		return
	}
	if operators == nil {
		operators = []domain.Operator{}
	}
	ctx.JSON(http.StatusOK, gin.H{"ok": true, "operators": operators})
}

func (c *Controller) addOperator(ctx *gin.Context) {
	var req AddOperatorRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.Log.Warn("failed to bind add operator request", "error", err)
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}

	created, err := c.Admin.AddOperator(ctx.Request.Context(), ctx.GetInt64(actorKey), req.ChatID, req.Name)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, ChangedResponse{OK: true, Changed: created})
}

func (c *Controller) removeOperator(ctx *gin.Context) {
	chatID, err := strconv.ParseInt(ctx.Param("chat_id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid chat id"})
		return
	}

	removed, err := c.Admin.RemoveOperator(ctx.Request.Context(), ctx.GetInt64(actorKey), chatID)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, ChangedResponse{OK: true, Changed: removed})
}

func (c *Controller) recentOrders(ctx *gin.Context) {
	limit := 0
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = n
	}

	orders, err := c.Admin.RecentOrders(ctx.Request.Context(), ctx.GetInt64(actorKey), limit)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	ctx.JSON(http.StatusOK, gin.H{"ok": true, "orders": orders})
}

func (c *Controller) setOrderStatus(ctx *gin.Context) {
	orderID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid order id"})
		return
	}

	var req SetStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "status must be paid or cancelled"})
		return
	}

	order, err := c.Admin.SetOrderStatus(ctx.Request.Context(), ctx.GetInt64(actorKey), orderID, domain.OrderStatus(req.Status))
	if err != nil {
		c.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"ok": true, "order": order})
}

// fail переводит доменную ошибку в HTTP статус
func (c *Controller) fail(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrForbidden):
		ctx.JSON(http.StatusForbidden, ErrorResponse{Error: "forbidden"})
	case errors.Is(err, domain.ErrNotFound):
		ctx.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
	case errors.Is(err, domain.ErrInvalidTransition):
		ctx.JSON(http.StatusConflict, ErrorResponse{Error: "order is not awaiting payment"})
	default:
		c.Log.Error("admin request failed", "error", err, "path", ctx.FullPath())
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
