package telegram

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/N1seb/Render/internal/domain"
	"github.com/N1seb/Render/internal/ports/telegram"
	"github.com/N1seb/Render/internal/usecases/texts"
)

// IOperatorDirectory кому рассылать служебные сообщения о заказах
type IOperatorDirectory interface {
	OperatorChatIDs(ctx context.Context) ([]int64, error)
}

// Notifier сообщения о заказах пользователю и операторам
type Notifier struct {
	Gateway   telegram.IChatGateway
	Operators IOperatorDirectory
	Log       *slog.Logger
}

func NewNotifier(gateway telegram.IChatGateway, operators IOperatorDirectory, log *slog.Logger) *Notifier {
	return &Notifier{
		Gateway:   gateway,
		Operators: operators,
		Log:       log.With("component", "order_notifier"),
	}
}

// NotifyOrdersPaid одно подтверждение на все заказы, оплаченные инвойсом
func (n *Notifier) NotifyOrdersPaid(ctx context.Context, chatID int64, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	if _, err := n.Gateway.SendMessage(ctx, chatID, texts.FormatOrdersPaid(orders)); err != nil {
		return fmt.Errorf("notify chat %d about payment: %w", chatID, err)
	}

	n.Log.Info("payment confirmation sent",
		"chat_id", chatID,
		"orders", domain.OrderIDs(orders),
	)
	return nil
}

func (n *Notifier) NotifyOrderCancelled(ctx context.Context, order domain.Order) error {
	return n.broadcast(ctx, texts.FormatOrderCancelledForOperators(order), "order_id", order.ID)
}

// NotifyOrderPaidOperators заявка на выполнение оплаченного заказа
func (n *Notifier) NotifyOrderPaidOperators(ctx context.Context, event domain.OrderPaidEvent) error {
	return n.broadcast(ctx, texts.FormatOrderPaidForOperators(event), "order_id", event.OrderID)
}

// PublishOrderPaid доставка заявки операторам без брокера, когда kafka выключена
func (n *Notifier) PublishOrderPaid(ctx context.Context, event domain.OrderPaidEvent) error {
	return n.NotifyOrderPaidOperators(ctx, event)
}

// broadcast ошибка только если некому отправить или не дошло ни одно сообщение
func (n *Notifier) broadcast(ctx context.Context, text string, args ...any) error {
	recipients, err := n.Operators.OperatorChatIDs(ctx)
	if err != nil {
		return fmt.Errorf("list operators: %w", err)
	}
	if len(recipients) == 0 {
		n.Log.Warn("no operators to notify", args...)
		return nil
	}

	delivered := 0
	for _, chatID := range recipients {
		if _, err := n.Gateway.SendMessage(ctx, chatID, text); err != nil {
			n.Log.Warn("failed to notify operator", append([]any{"error", err, "operator_chat_id", chatID}, args...)...)
			continue
		}
		delivered++
	}

	if delivered == 0 {
		return fmt.Errorf("operator notification reached none of %d operators", len(recipients))
	}
	n.Log.Debug("operators notified", append([]any{"delivered", delivered}, args...)...)
	return nil
}
