package texts

import (
	"fmt"
	"strings"

	"github.com/N1seb/Render/internal/domain"
	"github.com/shopspring/decimal"
)

var networkLabels = map[domain.Network]string{
	domain.NetworkTelegram:  "Telegram",
	domain.NetworkInstagram: "Instagram",
	domain.NetworkTikTok:    "TikTok",
	domain.NetworkYouTube:   "YouTube",
}

var statusLabels = map[domain.OrderStatus]string{
	domain.OrderStatusAwaitingPayment: "⏳ ждёт оплаты",
	domain.OrderStatusPaid:            "✅ оплачен",
	domain.OrderStatusCancelled:       "❌ отменён",
}

// NetworkLabel название соцсети для кнопок
func NetworkLabel(network domain.Network) string {
	if label, ok := networkLabels[network]; ok {
		return label
	}
	return string(network)
}

func StatusLabel(status domain.OrderStatus) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return string(status)
}

// USD сумма в долларах с двумя знаками
func USD(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}

func FormatUnknownCommand(command string) string {
	return fmt.Sprintf("Неизвестная команда: /%s", command)
}

func FormatChooseService(network domain.Network) string {
	return fmt.Sprintf("%s: выберите услугу", NetworkLabel(network))
}

// FormatServiceButton подпись кнопки услуги с ценой
func FormatServiceButton(entry domain.CatalogEntry) string {
	return fmt.Sprintf("%s · %s / %d", entry.Label, USD(entry.PricePerUnit), entry.Unit)
}

func FormatAskQuantity(entry domain.CatalogEntry) string {
	return fmt.Sprintf("%s, %s\nЦена: %s за %d шт., минимум %d шт.\n\nВведите количество:",
		NetworkLabel(entry.Network), entry.Label, USD(entry.PricePerUnit), entry.Unit, entry.Min)
}

func FormatInvalidQuantity(min int64) string {
	return fmt.Sprintf("Количество должно быть целым числом не меньше %d. Попробуйте ещё раз:", min)
}

func FormatSelection(entry domain.CatalogEntry, quantity int64, link string, price decimal.Decimal) string {
	return fmt.Sprintf("Ваш выбор:\n%s, %s: %d шт.\nСсылка: %s\nСумма: %s",
		NetworkLabel(entry.Network), entry.Label, quantity, link, USD(price))
}

func FormatInvoice(asset string, amount, totalUSD decimal.Decimal, orderIDs []int64) string {
	return fmt.Sprintf("Счёт (%s): %s %s (≈ %s).\nНажмите «Оплатить» или отсканируйте QR-код ниже. "+
		"После оплаты бот пришлёт подтверждение.",
		formatOrderRefs(orderIDs), amount.String(), asset, USD(totalUSD))
}

func FormatQRCaption(invoiceID string) string {
	return fmt.Sprintf("QR-код для оплаты счёта %s", invoiceID)
}

func FormatAddedToCart(items int, total decimal.Decimal) string {
	return fmt.Sprintf("Добавлено в корзину. Сейчас в корзине %d поз. на %s.", items, USD(total))
}

// FormatCart содержимое корзины
func FormatCart(items []domain.CartItem, total decimal.Decimal) string {
	var message strings.Builder
	message.WriteString("🛒 Корзина:\n\n")
	for i, item := range items {
		message.WriteString(fmt.Sprintf("%d. %s %s: %d шт. - %s\n   %s\n",
			i+1, NetworkLabel(item.Network), item.Service, item.Quantity, USD(item.PriceUSD), item.Link))
	}
	message.WriteString(fmt.Sprintf("\nИтого: %s", USD(total)))
	return message.String()
}

func FormatRemoveItemButton(position int) string {
	return fmt.Sprintf("✖️ Убрать %d", position)
}

// FormatProfile список заказов пользователя
func FormatProfile(orders []domain.Order) string {
	var message strings.Builder
	message.WriteString("📦 Ваши заказы:\n\n")
	for _, o := range orders {
		message.WriteString(FormatOrderLine(o))
		message.WriteString("\n")
	}
	return message.String()
}

func FormatOrderLine(o domain.Order) string {
	return fmt.Sprintf("#%d %s %s: %d шт. - %s, %s",
		o.ID, NetworkLabel(o.Network), o.Service, o.Quantity, USD(o.PriceUSD), StatusLabel(o.Status))
}

func FormatCancelOrderButton(orderID int64) string {
	return fmt.Sprintf("❌ Отменить #%d", orderID)
}

func FormatPayOrderButton(orderID int64) string {
	return fmt.Sprintf("💳 Оплатить #%d", orderID)
}

func FormatOrderCancelled(orderID int64) string {
	return fmt.Sprintf("Заказ #%d отменён.", orderID)
}

func FormatCannotCancel(orderID int64) string {
	return fmt.Sprintf("Заказ #%d уже нельзя отменить.", orderID)
}

func FormatOrdersPaid(orders []domain.Order) string {
	return fmt.Sprintf("✅ Оплата получена! %s на %s переданы в работу.",
		formatOrderRefs(domain.OrderIDs(orders)), USD(domain.SumPrices(orders)))
}

func FormatOrderCancelledForOperators(o domain.Order) string {
	return fmt.Sprintf("❌ Пользователь %d отменил заказ #%d: %s %s, %d шт., %s",
		o.ChatID, o.ID, NetworkLabel(o.Network), o.Service, o.Quantity, USD(o.PriceUSD))
}

func FormatOrderPaidForOperators(event domain.OrderPaidEvent) string {
	return fmt.Sprintf("💰 Оплачен заказ #%d (инвойс %s)\n%s %s: %d шт.\nСсылка: %s\nСумма: $%s\nПользователь: %d",
		event.OrderID, event.InvoiceID, NetworkLabel(event.Network), event.Service, event.Quantity,
		event.Link, event.PriceUSD, event.ChatID)
}

func FormatSupportButton(username string) string {
	return "👤 @" + strings.TrimPrefix(username, "@")
}

func FormatSupportAccepted(requestID int64) string {
	return fmt.Sprintf("Обращение #%d принято, оператор скоро ответит.", requestID)
}

func FormatSupportForOperator(requestID int64, from string, chatID int64, text string) string {
	header := fmt.Sprintf("📩 Обращение #%d от %s (chat %d)", requestID, from, chatID)
	if text == "" {
		return header
	}
	return header + ":\n" + text
}

func FormatReplyPrompt(requestID int64) string {
	return fmt.Sprintf("Напишите ответ на обращение #%d (можно с вложением):", requestID)
}

func FormatReplyForUser(requestID int64, text string) string {
	header := fmt.Sprintf("💬 Ответ поддержки по обращению #%d", requestID)
	if text == "" {
		return header
	}
	return header + ":\n" + text
}

func FormatRequestClosedForUser(requestID int64) string {
	return fmt.Sprintf("Обращение #%d закрыто. Если вопрос остался, напишите в поддержку снова.", requestID)
}

func FormatRequestClosed(requestID int64) string {
	return fmt.Sprintf("Обращение #%d закрыто.", requestID)
}

// FormatTickets страница открытых обращений
func FormatTickets(page domain.Page[domain.SupportRequest]) string {
	var message strings.Builder
	message.WriteString(fmt.Sprintf("Открытые обращения (%d-%d из %d):\n\n",
		page.Offset+1, page.Offset+len(page.Items), page.Total))
	for _, r := range page.Items {
		message.WriteString(fmt.Sprintf("#%d от %d, %s\n%s\n\n",
			r.ID, r.ChatID, r.CreatedAt.Format("02.01.2006 15:04"), truncate(r.Text, 120)))
	}
	return strings.TrimRight(message.String(), "\n")
}

func FormatTicketButton(requestID int64) string {
	return fmt.Sprintf("✍️ #%d", requestID)
}

func FormatOperatorAdded(chatID int64, created bool) string {
	if !created {
		return fmt.Sprintf("%d уже оператор.", chatID)
	}
	return fmt.Sprintf("Оператор %d добавлен.", chatID)
}

func FormatOperatorRemoved(chatID int64, removed bool) string {
	if !removed {
		return fmt.Sprintf("%d не был оператором.", chatID)
	}
	return fmt.Sprintf("Оператор %d удалён.", chatID)
}

func FormatOperators(operators []domain.Operator) string {
	var message strings.Builder
	message.WriteString("Операторы:\n")
	for _, op := range operators {
		name := op.DisplayName
		if op.Username != nil && *op.Username != "" {
			name += " @" + *op.Username
		}
		message.WriteString(fmt.Sprintf("• %d %s\n", op.ChatID, name))
	}
	return strings.TrimRight(message.String(), "\n")
}

func FormatRecentOrders(orders []domain.Order) string {
	var message strings.Builder
	message.WriteString("Последние заказы:\n")
	for _, o := range orders {
		message.WriteString(fmt.Sprintf("%s, чат %d\n", FormatOrderLine(o), o.ChatID))
	}
	return strings.TrimRight(message.String(), "\n")
}

func FormatAdminStatusChanged(o domain.Order) string {
	return fmt.Sprintf("Заказ #%d: %s", o.ID, StatusLabel(o.Status))
}

func FormatAdminMarkPaidButton(orderID int64) string {
	return fmt.Sprintf("✅ #%d оплачен", orderID)
}

func FormatAdminCancelButton(orderID int64) string {
	return fmt.Sprintf("❌ #%d отменить", orderID)
}

func formatOrderRefs(ids []int64) string {
	refs := make([]string, len(ids))
	for i, id := range ids {
		refs[i] = fmt.Sprintf("#%d", id)
	}
	if len(ids) == 1 {
		return "заказ " + refs[0]
	}
	return "заказы " + strings.Join(refs, ", ")
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "…"
}
