package shop

import (
	"strconv"
	"strings"

	"github.com/N1seb/Render/internal/domain"
	"github.com/N1seb/Render/internal/usecases/session"
	"github.com/N1seb/Render/internal/usecases/texts"
)

func button(text string, tag session.ActionTag, args ...string) domain.InlineButton {
	return domain.InlineButton{Text: text, CallbackData: session.MustEncode(tag, args...)}
}

func urlButton(text, url string) domain.InlineButton {
	return domain.InlineButton{Text: text, URL: url}
}

func id(v int64) string {
	return strconv.FormatInt(v, 10)
}

// mainMenu соцсети по две в ряд, корзина, заказы и поддержка
func (s *Service) mainMenu() domain.InlineKeyboard {
	var keyboard domain.InlineKeyboard

	var row []domain.InlineButton
	for _, network := range s.Orders.Pricing.Catalog().Networks() {
		row = append(row, button(texts.NetworkLabel(network), session.ActionNetwork, string(network)))
		if len(row) == 2 {
			keyboard = append(keyboard, row)
			row = nil
		}
	}
	if len(row) > 0 {
		keyboard = append(keyboard, row)
	}

	keyboard = append(keyboard,
		[]domain.InlineButton{
			button(texts.ButtonCart, session.ActionCart),
			button(texts.ButtonProfile, session.ActionProfile),
		},
		[]domain.InlineButton{button(texts.ButtonSupport, session.ActionSupport)},
	)

	for _, username := range s.cfg.SupportUsernames {
		username = strings.TrimPrefix(strings.TrimSpace(username), "@")
		if username == "" {
			continue
		}
		keyboard = append(keyboard, []domain.InlineButton{
			urlButton(texts.FormatSupportButton(username), "https://t.me/"+username),
		})
	}
	return keyboard
}

func (s *Service) servicesKeyboard(network domain.Network) domain.InlineKeyboard {
	var keyboard domain.InlineKeyboard
	for _, entry := range s.Orders.Pricing.Catalog().Services(network) {
		keyboard = append(keyboard, []domain.InlineButton{
			button(texts.FormatServiceButton(entry), session.ActionService, string(entry.Network), string(entry.Service)),
		})
	}
	return append(keyboard, []domain.InlineButton{button(texts.ButtonBack, session.ActionMenu)})
}

func cancelKeyboard() domain.InlineKeyboard {
	return domain.InlineKeyboard{{button(texts.ButtonCancel, session.ActionCancelDialog)}}
}

func menuKeyboard() domain.InlineKeyboard {
	return domain.InlineKeyboard{{button(texts.ButtonMenu, session.ActionMenu)}}
}

func decisionKeyboard() domain.InlineKeyboard {
	return domain.InlineKeyboard{
		{button(texts.ButtonBuyNow, session.ActionBuyNow), button(texts.ButtonAddCart, session.ActionAddToCart)},
		{button(texts.ButtonCancel, session.ActionCancelDialog)},
	}
}

// assetKeyboard кнопки валют; args дописываются перед валютой
func (s *Service) assetKeyboard(tag session.ActionTag, args ...string) domain.InlineKeyboard {
	var row []domain.InlineButton
	for _, asset := range s.Orders.Pricing.Assets() {
		row = append(row, button(asset, tag, append(append([]string(nil), args...), asset)...))
	}
	return domain.InlineKeyboard{row, {button(texts.ButtonCancel, session.ActionCancelDialog)}}
}

func cartKeyboard(items []domain.CartItem) domain.InlineKeyboard {
	var keyboard domain.InlineKeyboard
	for i, item := range items {
		keyboard = append(keyboard, []domain.InlineButton{
			button(texts.FormatRemoveItemButton(i+1), session.ActionCartRemove, id(item.ID)),
		})
	}
	return append(keyboard,
		[]domain.InlineButton{button(texts.ButtonCheckout, session.ActionCheckout), button(texts.ButtonClear, session.ActionCartClear)},
		[]domain.InlineButton{button(texts.ButtonMenu, session.ActionMenu)},
	)
}

// profileKeyboard ссылка на оплату и отмена для каждого неоплаченного заказа
func profileKeyboard(list []domain.Order) domain.InlineKeyboard {
	var keyboard domain.InlineKeyboard
	for _, o := range list {
		if o.Status != domain.OrderStatusAwaitingPayment {
			continue
		}
		var row []domain.InlineButton
		if o.PayURL != nil && *o.PayURL != "" {
			row = append(row, urlButton(texts.FormatPayOrderButton(o.ID), *o.PayURL))
		}
		row = append(row, button(texts.FormatCancelOrderButton(o.ID), session.ActionCancelOrder, id(o.ID)))
		keyboard = append(keyboard, row)
	}
	return append(keyboard, []domain.InlineButton{button(texts.ButtonMenu, session.ActionMenu)})
}

func ticketsKeyboard(page domain.Page[domain.SupportRequest], pageNum int) domain.InlineKeyboard {
	var keyboard domain.InlineKeyboard
	for _, r := range page.Items {
		keyboard = append(keyboard, []domain.InlineButton{
			button(texts.FormatTicketButton(r.ID), session.ActionReply, id(r.ID)),
			button(texts.ButtonClose, session.ActionCloseTicket, id(r.ID)),
		})
	}

	var nav []domain.InlineButton
	if page.HasPrev() {
		nav = append(nav, button(texts.ButtonPrev, session.ActionTickets, strconv.Itoa(pageNum-1)))
	}
	if page.HasNext() {
		nav = append(nav, button(texts.ButtonNext, session.ActionTickets, strconv.Itoa(pageNum+1)))
	}
	if len(nav) > 0 {
		keyboard = append(keyboard, nav)
	}
	return keyboard
}

// adminOrdersKeyboard ручная смена статуса для заказов, ждущих оплату
func adminOrdersKeyboard(list []domain.Order) domain.InlineKeyboard {
	var keyboard domain.InlineKeyboard
	for _, o := range list {
		if o.Status != domain.OrderStatusAwaitingPayment {
			continue
		}
		keyboard = append(keyboard, []domain.InlineButton{
			button(texts.FormatAdminMarkPaidButton(o.ID), session.ActionAdminPaid, id(o.ID)),
			button(texts.FormatAdminCancelButton(o.ID), session.ActionAdminCancel, id(o.ID)),
		})
	}
	return keyboard
}
