package shop

import (
	"context"
	"errors"
	"strconv"

	"github.com/N1seb/Render/internal/domain"
	"github.com/N1seb/Render/internal/usecases/orders"
	"github.com/N1seb/Render/internal/usecases/session"
	"github.com/N1seb/Render/internal/usecases/texts"
)

// HandleCallback нажатие inline кнопки. Callback подтверждается всегда, даже если кнопка устарела
func (s *Service) HandleCallback(ctx context.Context, user *domain.User, callback *domain.CallbackQuery) error {
	data := ""
	if callback.Data != nil {
		data = *callback.Data
	}

	action, err := session.ParseAction(data)
	if err != nil {
		s.Log.Warn("invalid callback data", "error", err, "chat_id", user.ChatID, "data", data)
		s.answer(ctx, callback.ID, texts.ButtonExpired)
		return nil
	}
	s.answer(ctx, callback.ID, "")

	var messageID int64
	if callback.Message != nil {
		messageID = callback.Message.MessageID
	}

	return s.dispatch(ctx, user, action, messageID)
}

func (s *Service) answer(ctx context.Context, callbackID, text string) {
	if err := s.Gateway.AnswerCallbackQuery(ctx, callbackID, text, text != ""); err != nil {
		s.Log.Warn("failed to answer callback query", "error", err, "callback_id", callbackID)
	}
}

func (s *Service) dispatch(ctx context.Context, user *domain.User, action session.Action, messageID int64) error {
	chatID := user.ChatID

	switch action.Tag {
	case session.ActionMenu:
		s.Sessions.Reset(chatID)
		return s.show(ctx, chatID, messageID, texts.MainMenu, s.mainMenu())
	case session.ActionCancelDialog:
		s.Sessions.Reset(chatID)
		return s.sendKeyboard(ctx, chatID, texts.Cancelled, s.mainMenu())
	case session.ActionNetwork:
		return s.chooseNetwork(ctx, chatID, messageID, domain.Network(action.Arg(0)))
	case session.ActionService:
		return s.chooseService(ctx, chatID, domain.Network(action.Arg(0)), domain.ServiceKey(action.Arg(1)))
	case session.ActionBuyNow:
		return s.buyNow(ctx, chatID)
	case session.ActionAddToCart:
		return s.addToCart(ctx, chatID)
	case session.ActionPayOrder:
		orderID, ok := parseID(action.Arg(0))
		if !ok {
			return s.sendMessage(ctx, chatID, texts.ButtonExpired)
		}
		return s.payOrder(ctx, chatID, orderID, action.Arg(1))
	case session.ActionCart:
		return s.showCart(ctx, chatID, messageID)
	case session.ActionCartRemove:
		itemID, ok := parseID(action.Arg(0))
		if !ok {
			return s.sendMessage(ctx, chatID, texts.ButtonExpired)
		}
		return s.removeCartItem(ctx, chatID, messageID, itemID)
	case session.ActionCartClear:
		if err := s.Orders.ClearCart(ctx, chatID); err != nil {
			return s.fail(ctx, chatID, err)
		}
		return s.show(ctx, chatID, messageID, texts.CartCleared, menuKeyboard())
	case session.ActionCheckout:
		return s.sendKeyboard(ctx, chatID, texts.ChooseAsset, s.assetKeyboard(session.ActionCheckoutPay))
	case session.ActionCheckoutPay:
		return s.checkout(ctx, chatID, action.Arg(0))
	case session.ActionProfile:
		return s.showProfile(ctx, chatID, messageID)
	case session.ActionCancelOrder:
		orderID, ok := parseID(action.Arg(0))
		if !ok {
			return s.sendMessage(ctx, chatID, texts.ButtonExpired)
		}
		return s.cancelOrder(ctx, chatID, orderID)
	case session.ActionSupport:
		return s.startSupport(ctx, chatID)
	case session.ActionReply:
		requestID, ok := parseID(action.Arg(0))
		if !ok {
			return s.sendMessage(ctx, chatID, texts.ButtonExpired)
		}
		return s.startReply(ctx, chatID, requestID)
	case session.ActionCloseTicket:
		requestID, ok := parseID(action.Arg(0))
		if !ok {
			return s.sendMessage(ctx, chatID, texts.ButtonExpired)
		}
		return s.closeTicket(ctx, chatID, requestID)
	case session.ActionTickets:
		page, err := strconv.Atoi(action.Arg(0))
		if err != nil || page < 0 {
			return s.sendMessage(ctx, chatID, texts.ButtonExpired)
		}
		return s.showTickets(ctx, chatID, messageID, page)
	case session.ActionAdminPaid:
		return s.adminSetStatus(ctx, chatID, action.Arg(0), domain.OrderStatusPaid)
	case session.ActionAdminCancel:
		return s.adminSetStatus(ctx, chatID, action.Arg(0), domain.OrderStatusCancelled)
	default:
		return s.sendMessage(ctx, chatID, texts.ButtonExpired)
	}
}

func parseID(arg string) (int64, bool) {
	v, err := strconv.ParseInt(arg, 10, 64)
	return v, err == nil && v > 0
}

func (s *Service) chooseNetwork(ctx context.Context, chatID, messageID int64, network domain.Network) error {
	if len(s.Orders.Pricing.Catalog().Services(network)) == 0 {
		return s.sendKeyboard(ctx, chatID, texts.ButtonExpired, s.mainMenu())
	}
	return s.show(ctx, chatID, messageID, texts.FormatChooseService(network), s.servicesKeyboard(network))
}

func (s *Service) chooseService(ctx context.Context, chatID int64, network domain.Network, service domain.ServiceKey) error {
	entry, err := s.Orders.Pricing.Catalog().Lookup(network, service)
	if err != nil {
		return s.sendKeyboard(ctx, chatID, texts.ButtonExpired, s.mainMenu())
	}

	s.Sessions.Set(chatID, session.Session{
		State:   session.StateAwaitingQuantity,
		Network: network,
		Service: service,
	})
	return s.sendKeyboard(ctx, chatID, texts.FormatAskQuantity(entry), cancelKeyboard())
}

// selection выбор из сессии, если диалог дошёл до решения
func (s *Service) selection(chatID int64) (orders.Selection, bool) {
	state := s.Sessions.Get(chatID)
	if state.State != session.StateAwaitingDecision {
		return orders.Selection{}, false
	}
	return orders.Selection{
		ChatID:   chatID,
		Network:  state.Network,
		Service:  state.Service,
		Quantity: state.Quantity,
		Link:     state.Link,
	}, true
}

func (s *Service) buyNow(ctx context.Context, chatID int64) error {
	sel, ok := s.selection(chatID)
	if !ok {
		return s.sendKeyboard(ctx, chatID, texts.ButtonExpired, s.mainMenu())
	}

	order, err := s.Orders.CreateOrder(ctx, sel)
	if err != nil {
		return s.fail(ctx, chatID, err)
	}
	s.Sessions.Reset(chatID)

	return s.sendKeyboard(ctx, chatID, texts.ChooseAsset, s.assetKeyboard(session.ActionPayOrder, id(order.ID)))
}

func (s *Service) addToCart(ctx context.Context, chatID int64) error {
	sel, ok := s.selection(chatID)
	if !ok {
		return s.sendKeyboard(ctx, chatID, texts.ButtonExpired, s.mainMenu())
	}

	if _, err := s.Orders.AddToCart(ctx, sel); err != nil {
		return s.fail(ctx, chatID, err)
	}
	s.Sessions.Reset(chatID)

	view, err := s.Orders.GetCart(ctx, chatID)
	if err != nil {
		return s.fail(ctx, chatID, err)
	}
	keyboard := domain.InlineKeyboard{{
		button(texts.ButtonCart, session.ActionCart),
		button(texts.ButtonMenu, session.ActionMenu),
	}}
	return s.sendKeyboard(ctx, chatID, texts.FormatAddedToCart(len(view.Items), view.Total), keyboard)
}

func (s *Service) payOrder(ctx context.Context, chatID, orderID int64, asset string) error {
	invoice, err := s.Orders.PayOrder(ctx, chatID, orderID, asset)
	if err != nil {
		return s.fail(ctx, chatID, err)
	}
	return s.sendInvoice(ctx, chatID, invoice)
}

func (s *Service) checkout(ctx context.Context, chatID int64, asset string) error {
	invoice, err := s.Orders.CheckoutCart(ctx, chatID, asset)
	if err != nil {
		return s.fail(ctx, chatID, err)
	}
	return s.sendInvoice(ctx, chatID, invoice)
}

func (s *Service) showCart(ctx context.Context, chatID, messageID int64) error {
	view, err := s.Orders.GetCart(ctx, chatID)
	if err != nil {
		return s.fail(ctx, chatID, err)
	}
	if view.IsEmpty() {
		return s.show(ctx, chatID, messageID, texts.CartEmpty, menuKeyboard())
	}
	return s.show(ctx, chatID, messageID, texts.FormatCart(view.Items, view.Total), cartKeyboard(view.Items))
}

func (s *Service) removeCartItem(ctx context.Context, chatID, messageID, itemID int64) error {
	if err := s.Orders.RemoveFromCart(ctx, chatID, itemID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return s.sendMessage(ctx, chatID, texts.ItemNotFound)
		}
		return s.fail(ctx, chatID, err)
	}
	return s.showCart(ctx, chatID, messageID)
}

func (s *Service) showProfile(ctx context.Context, chatID, messageID int64) error {
	list, err := s.Orders.ListUserOrders(ctx, chatID, s.cfg.ProfileLimit)
	if err != nil {
		return s.fail(ctx, chatID, err)
	}
	if len(list) == 0 {
		return s.show(ctx, chatID, messageID, texts.NoOrders, menuKeyboard())
	}
	return s.show(ctx, chatID, messageID, texts.FormatProfile(list), profileKeyboard(list))
}

func (s *Service) cancelOrder(ctx context.Context, chatID, orderID int64) error {
	if _, err := s.Orders.CancelOrder(ctx, chatID, orderID); err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			return s.sendMessage(ctx, chatID, texts.FormatCannotCancel(orderID))
		}
		return s.fail(ctx, chatID, err)
	}
	return s.sendKeyboard(ctx, chatID, texts.FormatOrderCancelled(orderID), menuKeyboard())
}

func (s *Service) startSupport(ctx context.Context, chatID int64) error {
	s.Sessions.Set(chatID, session.Session{State: session.StateAwaitingSupportMessage})
	return s.sendKeyboard(ctx, chatID, texts.SupportPrompt, cancelKeyboard())
}

func (s *Service) startReply(ctx context.Context, chatID, requestID int64) error {
	ok, err := s.Support.IsOperator(ctx, chatID)
	if err != nil {
		return s.fail(ctx, chatID, err)
	}
	if !ok {
		return s.sendMessage(ctx, chatID, texts.NotOperator)
	}

	request, err := s.Support.SupportRepo.GetRequest(ctx, requestID)
	if err != nil {
		return s.fail(ctx, chatID, err)
	}
	if request.Status != domain.SupportStatusOpen {
		return s.sendMessage(ctx, chatID, texts.RequestAlreadyClosed)
	}

	s.Sessions.Set(chatID, session.Session{
		State:         session.StateAwaitingOperatorReply,
		RequestID:     request.ID,
		ReplyToChatID: request.ChatID,
	})
	return s.sendKeyboard(ctx, chatID, texts.FormatReplyPrompt(request.ID), cancelKeyboard())
}

func (s *Service) closeTicket(ctx context.Context, chatID, requestID int64) error {
	closed, err := s.Support.Close(ctx, chatID, requestID)
	if err != nil {
		return s.fail(ctx, chatID, err)
	}
	if !closed {
		return s.sendMessage(ctx, chatID, texts.RequestAlreadyClosed)
	}
	return s.sendMessage(ctx, chatID, texts.FormatRequestClosed(requestID))
}

func (s *Service) adminSetStatus(ctx context.Context, chatID int64, arg string, status domain.OrderStatus) error {
	if !s.Admin.IsAdmin(chatID) {
		return s.sendMessage(ctx, chatID, texts.NotAdmin)
	}
	orderID, ok := parseID(arg)
	if !ok {
		return s.sendMessage(ctx, chatID, texts.ButtonExpired)
	}

	order, err := s.Admin.SetOrderStatus(ctx, chatID, orderID, status)
	if err != nil {
		return s.fail(ctx, chatID, err)
	}
	return s.sendMessage(ctx, chatID, texts.FormatAdminStatusChanged(*order))
}
