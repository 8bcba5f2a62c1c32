package shop

import (
	"context"
	"errors"

	"github.com/N1seb/Render/internal/domain"
	"github.com/N1seb/Render/internal/usecases/pricing"
	"github.com/N1seb/Render/internal/usecases/session"
	"github.com/N1seb/Render/internal/usecases/support"
	"github.com/N1seb/Render/internal/usecases/texts"
)

// HandleMessage текст или вложение вне команды. Смысл зависит от шага диалога
func (s *Service) HandleMessage(ctx context.Context, user *domain.User, message *domain.Message) error {
	state := s.Sessions.Get(user.ChatID)

	switch state.State {
	case session.StateAwaitingQuantity:
		return s.handleQuantity(ctx, user.ChatID, state, message.Body())
	case session.StateAwaitingLink:
		return s.handleLink(ctx, user.ChatID, state, message.Body())
	case session.StateAwaitingSupportMessage:
		return s.handleSupportMessage(ctx, user, message)
	case session.StateAwaitingOperatorReply:
		return s.handleOperatorReply(ctx, user, state, message)
	case session.StateAwaitingDecision:
		return s.sendKeyboard(ctx, user.ChatID, texts.UnknownInput, decisionKeyboard())
	default:
		return s.sendKeyboard(ctx, user.ChatID, texts.UnknownInput, s.mainMenu())
	}
}

// handleQuantity неверное количество: повторный вопрос, шаг не меняется
func (s *Service) handleQuantity(ctx context.Context, chatID int64, state session.Session, text string) error {
	entry, err := s.Orders.Pricing.Catalog().Lookup(state.Network, state.Service)
	if err != nil {
		s.Sessions.Reset(chatID)
		return s.sendKeyboard(ctx, chatID, texts.ButtonExpired, s.mainMenu())
	}

	quantity, err := pricing.ParseQuantity(text)
	if err == nil {
		_, err = pricing.PriceOf(entry, quantity)
	}
	if err != nil {
		if errors.Is(err, domain.ErrInvalidQuantity) {
			return s.sendKeyboard(ctx, chatID, texts.FormatInvalidQuantity(entry.Min), cancelKeyboard())
		}
		return s.fail(ctx, chatID, err)
	}

	state.Quantity = quantity
	state.State = session.StateAwaitingLink
	s.Sessions.Set(chatID, state)
	return s.sendKeyboard(ctx, chatID, texts.AskLink, cancelKeyboard())
}

func (s *Service) handleLink(ctx context.Context, chatID int64, state session.Session, text string) error {
	link, err := pricing.ValidateLink(text)
	if err != nil {
		return s.sendKeyboard(ctx, chatID, texts.InvalidLink, cancelKeyboard())
	}

	entry, err := s.Orders.Pricing.Catalog().Lookup(state.Network, state.Service)
	if err != nil {
		s.Sessions.Reset(chatID)
		return s.sendKeyboard(ctx, chatID, texts.ButtonExpired, s.mainMenu())
	}
	price, err := pricing.PriceOf(entry, state.Quantity)
	if err != nil {
		return s.fail(ctx, chatID, err)
	}

	state.Link = link
	state.State = session.StateAwaitingDecision
	s.Sessions.Set(chatID, state)
	return s.sendKeyboard(ctx, chatID, texts.FormatSelection(entry, state.Quantity, link, price), decisionKeyboard())
}

func (s *Service) handleSupportMessage(ctx context.Context, user *domain.User, message *domain.Message) error {
	msg, ok := supportMessage(user.ChatID, message)
	if !ok {
		return s.sendKeyboard(ctx, user.ChatID, texts.SupportUnsupportedContent, cancelKeyboard())
	}
	msg.From = user.DisplayName()

	request, err := s.Support.Submit(ctx, msg)
	if err != nil {
		return s.fail(ctx, user.ChatID, err)
	}

	s.Sessions.Reset(user.ChatID)
	return s.sendKeyboard(ctx, user.ChatID, texts.FormatSupportAccepted(request.ID), menuKeyboard())
}

func (s *Service) handleOperatorReply(ctx context.Context, user *domain.User, state session.Session, message *domain.Message) error {
	msg, ok := supportMessage(user.ChatID, message)
	if !ok {
		return s.sendKeyboard(ctx, user.ChatID, texts.SupportUnsupportedContent, cancelKeyboard())
	}

	_, err := s.Support.Reply(ctx, user.ChatID, state.RequestID, msg)
	s.Sessions.Reset(user.ChatID)
	if err != nil {
		if errors.Is(err, support.ErrRequestClosed) {
			return s.sendMessage(ctx, user.ChatID, texts.RequestAlreadyClosed)
		}
		return s.fail(ctx, user.ChatID, err)
	}
	return s.sendMessage(ctx, user.ChatID, texts.ReplySent)
}

// supportMessage текст и вложение. false, если нет ни того, ни другого (стикер, контакт)
func supportMessage(chatID int64, message *domain.Message) (support.Message, bool) {
	msg := support.Message{ChatID: chatID, Text: message.Body(), Kind: domain.MessageKindText}
	if kind, fileID, ok := message.Attachment(); ok {
		msg.Kind = kind
		msg.FileID = fileID
	}
	if msg.Text == "" && msg.FileID == "" {
		return msg, false
	}
	return msg, true
}
