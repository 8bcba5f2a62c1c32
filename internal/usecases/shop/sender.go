package shop

import (
	"context"
	"errors"

	"github.com/N1seb/Render/internal/domain"
	"github.com/N1seb/Render/internal/usecases/orders"
	"github.com/N1seb/Render/internal/usecases/texts"
)

func (s *Service) sendMessage(ctx context.Context, chatID int64, text string) error {
	if _, err := s.Gateway.SendMessage(ctx, chatID, text); err != nil {
		s.Log.Warn("failed to send message", "error", err, "chat_id", chatID)
		return err
	}
	return nil
}

func (s *Service) sendKeyboard(ctx context.Context, chatID int64, text string, keyboard domain.InlineKeyboard) error {
	if _, err := s.Gateway.SendMessageWithKeyboard(ctx, chatID, text, keyboard); err != nil {
		s.Log.Warn("failed to send message with keyboard", "error", err, "chat_id", chatID)
		return err
	}
	return nil
}

// show редактирует сообщение с кнопкой, если оно есть, иначе шлёт новое
func (s *Service) show(ctx context.Context, chatID, messageID int64, text string, keyboard domain.InlineKeyboard) error {
	if messageID > 0 {
		err := s.Gateway.EditMessageText(ctx, chatID, messageID, text, keyboard)
		if err == nil {
			return nil
		}
		s.Log.Debug("edit failed, sending new message", "error", err, "chat_id", chatID, "message_id", messageID)
	}
	return s.sendKeyboard(ctx, chatID, text, keyboard)
}

// sendInvoice ссылка на оплату кнопкой, затем QR-код той же ссылки
func (s *Service) sendInvoice(ctx context.Context, chatID int64, invoice *orders.Invoice) error {
	text := texts.FormatInvoice(invoice.Asset, invoice.Amount, invoice.TotalUSD, domain.OrderIDs(invoice.Orders))
	keyboard := domain.InlineKeyboard{{urlButton(texts.ButtonPay, invoice.PayURL)}}
	if err := s.sendKeyboard(ctx, chatID, text, keyboard); err != nil {
		return err
	}

	if s.QR != nil {
		if err := s.QR.SendPaymentQR(ctx, chatID, invoice.InvoiceID, invoice.PayURL); err != nil {
			s.Log.Warn("failed to send payment qr", "error", err, "chat_id", chatID, "invoice_id", invoice.InvoiceID)
		}
	}
	return nil
}

// fail переводит ошибку в сообщение пользователю. Каждая ветка заканчивается ответом в чат
func (s *Service) fail(ctx context.Context, chatID int64, err error) error {
	text, known := userText(err)
	if known {
		s.Log.Info("request rejected", "reason", err.Error(), "chat_id", chatID)
	} else {
		s.Log.Error("request failed", "error", err, "chat_id", chatID)
	}

	if sendErr := s.sendMessage(ctx, chatID, text); sendErr != nil {
		return errors.Join(err, sendErr)
	}
	if known {
		return nil
	}
	return err
}

// userText текст ошибки для пользователя, false для неожиданных ошибок
func userText(err error) (string, bool) {
	if message, ok := domain.UserMessage(err); ok {
		return message, true
	}

	switch {
	case domain.IsGatewayError(err):
		return texts.InvoiceFailed, true
	case errors.Is(err, domain.ErrUnsupportedAsset):
		return texts.UnsupportedAsset, true
	case errors.Is(err, domain.ErrEmptyCart):
		return texts.CartEmpty, true
	case errors.Is(err, domain.ErrInvalidTransition):
		return texts.OrderNotPayable, true
	case errors.Is(err, domain.ErrNotFound):
		return texts.OrderNotFound, true
	case errors.Is(err, domain.ErrInvalidLink):
		return texts.InvalidLink, true
	case errors.Is(err, domain.ErrUnknownService):
		return texts.ButtonExpired, true
	case errors.Is(err, domain.ErrForbidden):
		return texts.NotOperator, true
	default:
		return texts.GenericError, false
	}
}
