package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	TgClient "github.com/N1seb/Render/internal/adapters/secondary/telegram"
	"github.com/N1seb/Render/internal/domain"
	"github.com/N1seb/Render/internal/ports/telegram"
)

// Sender логирует исходящие вызовы Telegram. Пользователь, заблокировавший бота,
// пишется в Warn, остальные ошибки в Error
type Sender struct {
	Client telegram.IChatGateway
	Log    *slog.Logger
}

func NewSender(client telegram.IChatGateway, log *slog.Logger) *Sender {
	return &Sender{
		Client: client,
		Log:    log.With("component", "telegram_sender"),
	}
}

// SendMessage отправляет текстовое сообщение пользователю
func (s *Sender) SendMessage(ctx context.Context, chatID int64, text string) (int64, error) {
	messageID, err := s.Client.SendMessage(ctx, chatID, text)
	if err != nil {
		s.logFailure(err, "failed to send message", "chat_id", chatID)
		return 0, fmt.Errorf("failed to send message: %w", err)
	}

	s.Log.Debug("message sent successfully",
		"chat_id", chatID,
		"message_id", messageID,
	)
	return messageID, nil
}

// SendMessageWithKeyboard отправляет сообщение с клавиатурой
func (s *Sender) SendMessageWithKeyboard(ctx context.Context, chatID int64, text string, keyboard domain.InlineKeyboard) (int64, error) {
	messageID, err := s.Client.SendMessageWithKeyboard(ctx, chatID, text, keyboard)
	if err != nil {
		s.logFailure(err, "failed to send message with keyboard", "chat_id", chatID)
		return 0, fmt.Errorf("failed to send message with keyboard: %w", err)
	}

	s.Log.Debug("message with keyboard sent successfully",
		"chat_id", chatID,
		"message_id", messageID,
	)
	return messageID, nil
}

// EditMessageText ошибка редактирования ожидаема (сообщение старое или не изменилось),
// поэтому только Debug
func (s *Sender) EditMessageText(ctx context.Context, chatID, messageID int64, text string, keyboard domain.InlineKeyboard) error {
	if err := s.Client.EditMessageText(ctx, chatID, messageID, text, keyboard); err != nil {
		s.Log.Debug("failed to edit message",
			"error", err,
			"chat_id", chatID,
			"message_id", messageID,
		)
		return fmt.Errorf("failed to edit message: %w", err)
	}
	return nil
}

// AnswerCallbackQuery отправляет ответ на callback query
func (s *Sender) AnswerCallbackQuery(ctx context.Context, callbackID string, text string, showAlert bool) error {
	if err := s.Client.AnswerCallbackQuery(ctx, callbackID, text, showAlert); err != nil {
		s.logFailure(err, "failed to answer callback query", "callback_id", callbackID)
		return fmt.Errorf("failed to answer callback query: %w", err)
	}

	s.Log.Debug("callback query answered successfully",
		"callback_id", callbackID,
	)
	return nil
}

func (s *Sender) SendPhoto(ctx context.Context, chatID int64, photo []byte, filename, caption string) error {
	if err := s.Client.SendPhoto(ctx, chatID, photo, filename, caption); err != nil {
		s.logFailure(err, "failed to send photo", "chat_id", chatID, "size", len(photo))
		return fmt.Errorf("failed to send photo: %w", err)
	}

	s.Log.Debug("photo sent successfully", "chat_id", chatID)
	return nil
}

func (s *Sender) SendPhotoURL(ctx context.Context, chatID int64, photoURL, caption string) error {
	if err := s.Client.SendPhotoURL(ctx, chatID, photoURL, caption); err != nil {
		s.logFailure(err, "failed to send photo by url", "chat_id", chatID)
		return fmt.Errorf("failed to send photo by url: %w", err)
	}

	s.Log.Debug("photo by url sent successfully", "chat_id", chatID)
	return nil
}

func (s *Sender) SendMedia(ctx context.Context, chatID int64, kind domain.MessageKind, fileID, caption string) error {
	if err := s.Client.SendMedia(ctx, chatID, kind, fileID, caption); err != nil {
		s.logFailure(err, "failed to send media", "chat_id", chatID, "kind", kind)
		return fmt.Errorf("failed to send %s: %w", kind, err)
	}

	s.Log.Debug("media sent successfully", "chat_id", chatID, "kind", kind)
	return nil
}

func (s *Sender) logFailure(err error, msg string, args ...any) {
	args = append(args, "error", err)

	var apiErr *TgClient.APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusForbidden {
		s.Log.Warn(msg+": chat unavailable", args...)
		return
	}
	s.Log.Error(msg, args...)
}
