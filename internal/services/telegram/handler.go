package telegram

import (
	"context"
	"fmt"
	"strings"

	"github.com/N1seb/Render/internal/domain"
	"github.com/N1seb/Render/internal/pkg/logger"
	"github.com/N1seb/Render/internal/usecases/texts"
)

// HandleEvent точка входа из диспетчера событий
func (s *Service) HandleEvent(ctx context.Context, event domain.InboundEvent) error {
	return s.HandleUpdate(ctx, event.Update)
}

// HandleUpdate Основной метод для обработки всех типов обновлений
func (s *Service) HandleUpdate(ctx context.Context, update *domain.Update) error {
	if update == nil {
		return fmt.Errorf("update is nil")
	}
	ctx = logger.ContextWith(ctx, "update_id", update.UpdateID, "chat_id", update.ChatID())

	switch {
	case update.Message != nil:
		return s.HandleMessage(ctx, update.Message, update.UpdateID)
	case update.CallbackQuery != nil:
		return s.HandleCallbackQuery(ctx, update.CallbackQuery, update.UpdateID)
	default:
		s.Log.Debug("ignoring unsupported update", "update_id", update.UpdateID)
		return nil
	}
}

// HandleMessage обрабатывает входящее сообщение - роутинг в usecase
func (s *Service) HandleMessage(ctx context.Context, message *domain.Message, updateID int64) error {
	if message.From == nil || message.From.IsBot {
		s.Log.Debug("ignoring message from bot", "update_id", updateID)
		return nil
	}

	if message.Chat == nil || message.Chat.Type != "private" {
		s.Log.Warn("ignoring message from group/chat",
			"update_id", updateID,
			"chat_id", chatIDOf(message.Chat),
		)
		return nil
	}

	chatID := message.Chat.ID
	// лимит до захвата чата: лишние апдейты не ждут в очереди за блокировкой
	if !s.Sessions.Allow(chatID) {
		s.Log.Warn("chat rate limited", "chat_id", chatID, "update_id", updateID)
		if _, err := s.Gateway.SendMessage(ctx, chatID, texts.TooManyRequests); err != nil {
			s.Log.Debug("failed to send rate limit notice", "error", err, "chat_id", chatID)
		}
		return nil
	}

	unlock := s.Sessions.Lock(chatID)
	defer unlock()

	user, err := s.Bot.GetOrCreateUser(ctx, message.From, message.Chat)
	if err != nil {
		s.Log.Error("failed to get or create user",
			"error", err,
			"telegram_user_id", message.From.ID,
			"update_id", updateID,
		)
		return fmt.Errorf("failed to get or create user: %w", err)
	}

	if message.Text != nil && IsCommand(*message.Text) {
		command, args := ParseCommand(*message.Text)
		s.Log.Debug("command received", "chat_id", chatID, "command", command)
		return s.Bot.HandleCommand(ctx, user, command, args)
	}

	return s.Bot.HandleMessage(ctx, user, message)
}

// HandleCallbackQuery нажатие кнопки. Сообщение с кнопкой может быть недоступно,
// тогда чат определяется по отправителю
func (s *Service) HandleCallbackQuery(ctx context.Context, callback *domain.CallbackQuery, updateID int64) error {
	if callback.From == nil || callback.From.IsBot {
		s.Log.Debug("ignoring callback from bot", "update_id", updateID)
		return nil
	}

	chat := &domain.Chat{ID: callback.From.ID, Type: "private"}
	if callback.Message != nil && callback.Message.Chat != nil {
		chat = callback.Message.Chat
	}
	if chat.Type != "private" {
		s.Log.Warn("ignoring callback from group/chat", "update_id", updateID, "chat_id", chat.ID)
		return nil
	}

	if !s.Sessions.Allow(chat.ID) {
		s.Log.Warn("chat rate limited", "chat_id", chat.ID, "update_id", updateID)
		if err := s.Gateway.AnswerCallbackQuery(ctx, callback.ID, texts.TooManyRequests, false); err != nil {
			s.Log.Debug("failed to answer rate limited callback", "error", err, "chat_id", chat.ID)
		}
		return nil
	}

	unlock := s.Sessions.Lock(chat.ID)
	defer unlock()

	user, err := s.Bot.GetOrCreateUser(ctx, callback.From, chat)
	if err != nil {
		s.Log.Error("failed to get or create user",
			"error", err,
			"telegram_user_id", callback.From.ID,
			"update_id", updateID,
		)
		return fmt.Errorf("failed to get or create user: %w", err)
	}

	return s.Bot.HandleCallback(ctx, user, callback)
}

// ParseCommand имя команды без слэша и упоминания бота, и остаток строки
func ParseCommand(text string) (command, args string) {
	text = strings.TrimPrefix(strings.TrimSpace(text), "/")

	if idx := strings.IndexAny(text, " \n"); idx != -1 {
		args = strings.TrimSpace(text[idx+1:])
		text = text[:idx]
	}

	if idx := strings.Index(text, "@"); idx != -1 {
		text = text[:idx]
	}

	return strings.ToLower(text), args
}

func IsCommand(text string) bool {
	return len(text) > 1 && text[0] == '/'
}

func chatIDOf(chat *domain.Chat) int64 {
	if chat == nil {
		return 0
	}
	return chat.ID
}
