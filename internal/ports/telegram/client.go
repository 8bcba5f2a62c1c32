package telegram

import (
	"context"

	"github.com/N1seb/Render/internal/domain"
)

// IChatGateway исходящие вызовы в Telegram. Доставка не гарантируется,
// ошибки логируются вызывающей стороной
type IChatGateway interface {
	SendMessage(ctx context.Context, chatID int64, text string) (int64, error)
	SendMessageWithKeyboard(ctx context.Context, chatID int64, text string, keyboard domain.InlineKeyboard) (int64, error)
	EditMessageText(ctx context.Context, chatID, messageID int64, text string, keyboard domain.InlineKeyboard) error
	AnswerCallbackQuery(ctx context.Context, callbackID string, text string, showAlert bool) error
	SendPhoto(ctx context.Context, chatID int64, photo []byte, filename, caption string) error
	SendPhotoURL(ctx context.Context, chatID int64, photoURL, caption string) error
	// SendMedia пересылает вложение по file_id
	SendMedia(ctx context.Context, chatID int64, kind domain.MessageKind, fileID, caption string) error
}
