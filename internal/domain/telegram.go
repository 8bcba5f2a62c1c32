package domain

// дока - https://core.telegram.org/bots/api

// Update - входящее обновление от Telegram Bot API
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

// ChatID чат, к которому относится обновление
func (u *Update) ChatID() int64 {
	switch {
	case u.Message != nil && u.Message.Chat != nil:
		return u.Message.Chat.ID
	case u.CallbackQuery != nil && u.CallbackQuery.Message != nil && u.CallbackQuery.Message.Chat != nil:
		return u.CallbackQuery.Message.Chat.ID
	case u.CallbackQuery != nil && u.CallbackQuery.From != nil:
		return u.CallbackQuery.From.ID
	default:
		return 0
	}
}

// CallbackQuery - нажатие inline кнопки
type CallbackQuery struct {
	ID      string        `json:"id"`
	From    *TelegramUser `json:"from,omitempty"`
	Message *Message      `json:"message,omitempty"`
	Data    *string       `json:"data,omitempty"`
}

// Message - сообщение от Telegram Bot API
type Message struct {
	MessageID int64         `json:"message_id"`
	From      *TelegramUser `json:"from,omitempty"`
	Chat      *Chat         `json:"chat"`
	Date      int64         `json:"date"`
	Text      *string       `json:"text,omitempty"`
	Caption   *string       `json:"caption,omitempty"`
	Entities  []Entity      `json:"entities,omitempty"`
	Photo     []PhotoSize   `json:"photo,omitempty"`
	Document  *FileRef      `json:"document,omitempty"`
	Voice     *FileRef      `json:"voice,omitempty"`
	Audio     *FileRef      `json:"audio,omitempty"`
	Video     *FileRef      `json:"video,omitempty"`
}

// Attachment тип и file_id вложения, если оно есть
func (m *Message) Attachment() (MessageKind, string, bool) {
	switch {
	case len(m.Photo) > 0:
		// последний размер самый большой
		return MessageKindPhoto, m.Photo[len(m.Photo)-1].FileID, true
	case m.Document != nil:
		return MessageKindDocument, m.Document.FileID, true
	case m.Voice != nil:
		return MessageKindVoice, m.Voice.FileID, true
	case m.Audio != nil:
		return MessageKindAudio, m.Audio.FileID, true
	case m.Video != nil:
		return MessageKindVideo, m.Video.FileID, true
	default:
		return "", "", false
	}
}

// Body текст или подпись к вложению
func (m *Message) Body() string {
	if m.Text != nil {
		return *m.Text
	}
	if m.Caption != nil {
		return *m.Caption
	}
	return ""
}

// TelegramUser - пользователь Telegram (не domain.User)
type TelegramUser struct {
	ID           int64   `json:"id"`
	IsBot        bool    `json:"is_bot"`
	FirstName    string  `json:"first_name"`
	LastName     *string `json:"last_name,omitempty"`
	Username     *string `json:"username,omitempty"`
	LanguageCode *string `json:"language_code,omitempty"`
}

// Chat - чат в Telegram
type Chat struct {
	ID        int64   `json:"id"`
	Type      string  `json:"type"` // "private", "group", "supergroup", "channel"
	Title     *string `json:"title,omitempty"`
	Username  *string `json:"username,omitempty"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}

// Entity - сущность в сообщении (команда, упоминание и т.д.)
type Entity struct {
	Type   string `json:"type"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
}

type PhotoSize struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
}

// FileRef документ, голосовое, аудио или видео
type FileRef struct {
	FileID       string  `json:"file_id"`
	FileUniqueID string  `json:"file_unique_id"`
	MimeType     *string `json:"mime_type,omitempty"`
}

// InlineButton кнопка inline клавиатуры: либо callback, либо ссылка
type InlineButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data,omitempty"`
	URL          string `json:"url,omitempty"`
}

// InlineKeyboard ряды кнопок
type InlineKeyboard [][]InlineButton

// Markup reply_markup для Bot API
func (k InlineKeyboard) Markup() map[string]interface{} {
	if len(k) == 0 {
		return nil
	}
	return map[string]interface{}{"inline_keyboard": k}
}
