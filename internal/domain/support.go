package domain

import "time"

// SupportStatus статус обращения
type SupportStatus string

const (
	SupportStatusOpen   SupportStatus = "open"
	SupportStatusClosed SupportStatus = "closed"
)

// SupportRequest обращение пользователя в поддержку
type SupportRequest struct {
	ID        int64         `json:"id" db:"id"`
	ChatID    int64         `json:"chat_id" db:"chat_id"`
	Text      string        `json:"text" db:"text"`
	Status    SupportStatus `json:"status" db:"status"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" db:"updated_at"`
}

// MessageDirection направление сообщения в обращении
type MessageDirection string

const (
	DirectionUserToOperator MessageDirection = "user_to_operator"
	DirectionOperatorToUser MessageDirection = "operator_to_user"
)

// MessageKind тип вложения
type MessageKind string

const (
	MessageKindText     MessageKind = "text"
	MessageKindPhoto    MessageKind = "photo"
	MessageKindDocument MessageKind = "document"
	MessageKindVoice    MessageKind = "voice"
	MessageKindAudio    MessageKind = "audio"
	MessageKindVideo    MessageKind = "video"
)

// SupportMessage запись переписки, только добавляется
type SupportMessage struct {
	ID         int64            `json:"id" db:"id"`
	RequestID  int64            `json:"request_id" db:"request_id"`
	FromChatID int64            `json:"from_chat_id" db:"from_chat_id"`
	ToChatID   *int64           `json:"to_chat_id,omitempty" db:"to_chat_id"`
	Direction  MessageDirection `json:"direction" db:"direction"`
	Kind       MessageKind      `json:"kind" db:"kind"`
	Text       *string          `json:"text,omitempty" db:"text"`
	FileID     *string          `json:"file_id,omitempty" db:"file_id"`
	CreatedAt  time.Time        `json:"created_at" db:"created_at"`
}

// Operator оператор поддержки
type Operator struct {
	ChatID      int64     `json:"chat_id" db:"chat_id"`
	Username    *string   `json:"username,omitempty" db:"username"`
	DisplayName string    `json:"display_name" db:"display_name"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Page страница списка
type Page[T any] struct {
	Items  []T
	Total  int
	Offset int
	Limit  int
}

func (p Page[T]) HasNext() bool {
	return p.Offset+len(p.Items) < p.Total
}

func (p Page[T]) HasPrev() bool {
	return p.Offset > 0
}
