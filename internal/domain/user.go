package domain

import (
	"strconv"
	"strings"
	"time"
)

type User struct {
	ChatID    int64     `json:"chat_id" db:"chat_id"`
	Username  *string   `json:"username,omitempty" db:"username"`
	FirstName *string   `json:"first_name,omitempty" db:"first_name"`
	LastName  *string   `json:"last_name,omitempty" db:"last_name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// DisplayName имя для сообщений операторам
func (u *User) DisplayName() string {
	if u.Username != nil && *u.Username != "" {
		return "@" + *u.Username
	}

	parts := make([]string, 0, 2)
	if u.FirstName != nil && *u.FirstName != "" {
		parts = append(parts, *u.FirstName)
	}
	if u.LastName != nil && *u.LastName != "" {
		parts = append(parts, *u.LastName)
	}
	if len(parts) == 0 {
		return "id" + strconv.FormatInt(u.ChatID, 10)
	}
	return strings.Join(parts, " ")
}

// UserFromTelegram собирает пользователя из данных Telegram
func UserFromTelegram(tgUser *TelegramUser, chat *Chat) *User {
	user := &User{}
	if chat != nil {
		user.ChatID = chat.ID
	}
	if tgUser == nil {
		return user
	}
	if user.ChatID == 0 {
		user.ChatID = tgUser.ID
	}
	firstName := tgUser.FirstName
	user.FirstName = &firstName
	user.LastName = tgUser.LastName
	user.Username = tgUser.Username
	return user
}
