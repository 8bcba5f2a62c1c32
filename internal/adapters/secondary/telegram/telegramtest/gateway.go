// Package telegramtest запись исходящих сообщений бота для тестов
package telegramtest

import (
	"context"
	"errors"
	"sync"

	"github.com/N1seb/Render/internal/domain"
)

// Outbound исходящее сообщение
type Outbound struct {
	ChatID   int64
	Text     string
	Keyboard domain.InlineKeyboard
	Kind     domain.MessageKind
	FileID   string
	Photo    []byte
	EditedID int64
}

// Gateway записывает исходящие вызовы. Чаты из Blocked отвечают ошибкой, как заблокировавший бота пользователь
type Gateway struct {
	mu      sync.Mutex
	sent    []Outbound
	answers []string
	Blocked map[int64]bool
	EditErr error
}

func NewGateway() *Gateway {
	return &Gateway{Blocked: map[int64]bool{}}
}

func (g *Gateway) push(o Outbound) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Blocked[o.ChatID] {
		return errors.New("Forbidden: bot was blocked by the user")
	}
	g.sent = append(g.sent, o)
	return nil
}

// To сообщения в чат в порядке отправки
func (g *Gateway) To(chatID int64) []Outbound {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []Outbound
	for _, o := range g.sent {
		if o.ChatID == chatID {
			out = append(out, o)
		}
	}
	return out
}

func (g *Gateway) SendMessage(_ context.Context, chatID int64, text string) (int64, error) {
	return 1, g.push(Outbound{ChatID: chatID, Text: text})
}

func (g *Gateway) SendMessageWithKeyboard(_ context.Context, chatID int64, text string, kb domain.InlineKeyboard) (int64, error) {
	return 1, g.push(Outbound{ChatID: chatID, Text: text, Keyboard: kb})
}

func (g *Gateway) EditMessageText(_ context.Context, chatID, messageID int64, text string, kb domain.InlineKeyboard) error {
	if g.EditErr != nil {
		return g.EditErr
	}
	return g.push(Outbound{ChatID: chatID, Text: text, Keyboard: kb, EditedID: messageID})
}

func (g *Gateway) AnswerCallbackQuery(_ context.Context, callbackID, text string, _ bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.answers = append(g.answers, callbackID+":"+text)
	return nil
}

func (g *Gateway) SendPhoto(_ context.Context, chatID int64, photo []byte, _, caption string) error {
	return g.push(Outbound{ChatID: chatID, Text: caption, Kind: domain.MessageKindPhoto, Photo: photo})
}

func (g *Gateway) SendPhotoURL(_ context.Context, chatID int64, url, caption string) error {
	return g.push(Outbound{ChatID: chatID, Text: caption, Kind: domain.MessageKindPhoto, FileID: url})
}

func (g *Gateway) SendMedia(_ context.Context, chatID int64, kind domain.MessageKind, fileID, caption string) error {
	return g.push(Outbound{ChatID: chatID, Text: caption, Kind: kind, FileID: fileID})
}


// Last последнее сообщение в чат
func (g *Gateway) Last(chatID int64) (Outbound, bool) {
	sent := g.To(chatID)
	if len(sent) == 0 {
		return Outbound{}, false
	}
	return sent[len(sent)-1], true
}

// Answers ответы на callback в виде id:text
func (g *Gateway) Answers() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.answers...)
}

func (g *Gateway) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = nil
	g.answers = nil
}

// Buttons callback_data и url всех кнопок клавиатуры подряд
func (o Outbound) Buttons() []string {
	var out []string
	for _, row := range o.Keyboard {
		for _, b := range row {
			if b.URL != "" {
				out = append(out, b.URL)
				continue
			}
			out = append(out, b.CallbackData)
		}
	}
	return out
}
