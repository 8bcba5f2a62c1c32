package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/N1seb/Render/internal/domain"
)

const (
	telegramAPIBaseURL = "https://api.telegram.org"
	apiTimeout         = 30 * time.Second
)

// Client клиент для работы с Telegram Bot API
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	log        *slog.Logger
}

type Option func(*Client)

// WithAPIBaseURL другой адрес Bot API (локальный bot-api сервер, тесты)
func WithAPIBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = strings.TrimRight(url, "/") + "/bot" + c.token
		}
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient создаёт новый клиент для Telegram Bot API
func NewClient(token string, log *slog.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: apiTimeout,
		},
		baseURL: telegramAPIBaseURL + "/bot" + token,
		token:   token,
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SendMessageRequest запрос на отправку сообщения
type SendMessageRequest struct {
	ChatID                int64                  `json:"chat_id"`
	Text                  string                 `json:"text"`
	ParseMode             string                 `json:"parse_mode,omitempty"` // "HTML", "Markdown", "MarkdownV2"
	ReplyMarkup           map[string]interface{} `json:"reply_markup,omitempty"`
	MessageThreadID       *int64                 `json:"message_thread_id,omitempty"`
	DisableWebPagePreview bool                   `json:"disable_web_page_preview,omitempty"`
}

// SendMessageResult результат отправки сообщения
type SendMessageResult struct {
	MessageID int64 `json:"message_id"`
	Chat      struct {
		ID int64 `json:"id"`
	} `json:"chat"`
	Text string `json:"text"`
	Date int64  `json:"date"`
}

// SendMessage отправляет текстовое сообщение, возвращает message_id
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) (int64, error) {
	result, err := c.SendMessageWithRequest(ctx, SendMessageRequest{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		return 0, err
	}
	return result.MessageID, nil
}

// SendMessageWithKeyboard отправляет сообщение с inline клавиатурой
func (c *Client) SendMessageWithKeyboard(ctx context.Context, chatID int64, text string, keyboard domain.InlineKeyboard) (int64, error) {
	result, err := c.SendMessageWithRequest(ctx, SendMessageRequest{
		ChatID:                chatID,
		Text:                  text,
		ReplyMarkup:           keyboard.Markup(),
		DisableWebPagePreview: true,
	})
	if err != nil {
		return 0, err
	}
	return result.MessageID, nil
}

// SendMessageWithRequest отправляет сообщение с произвольными параметрами
func (c *Client) SendMessageWithRequest(ctx context.Context, req SendMessageRequest) (*SendMessageResult, error) {
	var result SendMessageResult
	if err := c.call(ctx, "sendMessage", req, &result); err != nil {
		c.log.Error("failed to send message",
			"error", err,
			"chat_id", req.ChatID,
		)
		return nil, err
	}

	c.log.Debug("message sent successfully",
		"chat_id", req.ChatID,
		"message_id", result.MessageID,
	)
	return &result, nil
}

type editMessageTextRequest struct {
	ChatID      int64                  `json:"chat_id"`
	MessageID   int64                  `json:"message_id"`
	Text        string                 `json:"text"`
	ReplyMarkup map[string]interface{} `json:"reply_markup,omitempty"`
}

// EditMessageText заменяет текст и кнопки ранее отправленного сообщения
func (c *Client) EditMessageText(ctx context.Context, chatID, messageID int64, text string, keyboard domain.InlineKeyboard) error {
	req := editMessageTextRequest{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        text,
		ReplyMarkup: keyboard.Markup(),
	}

	if err := c.call(ctx, "editMessageText", req, nil); err != nil {
		c.log.Warn("failed to edit message",
			"error", err,
			"chat_id", chatID,
			"message_id", messageID,
		)
		return err
	}
	return nil
}

// GetMe проверяет токен бота
func (c *Client) GetMe(ctx context.Context) (*domain.TelegramUser, error) {
	var me domain.TelegramUser
	if err := c.call(ctx, "getMe", nil, &me); err != nil {
		return nil, err
	}

	c.log.Info("bot info retrieved successfully", "bot_id", me.ID)
	return &me, nil
}

// BotCommand представляет команду бота
type BotCommand struct {
	Command     string `json:"command"`
	Description string `json:"description"`
}

// SetMyCommands регистрирует команды бота в меню
func (c *Client) SetMyCommands(ctx context.Context, commands []BotCommand) error {
	reqBody := struct {
		Commands []BotCommand `json:"commands"`
	}{
		Commands: commands,
	}

	if err := c.call(ctx, "setMyCommands", reqBody, nil); err != nil {
		return err
	}

	c.log.Info("bot commands registered successfully", "commands_count", len(commands))
	return nil
}

type setWebhookRequest struct {
	URL                string   `json:"url"`
	SecretToken        string   `json:"secret_token,omitempty"`
	AllowedUpdates     []string `json:"allowed_updates,omitempty"`
	DropPendingUpdates bool     `json:"drop_pending_updates,omitempty"`
}

// AllowedUpdates типы апдейтов, которые обрабатывает бот
var AllowedUpdates = []string{"message", "callback_query"}

// SetWebhook регистрирует адрес вебхука
func (c *Client) SetWebhook(ctx context.Context, url, secret string) error {
	req := setWebhookRequest{
		URL:            url,
		SecretToken:    secret,
		AllowedUpdates: AllowedUpdates,
	}
	if err := c.call(ctx, "setWebhook", req, nil); err != nil {
		return err
	}

	c.log.Info("webhook registered", "url", url)
	return nil
}

// DeleteWebhook удаляет webhook (нужно вызывать перед запуском polling)
func (c *Client) DeleteWebhook(ctx context.Context) error {
	req := struct {
		DropPendingUpdates bool `json:"drop_pending_updates"`
	}{DropPendingUpdates: false}

	if err := c.call(ctx, "deleteWebhook", req, nil); err != nil {
		return err
	}

	c.log.Info("webhook deleted successfully")
	return nil
}

// call JSON вызов метода Bot API. result может быть nil
func (c *Client) call(ctx context.Context, method string, payload interface{}, result interface{}) error {
	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal %s request: %w", method, err)
		}
		body = bytes.NewReader(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, body)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, err)
	}
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	return c.do(httpReq, method, result)
}

func (c *Client) do(httpReq *http.Request, method string, result interface{}) error {
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send %s request to telegram: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response body: %w", method, err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		c.log.Error("failed to unmarshal response",
			"error", err,
			"method", method,
			"status_code", resp.StatusCode,
			"body_preview", truncateString(string(respBody), 200),
		)
		return fmt.Errorf("failed to unmarshal %s response: %w", method, err)
	}

	if !apiResp.OK {
		return &APIError{Method: method, Code: apiResp.ErrorCode, Description: apiResp.Description}
	}

	if result != nil && len(apiResp.Result) > 0 {
		if err := json.Unmarshal(apiResp.Result, result); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", method, err)
		}
	}
	return nil
}

func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
