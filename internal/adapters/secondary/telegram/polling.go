package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"log/slog"

	"github.com/N1seb/Render/internal/domain"
	"github.com/N1seb/Render/internal/ports/events"
)

const pollRetryDelay = 5 * time.Second

// Poller long polling. Каждый апдейт публикуется во входящую шину как событие чата
type Poller struct {
	client       *Client
	sink         events.IEventSink
	timeout      int
	lastUpdateID int64
	log          *slog.Logger
	httpClient   *http.Client // отдельный HTTP клиент с увеличенным таймаутом для polling
}

func NewPoller(client *Client, config *Config, sink events.IEventSink, log *slog.Logger) *Poller {
	pollingTimeout := config.PollingTimeout
	if pollingTimeout <= 0 {
		pollingTimeout = 30
	}
	// HTTP таймаут = polling timeout + запас (10 секунд)
	httpTimeout := time.Duration(pollingTimeout+10) * time.Second

	return &Poller{
		client:  client,
		sink:    sink,
		timeout: pollingTimeout,
		log:     log.With("component", "telegram_poller"),
		httpClient: &http.Client{
			Timeout: httpTimeout,
		},
	}
}

type getUpdatesRequest struct {
	Offset         int64    `json:"offset"`
	Timeout        int      `json:"timeout"`
	AllowedUpdates []string `json:"allowed_updates"`
}

// Start крутит getUpdates до отмены ctx
func (p *Poller) Start(ctx context.Context) error {
	p.log.Info("starting telegram polling", "timeout", p.timeout)

	for {
		select {
		case <-ctx.Done():
			p.log.Info("polling stopped")
			return nil
		default:
		}

		updates, err := p.getUpdates(ctx)
		if err != nil {
			if ctx.Err() != nil {
				p.log.Info("polling stopped")
				return nil
			}
			p.log.Error("failed to get updates", "error", err)

			// Ждём перед повтором
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(pollRetryDelay):
			}
			continue
		}

		for i := range updates {
			update := updates[i]
			if update.UpdateID >= p.lastUpdateID {
				p.lastUpdateID = update.UpdateID + 1
			}

			if err := p.sink.Publish(ctx, domain.NewChatEvent(&update)); err != nil {
				p.log.Error("failed to publish update",
					"error", err,
					"update_id", update.UpdateID,
				)
			}
		}
	}
}

func (p *Poller) getUpdates(ctx context.Context) ([]domain.Update, error) {
	req := getUpdatesRequest{
		Offset:         p.lastUpdateID,
		Timeout:        p.timeout,
		AllowedUpdates: AllowedUpdates,
	}

	// общий клиент с коротким таймаутом не подходит для long polling
	pollClient := *p.client
	pollClient.httpClient = p.httpClient

	var updates []domain.Update
	err := pollClient.call(ctx, "getUpdates", req, &updates)
	if err != nil {
		var apiErr *APIError
		// 409 - другой экземпляр бота или активный webhook
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict {
			p.log.Warn("telegram API conflict - another bot instance or webhook is active",
				"description", apiErr.Description,
			)
			return nil, fmt.Errorf("getUpdates conflict: %w", err)
		}
		return nil, err
	}
	return updates, nil
}
