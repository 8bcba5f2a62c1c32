package repository

import (
	"context"

	"github.com/N1seb/Render/internal/domain"
)

type IWebhookEventRepo interface {
	Create(ctx context.Context, event *domain.WebhookEvent) error
	MarkProcessed(ctx context.Context, id int64, result string) error
}
