package service

import (
	"context"
)

// IAlerterService служебный канал для администраторов: ошибки шлюза, аномалии оплат
type IAlerterService interface {
	SendAlert(ctx context.Context, message string) error
}
