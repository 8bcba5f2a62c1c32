package kafka

import "context"

// MessageHandler обработчик сообщений из Kafka
type MessageHandler interface {
	HandleMessage(ctx context.Context, key string, value []byte) error
}
