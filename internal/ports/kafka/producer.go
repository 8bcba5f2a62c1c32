package kafka

import "context"

// IKafkaProducer отправка сообщений в Kafka
type IKafkaProducer interface {
	Send(ctx context.Context, key string, value []byte) error
	Close() error
}
