package repository

import (
	"context"

	"github.com/map-metadata/internal/domain"
)

// StreamPublisher публикует события прогонов (recompute/done)
type StreamPublisher interface {
	// PublishToStream сериализует data в JSON и добавляет запись в стрим
	PublishToStream(ctx context.Context, stream string, data interface{}) error
}

// StreamRepository - очередь прогонов поверх Redis Streams с consumer group
type StreamRepository interface {
	StreamPublisher

	// CreateConsumerGroup создаёт группу (и сам стрим), существующая группа не ошибка
	CreateConsumerGroup(ctx context.Context, stream, group string) error

	// ConsumeStream читает новые сообщения группы; канал закрывается при отмене ctx
	ConsumeStream(ctx context.Context, stream, group, consumer string) (<-chan domain.StreamMessage, error)

	// AckMessage подтверждает обработку сообщения
	AckMessage(ctx context.Context, stream, group, messageID string) error
}
