package ports

import (
	"context"

	"uploadit/internal/infrastructure/mq"
)

type EventPublisher interface {
	Publish(e mq.Event)
	PublisherWorker(ctx context.Context)
}
