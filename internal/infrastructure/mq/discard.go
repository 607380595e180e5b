package mq

import (
	"context"

	"go.uber.org/zap"
)

// Discard stands in for RabbitMQ when no broker is configured.
type Discard struct {
	log *zap.Logger
}

func NewDiscard(logger *zap.Logger) *Discard { return &Discard{log: logger} }

func (d *Discard) Publish(e Event) {
	d.log.Debug("file event", zap.String("action", e.Action), zap.String("code", e.Code))
}

func (d *Discard) PublisherWorker(ctx context.Context) { <-ctx.Done() }
