package rmqconsumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"uploadit/config"
	"uploadit/internal/infrastructure/mq"
)

// can scale depends on a parallel worker count
const preFetchCount = 1

var ErrUnknownAction = errors.New("unknown routing key")

// Consumer reads the file lifecycle events back and writes them to the audit log.
type Consumer struct {
	cfg        config.MQ
	log        *zap.Logger
	conn       *amqp091.Connection
	ownConn    bool
	chConsume  *amqp091.Channel
	chDelivery <-chan amqp091.Delivery
}

// New shares conn when it is not nil, Connect dials its own otherwise.
func New(cfg config.MQ, logger *zap.Logger, conn *amqp091.Connection) *Consumer {
	return &Consumer{
		cfg:  cfg,
		log:  logger,
		conn: conn,
	}
}

func (c *Consumer) Connect(dsn string) error {
	if c.conn == nil || c.conn.IsClosed() {
		conn, err := amqp091.Dial(dsn)
		if err != nil {
			return fmt.Errorf("amqp dial: %w", err)
		}
		c.conn, c.ownConn = conn, true
	}

	ch, err := c.conn.Channel()
	if err != nil {
		if c.ownConn {
			_ = c.conn.Close()
			c.conn = nil
		}
		return fmt.Errorf("amqp channel: %w", err)
	}
	c.chConsume = ch

	c.log.Info("rabbitmq consumer connected successfully")

	return nil
}

func (c *Consumer) Init() error {
	if err := c.chConsume.ExchangeDeclare(
		c.cfg.Exchange,
		c.cfg.ExchangeType,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}
	if _, err := c.chConsume.QueueDeclare(
		c.cfg.QueueName,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	for _, rk := range mq.Actions {
		if err := c.chConsume.QueueBind(
			c.cfg.QueueName,
			rk,
			c.cfg.Exchange,
			false,
			nil,
		); err != nil {
			return fmt.Errorf("queue bind %s: %w", rk, err)
		}
	}

	if err := c.chConsume.Qos(preFetchCount, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}

	var err error
	c.chDelivery, err = c.chConsume.Consume(
		c.cfg.QueueName,
		"",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	return nil
}

func (c *Consumer) DeliveryWorker(ctx context.Context) {
	c.log.Info("starting delivery worker")

	defer func() {
		c.log.Info("delivery worker gracefully stopped")
	}()

	for {
		select {
		case msg, ok := <-c.chDelivery:
			if !ok {
				c.log.Warn("delivery channel closed")
				return
			}
			if err := c.delivery(msg); err != nil {
				c.log.Error("mq read message error", zap.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *Consumer) delivery(msg amqp091.Delivery) error {
	if !slices.Contains(mq.Actions, msg.RoutingKey) {
		return fmt.Errorf("%w: %q", ErrUnknownAction, msg.RoutingKey)
	}

	var e mq.Event
	if err := json.Unmarshal(msg.Body, &e); err != nil {
		return fmt.Errorf("decode %s event: %w", msg.RoutingKey, err)
	}

	c.log.Info("file event",
		zap.String("action", msg.RoutingKey),
		zap.Stringer("event_id", e.Id),
		zap.Time("ts", e.TS),
		zap.String("file_id", e.FileID),
		zap.String("code", e.Code),
		zap.String("name", e.Name),
		zap.String("uploader", e.Uploader),
	)

	return nil
}

func (c *Consumer) Close() error {
	var err error
	if c.chConsume != nil {
		err = c.chConsume.Close()
	}
	if c.ownConn && c.conn != nil {
		err = errors.Join(err, c.conn.Close())
	}
	return err
}
