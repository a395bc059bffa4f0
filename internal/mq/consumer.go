package mq

import (
	"context"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer читает фреймы из очереди по одному.
//
// В отличие от обработчиков с callback, Consumer отдаёт фреймы
// синхронно через Next: слот воркера сам решает, когда читать следующий.
type Consumer struct {
	conn   *Connection
	logger *slog.Logger
	queue  Queue

	deliveries <-chan amqp.Delivery
	gen        uint64
}

// NewConsumer создаёт Consumer для очереди. Потребление начинается в Start.
func NewConsumer(conn *Connection, logger *slog.Logger, queue Queue) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		conn:   conn,
		logger: logger,
		queue:  queue,
	}
}

// Start подписывается на очередь.
func (c *Consumer) Start(ctx context.Context) error {
	return c.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		deliveries, err := ch.Consume(
			string(c.queue), // queue
			"",              // consumer tag (auto-generated)
			true,            // auto-ack: фрейм принадлежит одному слоту
			true,            // exclusive
			false,           // no-local
			false,           // no-wait
			nil,             // args
		)
		if err != nil {
			return fmt.Errorf("consume %s: %w", c.queue, err)
		}

		c.deliveries = deliveries
		c.gen = c.conn.Generation()
		c.logger.Debug("consumer started", "queue", c.queue, "generation", c.gen)
		return nil
	})
}

// Active возвращает true, если подписка установлена на текущем
// подключении. После переподключения подписку нужно открыть заново.
func (c *Consumer) Active() bool {
	if c.deliveries == nil {
		return false
	}
	return c.conn == nil || c.conn.Generation() == c.gen
}

// Next ждёт следующий фрейм.
//
// Таймаута нет: слот ждёт диспетчера сколько угодно, пока не отменён ctx.
func (c *Consumer) Next(ctx context.Context) (Frame, error) {
	if c.deliveries == nil {
		return Frame{}, ErrNotConsuming
	}

	select {
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	case d, ok := <-c.deliveries:
		if !ok {
			// Канал закрыт (разрыв соединения) — подписку нужно восстановить
			c.deliveries = nil
			return Frame{}, ErrDeliveriesClosed
		}
		return FrameFromDelivery(d), nil
	}
}
