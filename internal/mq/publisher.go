package mq

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Заголовки AMQP-сообщения, переносящего один фрейм.
const (
	// HeaderMore — true, если за фреймом следуют ещё части того же сообщения.
	HeaderMore = "x-more"

	// HeaderWorker — identity слота, отправившего фрейм.
	HeaderWorker = "x-worker"
)

// Frame — один фрейм многочастного сообщения, переносимый одним
// AMQP-сообщением.
type Frame struct {
	// Body — содержимое фрейма.
	Body []byte

	// More — за фреймом следуют ещё части.
	More bool

	// Worker — identity отправителя.
	Worker string

	// ReplyTo — очередь, в которую диспетчер должен ответить.
	ReplyTo string

	// CorrelationID — идентификатор запроса.
	CorrelationID string
}

// Headers возвращает AMQP-заголовки фрейма.
func (f Frame) Headers() amqp.Table {
	headers := amqp.Table{HeaderMore: f.More}
	if f.Worker != "" {
		headers[HeaderWorker] = f.Worker
	}
	return headers
}

// FrameFromDelivery восстанавливает фрейм из AMQP-сообщения.
func FrameFromDelivery(d amqp.Delivery) Frame {
	f := Frame{
		Body:          d.Body,
		ReplyTo:       d.ReplyTo,
		CorrelationID: d.CorrelationId,
	}
	if more, ok := d.Headers[HeaderMore].(bool); ok {
		f.More = more
	}
	if worker, ok := d.Headers[HeaderWorker].(string); ok {
		f.Worker = worker
	}
	return f
}

// Publisher публикует фреймы в очереди RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// PublishFrame публикует фрейм в очередь через default exchange и ждёт
// подтверждения брокера.
//
// Фреймы одного слота идут через один канал, поэтому RabbitMQ
// сохраняет их порядок в очереди.
func (p *Publisher) PublishFrame(ctx context.Context, queue Queue, frame Frame) error {
	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		confirm, err := ch.PublishWithDeferredConfirmWithContext(
			ctx,
			"",            // default exchange
			string(queue), // routing key = имя очереди
			false,
			false,
			amqp.Publishing{
				ContentType:   "application/octet-stream",
				DeliveryMode:  amqp.Persistent,
				MessageId:     uuid.New().String(),
				Timestamp:     time.Now(),
				Headers:       frame.Headers(),
				ReplyTo:       frame.ReplyTo,
				CorrelationId: frame.CorrelationID,
				Body:          frame.Body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s: %w", queue, err)
		}

		// nil, если канал не в режиме подтверждений
		if confirm != nil {
			acked, err := confirm.WaitContext(ctx)
			if err != nil {
				return fmt.Errorf("confirm %s: %w", queue, err)
			}
			if !acked {
				return fmt.Errorf("%w: %s", ErrNacked, queue)
			}
		}

		p.logger.Debug("published frame",
			"queue", queue,
			"bytes", len(frame.Body),
			"more", frame.More,
		)

		return nil
	})
}
