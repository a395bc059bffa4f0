package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/shaiso/Pericortex/internal/domain"
	"github.com/shaiso/Pericortex/internal/mq"
)

// queueParam — query-параметр адреса с именем очереди.
const queueParam = "queue"

// splitAMQPAddress возвращает URL брокера без параметра queue и имя очереди.
func splitAMQPAddress(u *url.URL, fallback mq.Queue) (string, mq.Queue) {
	clean := *u
	query := clean.Query()

	queue := fallback
	if name := query.Get(queueParam); name != "" {
		queue = mq.Queue(name)
	}
	query.Del(queueParam)
	clean.RawQuery = query.Encode()

	return clean.String(), queue
}

// amqpRequest — request channel поверх RabbitMQ.
//
// Запросы уходят в общую очередь с ReplyTo = личная очередь слота,
// ответы диспетчера читаются из личной очереди по одному фрейму.
type amqpRequest struct {
	identity string
	requests mq.Queue
	reply    mq.Queue
	logger   *slog.Logger

	conn      *mq.Connection
	publisher *mq.Publisher
	consumer  *mq.Consumer
}

func openAMQPRequest(ctx context.Context, u *url.URL, identity domain.WorkerIdentity, logger *slog.Logger) (*amqpRequest, error) {
	brokerURL, requests := splitAMQPAddress(u, mq.QueueRequests)

	conn, err := mq.Dial(ctx, mq.DialConfig{URL: brokerURL, Name: identity.String() + "/request"}, logger)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidAddress, u.Redacted(), err)
	}

	r := &amqpRequest{
		identity:  identity.String(),
		requests:  requests,
		reply:     mq.ReplyQueue(identity.String()),
		logger:    logger,
		conn:      conn,
		publisher: mq.NewPublisher(conn, logger),
		consumer:  mq.NewConsumer(conn, logger, mq.ReplyQueue(identity.String())),
	}

	if err := mq.DeclareWorkQueue(ctx, conn, requests); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if err := r.ensureConsumer(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}

	return r, nil
}

// ensureConsumer восстанавливает личную очередь и подписку.
// Эксклюзивная очередь пропадает вместе с соединением при разрыве,
// поэтому после переподключения (новый Generation) она объявляется заново.
func (r *amqpRequest) ensureConsumer(ctx context.Context) error {
	if r.consumer.Active() {
		return nil
	}
	if _, err := mq.DeclareReplyQueue(ctx, r.conn, r.identity); err != nil {
		return err
	}
	return r.consumer.Start(ctx)
}

func (r *amqpRequest) Send(ctx context.Context, frame []byte, more bool) error {
	if err := r.ensureConsumer(ctx); err != nil {
		return mapAMQPError(ctx, "send", err)
	}

	err := r.publisher.PublishFrame(ctx, r.requests, mq.Frame{
		Body:          frame,
		More:          more,
		Worker:        r.identity,
		ReplyTo:       string(r.reply),
		CorrelationID: r.identity,
	})
	return mapAMQPError(ctx, "send", err)
}

func (r *amqpRequest) Recv(ctx context.Context) ([]byte, bool, error) {
	f, err := r.consumer.Next(ctx)
	if err != nil {
		return nil, false, mapAMQPError(ctx, "recv", err)
	}
	return f.Body, f.More, nil
}

func (r *amqpRequest) Close() error {
	return r.conn.Close()
}

// amqpDelivery — delivery channel поверх RabbitMQ.
type amqpDelivery struct {
	identity  string
	results   mq.Queue
	conn      *mq.Connection
	publisher *mq.Publisher
}

func openAMQPDelivery(ctx context.Context, u *url.URL, identity domain.WorkerIdentity, logger *slog.Logger) (*amqpDelivery, error) {
	brokerURL, results := splitAMQPAddress(u, mq.QueueResults)

	conn, err := mq.Dial(ctx, mq.DialConfig{URL: brokerURL, Name: identity.String() + "/delivery"}, logger)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidAddress, u.Redacted(), err)
	}

	if err := mq.DeclareWorkQueue(ctx, conn, results); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}

	return &amqpDelivery{
		identity:  identity.String(),
		results:   results,
		conn:      conn,
		publisher: mq.NewPublisher(conn, logger),
	}, nil
}

func (d *amqpDelivery) Send(ctx context.Context, frame []byte, more bool) error {
	err := d.publisher.PublishFrame(ctx, d.results, mq.Frame{
		Body:   frame,
		More:   more,
		Worker: d.identity,
	})
	return mapAMQPError(ctx, "send", err)
}

func (d *amqpDelivery) Close() error {
	return d.conn.Close()
}

// mapAMQPError приводит ошибки брокера к ошибкам транспорта.
func mapAMQPError(ctx context.Context, op string, err error) error {
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %s: %v", ErrIO, op, err)
	}
}
