package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Queue — тип для имени очереди.
type Queue string

// Очереди по умолчанию.
const (
	// QueueRequests — запросы воркеров к диспетчеру (имя сервиса).
	QueueRequests Queue = "cortex.requests"

	// QueueResults — фреймы результатов для sink.
	QueueResults Queue = "cortex.results"

	// replyQueuePrefix — префикс личной очереди ответов слота.
	replyQueuePrefix = "cortex.reply."
)

// ReplyQueue возвращает имя личной очереди ответов для identity.
func ReplyQueue(identity string) Queue {
	return Queue(replyQueuePrefix + identity)
}

// DeclareWorkQueue объявляет долговечную общую очередь (requests или results).
//
// Очередь общая с диспетчером/sink, поэтому объявление идемпотентно и
// параметры должны совпадать с их стороной.
func DeclareWorkQueue(ctx context.Context, conn *Connection, name Queue) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		_, err := ch.QueueDeclare(
			string(name), // name
			true,         // durable
			false,        // delete when unused
			false,        // exclusive
			false,        // no-wait
			nil,          // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", name, err)
		}
		return nil
	})
}

// DeclareReplyQueue объявляет личную очередь ответов слота.
//
// Очередь эксклюзивная и удаляется вместе с соединением: после
// переподключения её нужно объявить заново.
func DeclareReplyQueue(ctx context.Context, conn *Connection, identity string) (Queue, error) {
	name := ReplyQueue(identity)

	err := conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		_, err := ch.QueueDeclare(
			string(name), // name
			false,        // durable
			true,         // delete when unused
			true,         // exclusive
			false,        // no-wait
			nil,          // arguments
		)
		if err != nil {
			return fmt.Errorf("declare reply queue %s: %w", name, err)
		}
		return nil
	})

	return name, err
}
