package mq

import "errors"

// Ошибки RabbitMQ-инфраструктуры.
var (
	// ErrNoChannel — AMQP-канал недоступен (идёт переподключение).
	ErrNoChannel = errors.New("no channel available")

	// ErrNotConsuming — подписка на очередь не установлена.
	ErrNotConsuming = errors.New("consumer is not started")

	// ErrDeliveriesClosed — канал доставки закрыт брокером.
	ErrDeliveriesClosed = errors.New("deliveries channel closed")

	// ErrNacked — брокер отказался принять фрейм.
	ErrNacked = errors.New("publish not acknowledged")
)
