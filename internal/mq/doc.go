// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Используется AMQP-привязкой транспорта воркера (адреса amqp:// и
// amqps://): каждый фрейм многочастного сообщения CorTeX переносится
// отдельным AMQP-сообщением, признак "есть продолжение" — заголовок x-more.
//
// Структура:
//   - connection.go — соединение слота: confirms, переподключение, Generation
//   - topology.go   — объявление очередей
//   - publisher.go  — публикация фреймов с ожиданием ack брокера
//   - consumer.go   — последовательное чтение фреймов из очереди
//
// Очереди:
//   - cortex.requests     — запросы воркеров (имя сервиса), ReplyTo = личная очередь
//   - cortex.reply.<id>   — ответы диспетчера слоту: task id, затем фреймы входа
//   - cortex.results      — фреймы результатов для sink, заголовок x-worker
package mq
