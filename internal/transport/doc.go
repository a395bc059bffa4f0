// Package transport содержит каналы слота воркера: request channel к
// диспетчеру и delivery channel к sink.
//
// Привязка выбирается по схеме адреса:
//   - tcp://, ipc://, inproc:// — ZeroMQ (DEALER с identity слота и PUSH)
//   - amqp://, amqps://         — RabbitMQ через internal/mq, имя очереди
//     можно задать параметром ?queue=
//
// Каналы многочастные: каждый Send/Recv переносит один фрейм и признак
// "есть продолжение". Каналы слота не разделяются с другими слотами.
//
// Остановка: при отмене ctx, переданного в Open, заблокированные вызовы
// возвращают ошибку контекста.
package transport
