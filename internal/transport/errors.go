package transport

import "errors"

// Ошибки транспорта.
var (
	// ErrInvalidAddress — адрес не разбирается или не может быть подключён.
	// Это ошибка конфигурации: фатальна при старте, не ретраится.
	ErrInvalidAddress = errors.New("invalid transport address")

	// ErrUnsupportedScheme — схема адреса не поддерживается.
	ErrUnsupportedScheme = errors.New("unsupported address scheme")

	// ErrClosed — сессия закрыта (в том числе при остановке слота).
	ErrClosed = errors.New("transport closed")

	// ErrIO — ошибка ввода-вывода посреди задачи. Задача прерывается,
	// слот продолжает работу.
	ErrIO = errors.New("transport i/o failure")
)

// IsConfigError возвращает true для ошибок, которые означают
// неверную конфигурацию адреса, а не сбой во время работы.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidAddress) || errors.Is(err, ErrUnsupportedScheme)
}
