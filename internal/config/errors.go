package config

import "errors"

// Ошибки конфигурации.
var (
	// ErrInvalidConfig — конфигурация воркера некорректна.
	// Такая ошибка фатальна при старте и не ретраится.
	ErrInvalidConfig = errors.New("invalid worker configuration")

	// ErrUnknownService — для сервиса нет встроенных значений по умолчанию.
	ErrUnknownService = errors.New("unknown service")

	// ErrConfigFile — файл конфигурации не читается или не парсится.
	ErrConfigFile = errors.New("config file")
)

// ValidationError — ошибка валидации конкретного поля.
type ValidationError struct {
	Field   string // поле, вызвавшее ошибку
	Message string // описание ошибки
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Unwrap позволяет проверять ошибку через errors.Is(err, ErrInvalidConfig).
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}
