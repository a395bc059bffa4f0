package worker

import "errors"

// Ошибки воркера.
var (
	// ErrTaskAborted — задача прервана сбоем транспорта. Отчёт в sink не
	// отправлен, слот возвращается к ожиданию задачи.
	ErrTaskAborted = errors.New("task aborted")

	// ErrStaging — не удалось записать вход во временный файл.
	ErrStaging = errors.New("staging input failed")

	// ErrConversionPanic — конвертер запаниковал.
	ErrConversionPanic = errors.New("converter panicked")

	// ErrNoOutput — конвертер вернул пустой результат.
	ErrNoOutput = errors.New("converter produced no output")

	// ErrOutputRead — результат не дочитан до конца во время стриминга.
	ErrOutputRead = errors.New("read converter output")

	// ErrInvalidConfig — воркеру не передан обязательный компонент.
	ErrInvalidConfig = errors.New("invalid worker config")
)
