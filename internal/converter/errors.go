package converter

import "errors"

// Ошибки конвертеров.
var (
	// ErrUnknownService — нет конвертера для сервиса.
	ErrUnknownService = errors.New("no converter registered for service")

	// ErrCommandFailed — внешний процесс не удалось запустить.
	ErrCommandFailed = errors.New("external command failed")

	// ErrNonZeroExit — внешний процесс завершился с ненулевым кодом.
	// Для latexmlc и engrafo это не всегда фатально: артефакт с cortex.log
	// всё равно может быть собран.
	ErrNonZeroExit = errors.New("external command exited with non-zero status")

	// ErrNoOutput — внешний инструмент не создал артефакт.
	ErrNoOutput = errors.New("conversion produced no output")
)
