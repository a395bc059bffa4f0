package pool

import "errors"

// Ошибки пула.
var (
	// ErrInvalidConfig — пул сконфигурирован неверно.
	ErrInvalidConfig = errors.New("invalid pool config")

	// ErrSlotPanicked — цикл слота запаниковал. Остальные слоты продолжают работу.
	ErrSlotPanicked = errors.New("worker slot panicked")
)
