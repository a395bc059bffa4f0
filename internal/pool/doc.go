// Package pool запускает несколько независимых слотов воркера в одном процессе.
//
// Каждый слот:
//   - получает identity вида {host}:{service}:{NN}, NN — номер слота с 01
//   - открывает собственную пару каналов через transport.Dialer
//   - крутит worker.Worker до лимита задач или отмены ctx
//
// Паника в слоте перехватывается (ErrSlotPanicked) и не мешает остальным.
// Ошибка конфигурации в любом слоте отменяет весь пул. Run ждёт все
// слоты и возвращает errors.Join их ошибок вместе с Report.
package pool
