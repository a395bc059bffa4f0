// Package telemetry — логи и метрики слотов воркера.
//
// Логи: slog, JSON или text (LOG_FORMAT), уровень из LOG_LEVEL. Записи
// слота несут поля identity и service, записи задачи ещё и task_id
// (ForSlot, ForTask). Логгер задачи передаётся конвертеру через контекст.
//
// Метрики: счётчики задач по исходу, байты входа/выхода, паузы, ошибки
// транспорта, активные слоты и гистограмма длительности конвертации.
// Методы Metrics безопасны на nil, поэтому тесты воркера обходятся без
// реестра.
package telemetry
