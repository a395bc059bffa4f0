package domain

import "time"

// Task — задача конвертации, находящаяся в работе у одного слота воркера.
//
// Task создаётся, когда диспетчер прислал task id, и живёт ровно один
// цикл: приём входа → конвертация → отчёт в sink. После отчёта все
// временные файлы задачи удаляются.
type Task struct {
	// ID — непрозрачный идентификатор, выданный диспетчером.
	// Воркер его не интерпретирует и не генерирует.
	ID string

	// Service — имя сервиса, от имени которого запрошена задача.
	Service string

	// State — текущее состояние жизненного цикла.
	State TaskState

	// Outcome — итог задачи. Пустой, пока задача не завершена.
	Outcome Outcome

	// InputSize — сколько байт входа получено от диспетчера.
	// Ноль означает "работы нет" (EmptyInput).
	InputSize int64

	// OutputSize — сколько байт результата отправлено в sink.
	OutputSize int64

	// Error — диагностика конвертера при ConversionFailed.
	Error string

	// StartedAt — момент получения task id.
	StartedAt time.Time

	// FinishedAt — момент отправки отчёта.
	FinishedAt *time.Time
}

// NewTask создаёт задачу в состоянии RECEIVING_INPUT.
func NewTask(id, service string) *Task {
	return &Task{
		ID:        id,
		Service:   service,
		State:     TaskStateReceivingInput,
		StartedAt: time.Now(),
	}
}

// Duration возвращает продолжительность обработки.
func (t *Task) Duration() time.Duration {
	if t.FinishedAt == nil {
		return 0
	}
	return t.FinishedAt.Sub(t.StartedAt)
}

// IsEmpty возвращает true, если вход не содержит ни одного байта.
func (t *Task) IsEmpty() bool {
	return t.InputSize == 0
}

// MarkEmpty фиксирует пустой вход. Конвертер в этом случае не вызывается.
func (t *Task) MarkEmpty() {
	t.State = TaskStateEmptyInput
	t.Outcome = OutcomeEmptyInput
}

// MarkConverting переводит задачу в CONVERTING.
func (t *Task) MarkConverting() {
	t.State = TaskStateConverting
}

// MarkFailed фиксирует ошибку конвертера с диагностикой.
func (t *Task) MarkFailed(err string) {
	t.Outcome = OutcomeConversionFailed
	t.Error = err
}

// MarkDelivering переводит задачу в DELIVERING_OUTPUT.
func (t *Task) MarkDelivering() {
	t.State = TaskStateDeliveringOutput
}

// MarkReportingEmpty переводит задачу в REPORTING_EMPTY.
func (t *Task) MarkReportingEmpty() {
	t.State = TaskStateReportingEmpty
}

// MarkDelivered фиксирует успешную доставку результата.
func (t *Task) MarkDelivered(outputSize int64) {
	now := time.Now()
	t.Outcome = OutcomeDelivered
	t.OutputSize = outputSize
	t.FinishedAt = &now
}

// Finish закрывает задачу после отчёта о пустом/неудачном результате.
func (t *Task) Finish() {
	now := time.Now()
	t.FinishedAt = &now
}

// NeedsCooldown возвращает true, если после задачи слот должен
// выдержать паузу перед следующим запросом.
func (t *Task) NeedsCooldown() bool {
	return t.Outcome.NeedsCooldown()
}
