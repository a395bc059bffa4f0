package domain

// TaskState — состояние задачи в цикле слота.
//
// Жизненный цикл:
//
//	AWAITING_TASK → RECEIVING_INPUT → EMPTY_INPUT → REPORTING_EMPTY ─┐
//	                                ↘ CONVERTING  → DELIVERING_OUTPUT │
//	                                              ↘ REPORTING_EMPTY ──┤
//	AWAITING_TASK ←──────────────── (cooldown, если не DELIVERED) ────┘
type TaskState string

const (
	// TaskStateAwaitingTask — слот ждёт task id от диспетчера.
	TaskStateAwaitingTask TaskState = "AWAITING_TASK"

	// TaskStateReceivingInput — идёт приём фреймов входа.
	TaskStateReceivingInput TaskState = "RECEIVING_INPUT"

	// TaskStateEmptyInput — вход пустой, конвертация пропускается.
	TaskStateEmptyInput TaskState = "EMPTY_INPUT"

	// TaskStateConverting — работает конвертер.
	TaskStateConverting TaskState = "CONVERTING"

	// TaskStateDeliveringOutput — результат стримится в sink.
	TaskStateDeliveringOutput TaskState = "DELIVERING_OUTPUT"

	// TaskStateReportingEmpty — в sink отправляется пустой маркер.
	TaskStateReportingEmpty TaskState = "REPORTING_EMPTY"
)

// Outcome — итог задачи, сообщаемый в sink.
type Outcome string

const (
	// OutcomeDelivered — результат конвертации доставлен.
	OutcomeDelivered Outcome = "DELIVERED"

	// OutcomeEmptyInput — диспетчер прислал пустой вход ("работы нет").
	OutcomeEmptyInput Outcome = "EMPTY_INPUT"

	// OutcomeConversionFailed — конвертер вернул ошибку.
	OutcomeConversionFailed Outcome = "CONVERSION_FAILED"
)

// NeedsCooldown возвращает true для исходов, после которых слот делает паузу.
func (o Outcome) NeedsCooldown() bool {
	switch o {
	case OutcomeEmptyInput, OutcomeConversionFailed:
		return true
	default:
		return false
	}
}
