package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/Pericortex/internal/config"
	"github.com/shaiso/Pericortex/internal/converter"
	"github.com/shaiso/Pericortex/internal/domain"
	"github.com/shaiso/Pericortex/internal/telemetry"
	"github.com/shaiso/Pericortex/internal/transport"
)

// Worker — движок задач одного слота пула.
//
// Worker владеет парой каналов слота и крутит цикл:
//   - запрашивает задачу у диспетчера и принимает вход во временный файл
//   - пустой вход — отчёт "пусто" без вызова конвертера
//   - непустой вход — один вызов конвертера
//   - стримит результат в sink фреймами по MessageSize байт
//   - после пустой или неудачной задачи выдерживает cooldown
//
// Worker не потокобезопасен: один экземпляр — одна горутина.
type Worker struct {
	cfg       config.WorkerConfig
	identity  domain.WorkerIdentity
	request   transport.RequestChannel
	delivery  transport.DeliveryChannel
	converter converter.Converter

	logger  *slog.Logger
	metrics *telemetry.Metrics

	stats Stats

	// current — задача в работе; nil, пока слот ждёт task id.
	current *domain.Task
}

// Config — конфигурация Worker.
type Config struct {
	// Worker — настройки типа воркера (общие для всех слотов).
	Worker config.WorkerConfig

	// Identity — identity слота.
	Identity domain.WorkerIdentity

	// Session — каналы слота. Worker их не открывает и не закрывает.
	Session *transport.Session

	// Converter — способность конвертации.
	Converter converter.Converter

	// Logger
	Logger *slog.Logger

	// Metrics (опционально)
	Metrics *telemetry.Metrics
}

// Stats — счётчики задач слота.
type Stats struct {
	Delivered int
	Empty     int
	Failed    int
	Aborted   int
}

// Completed возвращает число завершённых циклов задач (с отчётом в sink).
func (s Stats) Completed() int {
	return s.Delivered + s.Empty + s.Failed
}

// New создаёт Worker.
func New(cfg Config) (*Worker, error) {
	if cfg.Session == nil || cfg.Session.Request == nil || cfg.Session.Delivery == nil {
		return nil, fmt.Errorf("%w: session is required", ErrInvalidConfig)
	}
	if cfg.Converter == nil {
		return nil, fmt.Errorf("%w: converter is required", ErrInvalidConfig)
	}
	if cfg.Worker.MessageSize <= 0 {
		return nil, fmt.Errorf("%w: message size must be positive", ErrInvalidConfig)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = telemetry.ForSlot(logger, cfg.Identity.String(), cfg.Worker.Service)

	return &Worker{
		cfg:       cfg.Worker,
		identity:  cfg.Identity,
		request:   cfg.Session.Request,
		delivery:  cfg.Session.Delivery,
		converter: cfg.Converter,
		logger:    logger,
		metrics:   cfg.Metrics,
	}, nil
}

// Stats возвращает счётчики задач.
func (w *Worker) Stats() Stats {
	return w.stats
}

// Run крутит цикл задач.
//
// Возвращает nil после Limit завершённых задач (если Limit > 0) и
// ctx.Err() при отмене. Ошибки отдельных задач наружу не выходят.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("worker started",
		"source", w.cfg.Source,
		"sink", w.cfg.Sink,
		"message_size", w.cfg.MessageSize,
		"limit", w.cfg.Limit,
	)

	for {
		if err := ctx.Err(); err != nil {
			w.logger.Info("worker stopped", "completed", w.stats.Completed())
			return err
		}

		task, err := w.processTask(ctx)
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info("worker stopped", "completed", w.stats.Completed())
				return ctx.Err()
			}

			w.stats.Aborted++
			w.metrics.TransportError(w.cfg.Service)
			w.logger.Warn("task aborted", "state", w.state(), "error", err)

			if err := w.cooldown(ctx); err != nil {
				return err
			}
			continue
		}

		w.metrics.TaskFinished(w.cfg.Service, string(task.Outcome), task.InputSize, task.OutputSize)

		if task.NeedsCooldown() {
			if err := w.cooldown(ctx); err != nil {
				return err
			}
		}

		if w.cfg.Limit > 0 && w.stats.Completed() >= w.cfg.Limit {
			w.logger.Info("task limit reached", "limit", w.cfg.Limit)
			// Даём последней доставке уйти из очереди транспорта
			if err := sleep(ctx, w.cfg.GracePeriod); err != nil {
				return err
			}
			return nil
		}
	}
}

// processTask проводит одну задачу через весь цикл.
//
// Ошибка означает, что задача прервана и отчёт в sink не ушёл.
func (w *Worker) processTask(ctx context.Context) (*domain.Task, error) {
	w.current = nil

	task, input, err := w.requestTask(ctx)
	if err != nil {
		return nil, err
	}
	if input != nil {
		defer func() {
			if err := input.Close(); err != nil {
				w.logger.Warn("failed to release staging file", "task_id", task.ID, "error", err)
			}
		}()
	}

	logger := telemetry.ForTask(w.logger, task.ID)
	logger.Debug("task received", "input_bytes", task.InputSize)

	switch {
	case task.Outcome == domain.OutcomeConversionFailed:
		// Вход не сохранён, конвертировать нечего
		return w.fail(ctx, logger, task, errors.New(task.Error))
	case task.IsEmpty():
		task.MarkEmpty()
		logger.Debug("empty input, skipping conversion")
		if err := w.reportEmpty(ctx, task); err != nil {
			return nil, err
		}
		w.stats.Empty++
		return task, nil
	}

	output, err := w.convert(telemetry.WithLogger(ctx, logger), task, input.Name())
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return w.fail(ctx, logger, task, err)
	}
	defer output.Close()

	err = w.deliver(ctx, task, output)
	switch {
	case errors.Is(err, ErrNoOutput):
		return w.fail(ctx, logger, task, err)
	case errors.Is(err, ErrOutputRead):
		// Сообщение уже закрыто в deliver, отдельный отчёт не нужен
		task.MarkFailed(err.Error())
		task.Finish()
		w.stats.Failed++
		logger.Warn("conversion failed", "error", err, "output_bytes", task.OutputSize)
		return task, nil
	case err != nil:
		return nil, err
	}

	w.stats.Delivered++
	logger.Info("task delivered",
		"input_bytes", task.InputSize,
		"output_bytes", task.OutputSize,
		"duration", task.Duration(),
	)

	return task, nil
}

// state возвращает состояние слота: состояние текущей задачи или
// AWAITING_TASK, если task id ещё не получен.
func (w *Worker) state() domain.TaskState {
	if w.current == nil {
		return domain.TaskStateAwaitingTask
	}
	return w.current.State
}

// fail фиксирует неудачу конвертации и отправляет пустой отчёт.
func (w *Worker) fail(ctx context.Context, logger *slog.Logger, task *domain.Task, cause error) (*domain.Task, error) {
	task.MarkFailed(cause.Error())
	logger.Warn("conversion failed", "error", cause, "input_bytes", task.InputSize)

	if err := w.reportEmpty(ctx, task); err != nil {
		return nil, err
	}
	w.stats.Failed++
	return task, nil
}

// cooldown — пауза после пустой или неудачной задачи.
func (w *Worker) cooldown(ctx context.Context) error {
	if w.cfg.Cooldown <= 0 {
		return nil
	}
	w.metrics.Cooldown(w.cfg.Service)
	w.logger.Debug("cooling down", "duration", w.cfg.Cooldown)
	return sleep(ctx, w.cfg.Cooldown)
}

// sleep ждёт d с учётом отмены ctx.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
