package pool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/shaiso/Pericortex/internal/config"
	"github.com/shaiso/Pericortex/internal/converter"
	"github.com/shaiso/Pericortex/internal/domain"
	"github.com/shaiso/Pericortex/internal/telemetry"
	"github.com/shaiso/Pericortex/internal/transport"
	"github.com/shaiso/Pericortex/internal/worker"
)

// Pool запускает PoolSize независимых слотов воркера и ждёт их завершения.
//
// У каждого слота своя identity и своя пара каналов; общего изменяемого
// состояния у слотов нет. Сбой одного слота не останавливает остальные,
// кроме ошибки конфигурации: она фатальна для всего пула.
type Pool struct {
	cfg       config.WorkerConfig
	dialer    transport.Dialer
	converter converter.Converter
	hostname  func() (string, error)

	logger  *slog.Logger
	metrics *telemetry.Metrics
}

// Config — конфигурация Pool.
type Config struct {
	// Worker — настройки типа воркера, общие для всех слотов.
	Worker config.WorkerConfig

	// Dialer открывает каналы слотов.
	Dialer transport.Dialer

	// Converter — способность конвертации (общая, без состояния).
	Converter converter.Converter

	// Hostname возвращает имя хоста для identity (default: os.Hostname).
	Hostname func() (string, error)

	// Logger
	Logger *slog.Logger

	// Metrics (опционально)
	Metrics *telemetry.Metrics
}

// SlotResult — итог работы одного слота.
type SlotResult struct {
	Ordinal  int
	Identity domain.WorkerIdentity
	Stats    worker.Stats
	Err      error
	Duration time.Duration
}

// Report — итог работы пула.
type Report struct {
	Slots []SlotResult
}

// Failures возвращает слоты, завершившиеся ошибкой.
func (r Report) Failures() []SlotResult {
	var failed []SlotResult
	for _, s := range r.Slots {
		if s.Err != nil {
			failed = append(failed, s)
		}
	}
	return failed
}

// Completed возвращает суммарное число задач с отчётом в sink.
func (r Report) Completed() int {
	total := 0
	for _, s := range r.Slots {
		total += s.Stats.Completed()
	}
	return total
}

// New создаёт Pool. Конфигурация проверяется здесь, до открытия каналов.
func New(cfg Config) (*Pool, error) {
	if err := cfg.Worker.Validate(); err != nil {
		return nil, err
	}
	if cfg.Dialer == nil {
		return nil, fmt.Errorf("%w: dialer is required", ErrInvalidConfig)
	}
	if cfg.Converter == nil {
		return nil, fmt.Errorf("%w: converter is required", ErrInvalidConfig)
	}

	hostname := cfg.Hostname
	if hostname == nil {
		hostname = os.Hostname
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Pool{
		cfg:       cfg.Worker,
		dialer:    cfg.Dialer,
		converter: cfg.Converter,
		hostname:  hostname,
		logger:    logger,
		metrics:   cfg.Metrics,
	}, nil
}

// Run запускает слоты и блокируется, пока все не завершатся.
//
// PoolSize == 1 — слот работает в вызывающей горутине. Иначе — по
// горутине на слот, каждая закреплена за своим OS-потоком.
//
// Возвращает errors.Join ошибок всех упавших слотов. Остановка по ctx
// ошибкой не считается.
func (p *Pool) Run(ctx context.Context) (Report, error) {
	host := p.resolveHost()
	size := p.cfg.PoolSize

	p.logger.Info("starting worker pool",
		"service", p.cfg.Service,
		"pool_size", size,
		"host", host,
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	report := Report{Slots: make([]SlotResult, size)}

	if size == 1 {
		report.Slots[0] = p.runSlot(ctx, cancel, host, 1)
	} else {
		results := make(chan SlotResult, size)

		for ordinal := 1; ordinal <= size; ordinal++ {
			go func(ordinal int) {
				runtime.LockOSThread()
				defer runtime.UnlockOSThread()

				results <- p.runSlot(ctx, cancel, host, ordinal)
			}(ordinal)
		}

		for i := 0; i < size; i++ {
			res := <-results
			report.Slots[res.Ordinal-1] = res
		}
	}

	var errs []error
	for _, s := range report.Failures() {
		errs = append(errs, s.Err)
	}

	p.logger.Info("worker pool finished",
		"service", p.cfg.Service,
		"completed", report.Completed(),
		"failed_slots", len(errs),
	)

	return report, errors.Join(errs...)
}

// resolveHost возвращает имя хоста или domain.UnknownHost.
func (p *Pool) resolveHost() string {
	host, err := p.hostname()
	if err != nil || host == "" {
		p.logger.Warn("hostname unavailable, using placeholder",
			"placeholder", domain.UnknownHost,
			"error", err,
		)
		return domain.UnknownHost
	}
	return host
}

// runSlot открывает каналы слота и крутит цикл задач.
//
// Ошибка конфигурации (адрес, параметры воркера) отменяет остальные слоты.
func (p *Pool) runSlot(ctx context.Context, cancelAll context.CancelFunc, host string, ordinal int) (res SlotResult) {
	identity := domain.NewWorkerIdentity(host, p.cfg.Service, ordinal)
	logger := telemetry.ForSlot(p.logger, identity.String(), "")
	started := time.Now()

	res = SlotResult{Ordinal: ordinal, Identity: identity}

	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("%w: %s: %v\n%s", ErrSlotPanicked, identity, r, debug.Stack())
			logger.Error("worker slot panicked", "panic", r)
		}
		res.Duration = time.Since(started)
	}()

	session, err := p.dialer.Open(ctx, p.cfg.Source, p.cfg.Sink, identity)
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			// пул уже останавливается
			return res
		}
		res.Err = fmt.Errorf("slot %s: open session: %w", identity, err)
		if transport.IsConfigError(err) {
			cancelAll()
		}
		logger.Error("failed to open session", "error", err)
		return res
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn("failed to close session", "error", err)
		}
	}()

	w, err := worker.New(worker.Config{
		Worker:    p.cfg,
		Identity:  identity,
		Session:   session,
		Converter: p.converter,
		Logger:    p.logger,
		Metrics:   p.metrics,
	})
	if err != nil {
		// Неполная сессия или параметры воркера — ошибка конфигурации,
		// одинаковая для всех слотов
		res.Err = fmt.Errorf("slot %s: %w", identity, err)
		cancelAll()
		logger.Error("failed to create worker", "error", err)
		return res
	}

	p.metrics.SlotStarted(p.cfg.Service)
	defer p.metrics.SlotStopped(p.cfg.Service)

	err = w.Run(ctx)
	res.Stats = w.Stats()

	if err != nil && !(ctx.Err() != nil && errors.Is(err, ctx.Err())) {
		res.Err = fmt.Errorf("slot %s: %w", identity, err)
	}

	return res
}
