package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Pericortex/internal/config"
	"github.com/shaiso/Pericortex/internal/converter"
	"github.com/shaiso/Pericortex/internal/pool"
	"github.com/shaiso/Pericortex/internal/telemetry"
	"github.com/shaiso/Pericortex/internal/transport"
)

// shutdownTimeout — сколько ждать остановки HTTP-сервера метрик.
const shutdownTimeout = 5 * time.Second

// Serve запускает пул воркера и HTTP-сервер /metrics + /healthz.
//
// Блокируется, пока пул не завершится (лимит задач, отмена ctx или
// ошибка конфигурации). Итог по слотам выводится через out.
func Serve(ctx context.Context, cfg config.WorkerConfig, opts *Options, logger *slog.Logger, out *Output) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := telemetry.NewMetrics(registry)

	conv, err := converter.NewRegistry().Build(cfg, nil)
	if err != nil {
		return err
	}

	p, err := pool.New(pool.Config{
		Worker:    cfg,
		Dialer:    transport.NewDialer(logger),
		Converter: conv,
		Logger:    logger,
		Metrics:   metrics,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if opts.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              opts.MetricsAddr,
			Handler:           observed(logger, NewMux(registry)),
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			logger.Info("listening", "addr", opts.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
				cancel()
			}
		}()

		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
			defer done()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("http server shutdown failed", "error", err)
			}
		}()
	}

	logger.Info("starting cortex worker",
		"service", cfg.Service,
		"version", cfg.Version,
		"source", cfg.Source,
		"sink", cfg.Sink,
		"pool_size", cfg.PoolSize,
	)

	report, err := p.Run(ctx)
	out.Report(report)

	return err
}

// NewMux возвращает HTTP-обработчик /healthz и /metrics.
func NewMux(gatherer prometheus.Gatherer) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return mux
}
