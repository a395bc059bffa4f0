package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogConfig — параметры логгера воркера.
type LogConfig struct {
	Level slog.Level

	// Format — "json" (по умолчанию) или "text".
	Format string
}

// LogConfigFromEnv читает LOG_LEVEL (DEBUG, INFO, WARN, ERROR; по
// умолчанию INFO) и LOG_FORMAT.
func LogConfigFromEnv() LogConfig {
	return LogConfig{
		Level:  ParseLevel(os.Getenv("LOG_LEVEL")),
		Format: strings.ToLower(strings.TrimSpace(os.Getenv("LOG_FORMAT"))),
	}
}

// ParseLevel разбирает имя уровня без учёта регистра. Неизвестное имя
// даёт INFO.
func ParseLevel(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Logger создаёт логгер, пишущий в w. На уровне DEBUG к записям
// добавляется место в исходниках.
func (c LogConfig) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     c.Level,
		AddSource: c.Level <= slog.LevelDebug,
	}

	if c.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// SetupLogger создаёт логгер из окружения, пишущий в stderr, и делает
// его глобальным.
func SetupLogger() *slog.Logger {
	logger := LogConfigFromEnv().Logger(os.Stderr)
	slog.SetDefault(logger)
	return logger
}

// ForSlot добавляет к логгеру поля слота. Пустой service не пишется.
func ForSlot(logger *slog.Logger, identity, service string) *slog.Logger {
	if service == "" {
		return logger.With("identity", identity)
	}
	return logger.With("identity", identity, "service", service)
}

// ForTask добавляет к логгеру task_id.
func ForTask(logger *slog.Logger, taskID string) *slog.Logger {
	return logger.With("task_id", taskID)
}

type loggerKey struct{}

// WithLogger кладёт логгер задачи в контекст: так конвертер пишет
// предупреждения с полями слота и задачи.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext достаёт логгер из контекста, иначе возвращает глобальный.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
