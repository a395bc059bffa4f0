package cli

import (
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/shaiso/Pericortex/internal/config"
)

// DefaultMetricsAddr — адрес /metrics и /healthz по умолчанию.
const DefaultMetricsAddr = ":8082"

// Options — значения глобальных флагов.
type Options struct {
	ConfigPath  string
	Source      string
	Sink        string
	PoolSize    int
	MessageSize int
	Limit       int
	Cooldown    time.Duration
	WorkDir     string
	MetricsAddr string
	JSON        bool
}

// BindFlags регистрирует глобальные флаги.
func (o *Options) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.ConfigPath, "config", "", "Path to YAML config file")
	fs.StringVar(&o.Source, "source", "", "Dispatcher address (tcp://, ipc://, inproc://, amqp://)")
	fs.StringVar(&o.Sink, "sink", "", "Sink address (tcp://, ipc://, inproc://, amqp://)")
	fs.IntVar(&o.PoolSize, "pool-size", 0, "Number of concurrent worker slots")
	fs.IntVar(&o.MessageSize, "message-size", 0, "Output frame size in bytes")
	fs.IntVar(&o.Limit, "limit", 0, "Exit each slot after this many tasks (0 = no limit)")
	fs.DurationVar(&o.Cooldown, "cooldown", 0, "Pause after an empty or failed task")
	fs.StringVar(&o.WorkDir, "work-dir", "", "Directory for temporary files")
	fs.StringVar(&o.MetricsAddr, "metrics-addr", DefaultMetricsAddr, "Address for /metrics and /healthz (empty to disable)")
	fs.BoolVar(&o.JSON, "json", false, "Print the final report in JSON format")
}

// Resolve собирает конфигурацию воркера.
//
// Порядок: встроенные значения сервиса → defaults → YAML (--config) →
// переменные окружения → positional → явно заданные флаги. Результат
// проверяется через Validate.
func (o *Options) Resolve(service string, fs *pflag.FlagSet, defaults, positional func(*config.WorkerConfig) error) (config.WorkerConfig, error) {
	cfg, err := config.Default(service)
	if err != nil {
		return config.WorkerConfig{}, err
	}

	if defaults != nil {
		if err := defaults(&cfg); err != nil {
			return config.WorkerConfig{}, err
		}
	}

	if o.ConfigPath != "" {
		cfg, err = config.LoadFile(o.ConfigPath, cfg)
		if err != nil {
			return config.WorkerConfig{}, err
		}
		// Сервис определяется командой, а не файлом
		cfg.Service = service
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return config.WorkerConfig{}, err
	}

	if positional != nil {
		if err := positional(&cfg); err != nil {
			return config.WorkerConfig{}, err
		}
	}

	o.applyFlags(&cfg, fs)

	if err := cfg.Validate(); err != nil {
		return config.WorkerConfig{}, err
	}

	return cfg, nil
}

// applyFlags переносит в cfg только явно заданные флаги.
func (o *Options) applyFlags(cfg *config.WorkerConfig, fs *pflag.FlagSet) {
	if fs == nil {
		return
	}
	if fs.Changed("source") {
		cfg.Source = o.Source
	}
	if fs.Changed("sink") {
		cfg.Sink = o.Sink
	}
	if fs.Changed("pool-size") {
		cfg.PoolSize = o.PoolSize
	}
	if fs.Changed("message-size") {
		cfg.MessageSize = o.MessageSize
	}
	if fs.Changed("limit") {
		cfg.Limit = o.Limit
	}
	if fs.Changed("cooldown") {
		cfg.Cooldown = o.Cooldown
	}
	if fs.Changed("work-dir") {
		cfg.WorkDir = o.WorkDir
	}
}
