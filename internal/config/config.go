package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Имена встроенных сервисов.
const (
	ServiceEcho      = "echo_service"
	ServiceTexToHTML = "tex_to_html"
	ServiceEngrafo   = "engrafo"
)

// Значения по умолчанию.
const (
	DefaultSourceAddress = "tcp://127.0.0.1:51695"
	DefaultSinkAddress   = "tcp://127.0.0.1:51696"
	DefaultSourcePort    = 51695
	DefaultSinkPort      = 51696
	DefaultMessageSize   = 100_000
	DefaultPoolSize      = 1
	DefaultCooldown      = 60 * time.Second
	DefaultGracePeriod   = time.Second

	DefaultEngrafoImage  = "arxivvanity/engrafo:2.0.0"
	DefaultEngrafoMemory = "4g"
	DefaultLatexmlBinary = "latexmlc"
	DefaultLatexmlLimit  = 300
)

// WorkerConfig — настройки одного типа воркера.
//
// Заполняется один раз при старте (defaults → YAML → env → флаги),
// после Validate не меняется и передаётся слотам пула по значению.
type WorkerConfig struct {
	// Service — имя сервиса, под которым воркер зарегистрирован в CorTeX.
	Service string `yaml:"service"`

	// Version — версия реализации воркера (информационно).
	Version string `yaml:"version,omitempty"`

	// Source — адрес диспетчера (request channel).
	Source string `yaml:"source"`

	// Sink — адрес sink (delivery channel).
	Sink string `yaml:"sink"`

	// MessageSize — размер фрейма при стриминге результата, в байтах.
	// Больше — меньше IO, меньше — меньше памяти.
	MessageSize int `yaml:"message_size"`

	// PoolSize — количество параллельных слотов.
	PoolSize int `yaml:"pool_size"`

	// Limit — число задач, после которого слот завершается (0 — без лимита).
	// В основном для тестов.
	Limit int `yaml:"limit,omitempty"`

	// Cooldown — пауза после пустой или неудачной задачи.
	Cooldown time.Duration `yaml:"cooldown"`

	// GracePeriod — пауза перед выходом по лимиту, чтобы последняя
	// доставка успела уйти.
	GracePeriod time.Duration `yaml:"grace_period"`

	// WorkDir — каталог для временных файлов (default: os.TempDir()).
	WorkDir string `yaml:"work_dir,omitempty"`

	// Converter — параметры конкретной реализации конвертера.
	Converter ConverterConfig `yaml:"converter"`
}

// ConverterConfig — параметры, специфичные для конвертера.
type ConverterConfig struct {
	// Image — docker-образ (engrafo).
	Image string `yaml:"image,omitempty"`

	// Memory — лимит памяти контейнера, формат docker -m (engrafo).
	Memory string `yaml:"memory,omitempty"`

	// Binary — путь к исполняемому файлу (latexmlc).
	Binary string `yaml:"binary,omitempty"`

	// Timeout — таймаут конвертации в секундах, передаётся внешнему
	// инструменту (latexmlc --timeout).
	Timeout int `yaml:"timeout,omitempty"`

	// ExtraArgs — дополнительные аргументы внешнего инструмента.
	ExtraArgs []string `yaml:"extra_args,omitempty"`
}

// Default возвращает конфигурацию по умолчанию для сервиса.
func Default(service string) (WorkerConfig, error) {
	cfg := WorkerConfig{
		Service:     service,
		Source:      DefaultSourceAddress,
		Sink:        DefaultSinkAddress,
		MessageSize: DefaultMessageSize,
		PoolSize:    DefaultPoolSize,
		Cooldown:    DefaultCooldown,
		GracePeriod: DefaultGracePeriod,
	}

	switch service {
	case ServiceEcho:
		cfg.Version = "0.1"
	case ServiceTexToHTML:
		cfg.Version = "0.1"
		cfg.Converter.Binary = DefaultLatexmlBinary
		cfg.Converter.Timeout = DefaultLatexmlLimit
	case ServiceEngrafo:
		cfg.Version = "2.0"
		cfg.Converter.Image = DefaultEngrafoImage
		cfg.Converter.Memory = DefaultEngrafoMemory
	default:
		return WorkerConfig{}, fmt.Errorf("%w: %s", ErrUnknownService, service)
	}

	return cfg, nil
}

// TCPAddress собирает tcp-адрес из хоста и порта.
func TCPAddress(host string, port int) string {
	return fmt.Sprintf("tcp://%s:%d", host, port)
}

// ApplyEnv применяет переопределения из переменных окружения.
//
// Поддерживаются: CORTEX_SOURCE, CORTEX_SINK, CORTEX_MESSAGE_SIZE,
// CORTEX_POOL_SIZE, CORTEX_WORKDIR, CORTEX_COOLDOWN.
func (c *WorkerConfig) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	if v, ok := lookup("CORTEX_SOURCE"); ok && v != "" {
		c.Source = v
	}
	if v, ok := lookup("CORTEX_SINK"); ok && v != "" {
		c.Sink = v
	}
	if v, ok := lookup("CORTEX_WORKDIR"); ok && v != "" {
		c.WorkDir = v
	}
	if v, ok := lookup("CORTEX_MESSAGE_SIZE"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &ValidationError{Field: "CORTEX_MESSAGE_SIZE", Message: err.Error()}
		}
		c.MessageSize = n
	}
	if v, ok := lookup("CORTEX_POOL_SIZE"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &ValidationError{Field: "CORTEX_POOL_SIZE", Message: err.Error()}
		}
		c.PoolSize = n
	}
	if v, ok := lookup("CORTEX_COOLDOWN"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return &ValidationError{Field: "CORTEX_COOLDOWN", Message: err.Error()}
		}
		c.Cooldown = d
	}

	return nil
}

// Validate проверяет конфигурацию.
func (c *WorkerConfig) Validate() error {
	if strings.TrimSpace(c.Service) == "" {
		return &ValidationError{Field: "service", Message: "is required"}
	}
	if strings.Contains(c.Service, ":") {
		return &ValidationError{Field: "service", Message: "must not contain ':'"}
	}
	if err := validateAddress("source", c.Source); err != nil {
		return err
	}
	if err := validateAddress("sink", c.Sink); err != nil {
		return err
	}
	if c.MessageSize <= 0 {
		return &ValidationError{Field: "message_size", Message: "must be greater than 0"}
	}
	if c.PoolSize < 1 {
		return &ValidationError{Field: "pool_size", Message: "must be at least 1"}
	}
	if c.Limit < 0 {
		return &ValidationError{Field: "limit", Message: "must not be negative"}
	}
	if c.Cooldown < 0 {
		return &ValidationError{Field: "cooldown", Message: "must not be negative"}
	}
	if c.GracePeriod < 0 {
		return &ValidationError{Field: "grace_period", Message: "must not be negative"}
	}
	return nil
}

// TempDir возвращает каталог для временных файлов.
func (c *WorkerConfig) TempDir() string {
	if c.WorkDir != "" {
		return c.WorkDir
	}
	return os.TempDir()
}

// validateAddress проверяет, что адрес разбирается как URL со схемой.
// Поддерживаемость схемы проверяет transport.
func validateAddress(field, addr string) error {
	if addr == "" {
		return &ValidationError{Field: field, Message: "is required"}
	}
	u, err := url.Parse(addr)
	if err != nil {
		return &ValidationError{Field: field, Message: err.Error()}
	}
	if u.Scheme == "" {
		return &ValidationError{Field: field, Message: "missing scheme (expected tcp://, ipc://, inproc:// or amqp://)"}
	}
	return nil
}
