package converter

import (
	"context"
	"fmt"
	"io"

	"github.com/shaiso/Pericortex/internal/config"
)

// Converter — подключаемая способность конвертации.
//
// Реализации: Echo, TexToHTML, Engrafo.
//
// Convert вызывается ровно один раз на непустую задачу. inputPath —
// путь к файлу с полученным входом (zip-архив CorTeX). Результат —
// один самодостаточный артефакт (zip с cortex.log в корне), который
// движок прочитает до конца и закроет. Таймауты — забота реализации.
type Converter interface {
	Convert(ctx context.Context, inputPath string) (io.ReadCloser, error)
}

// Func — адаптер, позволяющий использовать функцию как Converter.
type Func func(ctx context.Context, inputPath string) (io.ReadCloser, error)

// Convert вызывает f.
func (f Func) Convert(ctx context.Context, inputPath string) (io.ReadCloser, error) {
	return f(ctx, inputPath)
}

// Factory создаёт Converter из конфигурации воркера.
type Factory func(cfg config.WorkerConfig, runner Runner) Converter

// Registry — реестр конвертеров по имени сервиса.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry создаёт реестр со встроенными конвертерами.
//
// Регистрирует: echo_service, tex_to_html, engrafo.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register(config.ServiceEcho, func(config.WorkerConfig, Runner) Converter {
		return &Echo{}
	})
	r.Register(config.ServiceTexToHTML, func(cfg config.WorkerConfig, runner Runner) Converter {
		return NewTexToHTML(cfg, runner)
	})
	r.Register(config.ServiceEngrafo, func(cfg config.WorkerConfig, runner Runner) Converter {
		return NewEngrafo(cfg, runner)
	})
	return r
}

// Register добавляет фабрику для сервиса.
func (r *Registry) Register(service string, factory Factory) {
	r.factories[service] = factory
}

// Build создаёт конвертер для cfg.Service.
// Если runner == nil, используется ExecRunner.
func (r *Registry) Build(cfg config.WorkerConfig, runner Runner) (Converter, error) {
	factory, ok := r.factories[cfg.Service]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownService, cfg.Service)
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return factory(cfg, runner), nil
}
