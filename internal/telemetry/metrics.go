package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "cortex_worker"

// Metrics — Prometheus-метрики воркера.
//
// Все методы безопасны для nil-получателя: слот без метрик
// (например, в тестах) просто ничего не записывает.
type Metrics struct {
	Tasks              *prometheus.CounterVec
	TransportErrors    *prometheus.CounterVec
	InputBytes         *prometheus.CounterVec
	OutputBytes        *prometheus.CounterVec
	Cooldowns          *prometheus.CounterVec
	ActiveSlots        *prometheus.GaugeVec
	ConversionDuration *prometheus.HistogramVec
}

// NewMetrics создаёт метрики и регистрирует их в reg.
// Если reg == nil, используется prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		Tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "tasks_total",
			Help:      "Total number of finished task lifecycles by outcome",
		}, []string{"service", "outcome"}),
		TransportErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "transport_errors_total",
			Help:      "Total number of tasks aborted by transport I/O failures",
		}, []string{"service"}),
		InputBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "input_bytes_total",
			Help:      "Total number of input bytes received from the dispatcher",
		}, []string{"service"}),
		OutputBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "output_bytes_total",
			Help:      "Total number of output bytes streamed to the sink",
		}, []string{"service"}),
		Cooldowns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cooldowns_total",
			Help:      "Total number of cooldown pauses taken after empty or failed tasks",
		}, []string{"service"}),
		ActiveSlots: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "active_slots",
			Help:      "Current number of running worker slots",
		}, []string{"service"}),
		ConversionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "conversion_duration_seconds",
			Help:      "Histogram of conversion capability latency",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"service"}),
	}

	reg.MustRegister(
		m.Tasks,
		m.TransportErrors,
		m.InputBytes,
		m.OutputBytes,
		m.Cooldowns,
		m.ActiveSlots,
		m.ConversionDuration,
	)

	return m
}

// TaskFinished учитывает завершённый цикл задачи.
func (m *Metrics) TaskFinished(service, outcome string, inputBytes, outputBytes int64) {
	if m == nil {
		return
	}
	m.Tasks.WithLabelValues(service, outcome).Inc()
	m.InputBytes.WithLabelValues(service).Add(float64(inputBytes))
	m.OutputBytes.WithLabelValues(service).Add(float64(outputBytes))
}

// TransportError учитывает задачу, прерванную ошибкой транспорта.
func (m *Metrics) TransportError(service string) {
	if m == nil {
		return
	}
	m.TransportErrors.WithLabelValues(service).Inc()
}

// Cooldown учитывает паузу после пустой или неудачной задачи.
func (m *Metrics) Cooldown(service string) {
	if m == nil {
		return
	}
	m.Cooldowns.WithLabelValues(service).Inc()
}

// ObserveConversion записывает длительность вызова конвертера.
func (m *Metrics) ObserveConversion(service string, d time.Duration) {
	if m == nil {
		return
	}
	m.ConversionDuration.WithLabelValues(service).Observe(d.Seconds())
}

// SlotStarted увеличивает число активных слотов.
func (m *Metrics) SlotStarted(service string) {
	if m == nil {
		return
	}
	m.ActiveSlots.WithLabelValues(service).Inc()
}

// SlotStopped уменьшает число активных слотов.
func (m *Metrics) SlotStopped(service string) {
	if m == nil {
		return
	}
	m.ActiveSlots.WithLabelValues(service).Dec()
}
