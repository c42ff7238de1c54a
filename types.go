package lifeback

import (
	"sort"
	"strings"
	"sync"
)

// Logger is a lightweight structured logger interface.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Field holds a structured logging field.
type Field struct {
	Key   string
	Value interface{}
}

// Metrics records counters, gauges and histograms.
type Metrics interface {
	IncCounter(name string, value float64, labels ...Label)
	SetGauge(name string, value float64, labels ...Label)
	ObserveHistogram(name string, value float64, labels ...Label)
}

// Label is a simple name/value pair for metrics.
type Label struct {
	Name  string
	Value string
}

// Metric names recorded by the coordinator and the session engine.
const (
	MetricStepsForward   = "steps_forward_total"
	MetricStepsBackward  = "steps_backward_total"
	MetricEvictions      = "history_evictions_total"
	MetricEmptyPops      = "history_empty_pops_total"
	MetricUndoDepth      = "undo_depth"
	MetricPopulation     = "population"
	MetricStepDuration   = "step_duration_seconds"
	MetricCyclesDetected = "cycles_detected_total"
)

type nopLogger struct{}

// NopLogger returns a no-op logger implementation.
func NopLogger() Logger { return nopLogger{} }

func (nopLogger) Debug(string, ...Field) {}
func (nopLogger) Info(string, ...Field)  {}
func (nopLogger) Warn(string, ...Field)  {}
func (nopLogger) Error(string, ...Field) {}

type nopMetrics struct{}

// NopMetrics returns a no-op metrics recorder.
func NopMetrics() Metrics { return nopMetrics{} }

func (nopMetrics) IncCounter(string, float64, ...Label)       {}
func (nopMetrics) SetGauge(string, float64, ...Label)         {}
func (nopMetrics) ObserveHistogram(string, float64, ...Label) {}

// MemoryMetrics keeps the latest values in memory. It backs the TUI status
// line and the HTTP metrics endpoint when no external recorder is wired.
type MemoryMetrics struct {
	mu         sync.Mutex
	counters   map[string]float64
	gauges     map[string]float64
	histograms map[string][]float64
}

// NewMemoryMetrics returns an empty recorder.
func NewMemoryMetrics() *MemoryMetrics {
	return &MemoryMetrics{
		counters:   map[string]float64{},
		gauges:     map[string]float64{},
		histograms: map[string][]float64{},
	}
}

func (m *MemoryMetrics) IncCounter(name string, value float64, labels ...Label) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[metricKey(name, labels)] += value
}

func (m *MemoryMetrics) SetGauge(name string, value float64, labels ...Label) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[metricKey(name, labels)] = value
}

// ObserveHistogram keeps only the most recent 256 observations per series.
func (m *MemoryMetrics) ObserveHistogram(name string, value float64, labels ...Label) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := metricKey(name, labels)
	obs := append(m.histograms[key], value)
	if len(obs) > 256 {
		obs = obs[len(obs)-256:]
	}
	m.histograms[key] = obs
}

// Counter returns the accumulated value of an unlabeled counter.
func (m *MemoryMetrics) Counter(name string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[name]
}

// Gauge returns the last value of an unlabeled gauge.
func (m *MemoryMetrics) Gauge(name string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gauges[name]
}

// Values flattens counters and gauges into one map, histograms as their
// observation count.
func (m *MemoryMetrics) Values() map[string]float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]float64, len(m.counters)+len(m.gauges)+len(m.histograms))
	for k, v := range m.counters {
		out[k] = v
	}
	for k, v := range m.gauges {
		out[k] = v
	}
	for k, v := range m.histograms {
		out[k+"_count"] = float64(len(v))
	}
	return out
}

func metricKey(name string, labels []Label) string {
	if len(labels) == 0 {
		return name
	}
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		parts = append(parts, l.Name+"="+l.Value)
	}
	sort.Strings(parts)
	return name + "{" + strings.Join(parts, ",") + "}"
}
