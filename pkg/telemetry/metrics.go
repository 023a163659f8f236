package telemetry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsNamespace prefixes every autoprep metric name.
const metricsNamespace = "autoprep"

// RunMetrics collects Prometheus counters for a single pipeline run.
// The registry is private to the run; final values are gathered into the
// run report rather than served.
type RunMetrics struct {
	// TasksSucceeded counts tasks whose transformation was committed.
	TasksSucceeded prometheus.Counter

	// TasksFailed counts tasks recorded as failed, by stage.
	TasksFailed *prometheus.CounterVec

	// ExecutionAttempts counts subordinate process invocations.
	ExecutionAttempts prometheus.Counter

	// RepairsIssued counts repair calls that returned replacement code.
	RepairsIssued prometheus.Counter

	// RepairsFailed counts repair calls that themselves failed.
	RepairsFailed prometheus.Counter

	registry *prometheus.Registry
}

// NewRunMetrics creates a metrics collector with a private registry.
func NewRunMetrics() *RunMetrics {
	registry := prometheus.NewRegistry()

	m := &RunMetrics{
		registry: registry,
		TasksSucceeded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "tasks_succeeded_total",
			Help:      "Total number of tasks that committed a snapshot",
		}),
		TasksFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "tasks_failed_total",
			Help:      "Total number of tasks recorded as failed",
		}, []string{"stage"}),
		ExecutionAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "execution_attempts_total",
			Help:      "Total number of subordinate process invocations",
		}),
		RepairsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "repairs_issued_total",
			Help:      "Total number of repair calls that returned replacement code",
		}),
		RepairsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "repairs_failed_total",
			Help:      "Total number of repair calls that failed",
		}),
	}

	registry.MustRegister(
		m.TasksSucceeded,
		m.TasksFailed,
		m.ExecutionAttempts,
		m.RepairsIssued,
		m.RepairsFailed,
	)
	return m
}

// Report gathers the current counter values into a sorted, human-readable
// block for the run report.
func (m *RunMetrics) Report() (string, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return "", fmt.Errorf("failed to gather metrics: %w", err)
	}

	var lines []string
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			name := family.GetName()
			for _, label := range metric.GetLabel() {
				name += fmt.Sprintf("{%s=%s}", label.GetName(), label.GetValue())
			}
			lines = append(lines, fmt.Sprintf("%s %v", name, metric.GetCounter().GetValue()))
		}
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n"), nil
}
