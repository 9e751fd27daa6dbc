// Package metrics exposes manager state and events through prometheus.
// Aggregate and per-backend gauges are read from manager snapshots at
// scrape time; counters are fed by the manager's Recorder hooks.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/standardbeagle/toolmux/internal/manager"
)

const (
	MetricsNamespace         = "toolmux"
	MetricsSubsystemBackends = "backends"
	MetricsSubsystemTools    = "tools"
)

// Metrics records manager events and serves the prometheus registry.
// It satisfies manager.Recorder.
type Metrics interface {
	GetRegistry() *prometheus.Registry

	// RegisterManager adds scrape-time gauges backed by the manager's
	// snapshot surface.
	RegisterManager(mgr *manager.Manager)

	ObserveToolCall(backend, tool string)
	ObserveToolCallError(backend, tool string)
	ObserveReconnectAttempt(backend string)
	ObservePing(backend string, healthy bool)
}

type metrics struct {
	registry *prometheus.Registry

	// Counters are labeled by backend only; tool names are unbounded and
	// would blow up series cardinality.
	toolCallsTotal         *prometheus.CounterVec
	toolCallErrorsTotal    *prometheus.CounterVec
	reconnectAttemptsTotal *prometheus.CounterVec
	pingsTotal             *prometheus.CounterVec
}

// NewMetrics creates a metrics collector with its own registry.
func NewMetrics() Metrics {
	m := &metrics{}

	m.registry = prometheus.NewRegistry()

	m.toolCallsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemTools,
		Name:      "calls_total",
		Help:      "Total tool calls dispatched, per backend.",
	}, []string{"backend"})
	m.registry.MustRegister(m.toolCallsTotal)

	m.toolCallErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemTools,
		Name:      "call_errors_total",
		Help:      "Total failed tool calls, per backend.",
	}, []string{"backend"})
	m.registry.MustRegister(m.toolCallErrorsTotal)

	m.reconnectAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemBackends,
		Name:      "reconnect_attempts_total",
		Help:      "Total reconnect attempts, per backend.",
	}, []string{"backend"})
	m.registry.MustRegister(m.reconnectAttemptsTotal)

	m.pingsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemBackends,
		Name:      "pings_total",
		Help:      "Health-check pings issued, per backend and result.",
	}, []string{"backend", "result"})
	m.registry.MustRegister(m.pingsTotal)

	return m
}

func (m *metrics) GetRegistry() *prometheus.Registry {
	return m.registry
}

func (m *metrics) RegisterManager(mgr *manager.Manager) {
	m.registry.MustRegister(newManagerCollector(mgr))
}

func (m *metrics) ObserveToolCall(backend, _ string) {
	m.toolCallsTotal.With(prometheus.Labels{"backend": backend}).Inc()
}

func (m *metrics) ObserveToolCallError(backend, _ string) {
	m.toolCallErrorsTotal.With(prometheus.Labels{"backend": backend}).Inc()
}

func (m *metrics) ObserveReconnectAttempt(backend string) {
	m.reconnectAttemptsTotal.With(prometheus.Labels{"backend": backend}).Inc()
}

func (m *metrics) ObservePing(backend string, healthy bool) {
	result := "healthy"
	if !healthy {
		result = "unhealthy"
	}
	m.pingsTotal.With(prometheus.Labels{"backend": backend, "result": result}).Inc()
}

// managerCollector reads manager snapshots at scrape time. It holds no
// state of its own, so it is safe to collect concurrently with all manager
// operations.
type managerCollector struct {
	mgr *manager.Manager

	totalBackends     *prometheus.Desc
	connectedBackends *prometheus.Desc
	totalTools        *prometheus.Desc
	backendUp         *prometheus.Desc
	backendTools      *prometheus.Desc
}

func newManagerCollector(mgr *manager.Manager) *managerCollector {
	return &managerCollector{
		mgr: mgr,
		totalBackends: prometheus.NewDesc(
			prometheus.BuildFQName(MetricsNamespace, MetricsSubsystemBackends, "configured"),
			"Number of configured backends.", nil, nil),
		connectedBackends: prometheus.NewDesc(
			prometheus.BuildFQName(MetricsNamespace, MetricsSubsystemBackends, "connected"),
			"Number of currently connected backends.", nil, nil),
		totalTools: prometheus.NewDesc(
			prometheus.BuildFQName(MetricsNamespace, MetricsSubsystemTools, "available"),
			"Number of tools currently dispatchable across all backends.", nil, nil),
		backendUp: prometheus.NewDesc(
			prometheus.BuildFQName(MetricsNamespace, MetricsSubsystemBackends, "up"),
			"Whether the backend is connected (1) or not (0).", []string{"backend"}, nil),
		backendTools: prometheus.NewDesc(
			prometheus.BuildFQName(MetricsNamespace, MetricsSubsystemBackends, "tool_count"),
			"Last known tool count per backend.", []string{"backend"}, nil),
	}
}

func (c *managerCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.totalBackends
	ch <- c.connectedBackends
	ch <- c.totalTools
	ch <- c.backendUp
	ch <- c.backendTools
}

func (c *managerCollector) Collect(ch chan<- prometheus.Metric) {
	agg := c.mgr.GetMetrics()
	ch <- prometheus.MustNewConstMetric(c.totalBackends, prometheus.GaugeValue, float64(agg.TotalBackends))
	ch <- prometheus.MustNewConstMetric(c.connectedBackends, prometheus.GaugeValue, float64(agg.ConnectedBackends))
	ch <- prometheus.MustNewConstMetric(c.totalTools, prometheus.GaugeValue, float64(agg.TotalTools))

	for name, health := range c.mgr.GetHealth() {
		up := 0.0
		if health.Status == manager.HealthHealthy {
			up = 1.0
		}
		ch <- prometheus.MustNewConstMetric(c.backendUp, prometheus.GaugeValue, up, name)
		ch <- prometheus.MustNewConstMetric(c.backendTools, prometheus.GaugeValue, float64(health.ToolCount), name)
	}
}
