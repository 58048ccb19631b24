package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the live-engagement engine.
type Metrics struct {
	activeConnections *prometheus.GaugeVec
	interactionsTotal *prometheus.CounterVec
	broadcastsTotal   *prometheus.CounterVec
	droppedClients    *prometheus.CounterVec
	reconcileRuns     prometheus.Counter
	reconcileFailures prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		activeConnections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "stagelink_active_connections",
			Help: "Number of websocket connections registered per room.",
		}, []string{"room"}),
		interactionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stagelink_interactions_total",
			Help: "State-changing interactions processed, by kind.",
		}, []string{"kind"}),
		broadcastsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stagelink_broadcasts_total",
			Help: "Events published to rooms, by event name.",
		}, []string{"event"}),
		droppedClients: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stagelink_dropped_clients_total",
			Help: "Connections dropped because their send buffer overflowed.",
		}, []string{"room"}),
		reconcileRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stagelink_reconcile_runs_total",
			Help: "Completed metrics reconciliation passes.",
		}),
		reconcileFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stagelink_reconcile_failures_total",
			Help: "Per-room reconciliation failures (logged and skipped).",
		}),
	}

	reg.MustRegister(
		m.activeConnections,
		m.interactionsTotal,
		m.broadcastsTotal,
		m.droppedClients,
		m.reconcileRuns,
		m.reconcileFailures,
	)
	return m
}

func (m *Metrics) SetActiveConnections(room string, n int) {
	m.activeConnections.WithLabelValues(room).Set(float64(n))
}

func (m *Metrics) ObserveInteraction(kind string) {
	m.interactionsTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveBroadcast(event string) {
	m.broadcastsTotal.WithLabelValues(event).Inc()
}

func (m *Metrics) ObserveDroppedClient(room string) {
	m.droppedClients.WithLabelValues(room).Inc()
}

func (m *Metrics) ObserveReconcileRun() {
	m.reconcileRuns.Inc()
}

func (m *Metrics) ObserveReconcileFailure() {
	m.reconcileFailures.Inc()
}
