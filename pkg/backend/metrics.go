package backend

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus collectors a running Backend reports,
// grounded on the teacher's metrics.Collector registration shape
// (own registry, pre-built collector instances, MustRegister once at
// construction) but cut down to this domain's handful of signals: no
// cost, token, or provider metrics have an analogue here.
type Metrics struct {
	Registry *prometheus.Registry

	ConnectionsServed     prometheus.Counter
	ObservationsPersisted prometheus.Counter
	RefitsRun             *prometheus.CounterVec
	ClusterCount          *prometheus.GaugeVec
	BlockedCount          *prometheus.GaugeVec
}

// NewMetrics builds a Metrics with its own registry, ready to serve on
// a /metrics handler.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		ConnectionsServed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "laproxy_backend",
			Name:      "connections_served_total",
			Help:      "Judge update connections accepted and replied to.",
		}),
		ObservationsPersisted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "laproxy_backend",
			Name:      "observations_persisted_total",
			Help:      "Per-connection observations appended to a service's points/convs logs.",
		}),
		RefitsRun: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "laproxy_backend",
			Name:      "refits_total",
			Help:      "Model refits completed, labeled by service id.",
		}, []string{"service_id"}),
		ClusterCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "laproxy_backend",
			Name:      "cluster_count",
			Help:      "Centroid count installed by the most recent refit, labeled by service id.",
		}, []string{"service_id"}),
		BlockedCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "laproxy_backend",
			Name:      "blocked_cluster_count",
			Help:      "Blocked centroid count as of the most recent refit, labeled by service id.",
		}, []string{"service_id"}),
	}
	m.Registry.MustRegister(
		m.ConnectionsServed,
		m.ObservationsPersisted,
		m.RefitsRun,
		m.ClusterCount,
		m.BlockedCount,
	)
	return m
}

// observeService refreshes the per-service gauges from svc's current
// snapshot; called after every refit so cluster/blocked counts stay
// current on the /metrics endpoint.
func (m *Metrics) observeService(svc *Service) {
	if m == nil {
		return
	}
	clusters, _, blocked := svc.Describe()
	m.ClusterCount.WithLabelValues(svc.id).Set(float64(clusters))
	m.BlockedCount.WithLabelValues(svc.id).Set(float64(len(blocked)))
}
