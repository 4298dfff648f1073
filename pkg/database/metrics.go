package database

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/event"
)

// PoolMetrics exports MongoDB connection pool activity as Prometheus metrics.
// Attach it with options.Client().SetPoolMonitor(m.Monitor()).
type PoolMetrics struct {
	open       prometheus.Gauge
	inUse      prometheus.Gauge
	created    prometheus.Counter
	closed     prometheus.Counter
	checkouts  prometheus.Counter
	failedGets prometheus.Counter
	cleared    prometheus.Counter
}

// NewPoolMetrics creates pool metrics labelled with service and registers
// them with reg.
func NewPoolMetrics(service string, reg prometheus.Registerer) *PoolMetrics {
	labels := prometheus.Labels{"service": service}
	m := &PoolMetrics{
		open: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "mongo_pool_open_connections",
			Help:        "Number of open connections in the pool",
			ConstLabels: labels,
		}),
		inUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "mongo_pool_in_use_connections",
			Help:        "Number of connections currently checked out",
			ConstLabels: labels,
		}),
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "mongo_pool_connections_created_total",
			Help:        "Total number of connections created",
			ConstLabels: labels,
		}),
		closed: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "mongo_pool_connections_closed_total",
			Help:        "Total number of connections closed",
			ConstLabels: labels,
		}),
		checkouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "mongo_pool_checkouts_total",
			Help:        "Total number of successful connection checkouts",
			ConstLabels: labels,
		}),
		failedGets: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "mongo_pool_checkout_failures_total",
			Help:        "Total number of failed connection checkouts",
			ConstLabels: labels,
		}),
		cleared: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "mongo_pool_cleared_total",
			Help:        "Total number of times the pool was cleared",
			ConstLabels: labels,
		}),
	}
	reg.MustRegister(m.open, m.inUse, m.created, m.closed, m.checkouts, m.failedGets, m.cleared)
	return m
}

// Monitor returns a driver pool monitor that feeds these metrics.
func (m *PoolMetrics) Monitor() *event.PoolMonitor {
	return &event.PoolMonitor{Event: m.observe}
}

func (m *PoolMetrics) observe(e *event.PoolEvent) {
	switch e.Type {
	case event.ConnectionCreated:
		m.created.Inc()
		m.open.Inc()
	case event.ConnectionClosed:
		m.closed.Inc()
		m.open.Dec()
	case event.GetSucceeded:
		m.checkouts.Inc()
		m.inUse.Inc()
	case event.ConnectionReturned:
		m.inUse.Dec()
	case event.GetFailed:
		m.failedGets.Inc()
	case event.PoolCleared:
		m.cleared.Inc()
	}
}
