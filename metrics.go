package ddl

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Statement outcomes, used as metric label values.
const (
	outcomeOK          = "ok"
	outcomeParse       = "parse_error"
	outcomeExecution   = "execution_error"
	outcomeReplication = "replication_error"
)

// Collectors of a database. They are registered only when a registerer is
// configured with WithRegisterer.
type metrics struct {
	statements  *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	replication *prometheus.HistogramVec
	rollbacks   prometheus.Counter
	counts      *prometheus.CounterVec
}

func newMetrics() *metrics {
	return &metrics{
		statements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ddl_statements_total",
				Help: "Total number of schema statements processed",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ddl_statement_duration_seconds",
				Help:    "Time spent on a schema statement, replication included",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		replication: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ddl_replication_duration_seconds",
				Help:    "Time spent waiting for the replication quorum",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"quorum"},
		),
		rollbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ddl_rollbacks_total",
				Help: "Total number of statements rolled back after a replication failure",
			},
		),
		counts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ddl_count_requests_total",
				Help: "Total number of cluster count requests served",
			},
			[]string{"status"},
		),
	}
}

func (m *metrics) register(registerer prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.statements, m.duration, m.replication, m.rollbacks, m.counts} {
		if err := registerer.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *metrics) statement(outcome string, start time.Time) {
	m.statements.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}
