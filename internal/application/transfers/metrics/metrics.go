package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the ownership transfer workflow.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Transitions       *prometheus.CounterVec
	Rejections        *prometheus.CounterVec
	SweepExpired      prometheus.Counter
	SweepFailures     prometheus.Counter
	OperationDuration *prometheus.HistogramVec
}

// New registers the transfer metrics with reg. Tests pass a fresh
// prometheus.NewRegistry() to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "orgchart_ownership_transfer_transitions_total",
			Help: "Ownership transfer state transitions by resulting status",
		}, []string{"status"}),
		Rejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "orgchart_ownership_transfer_errors_total",
			Help: "Ownership transfer operations that returned an error, by kind",
		}, []string{"operation", "kind"}),
		SweepExpired: f.NewCounter(prometheus.CounterOpts{
			Name: "orgchart_ownership_transfer_sweep_expired_total",
			Help: "Transfers expired by the scheduled sweep",
		}),
		SweepFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "orgchart_ownership_transfer_sweep_failures_total",
			Help: "Overdue transfers the sweep failed to expire",
		}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "orgchart_ownership_transfer_operation_duration_seconds",
			Help:    "Duration of ownership transfer operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

// IncTransition records a committed transition into status.
func (m *Metrics) IncTransition(status string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(status).Inc()
}

// IncError records a failed operation; kind is the error classification.
func (m *Metrics) IncError(operation, kind string) {
	if m == nil {
		return
	}
	m.Rejections.WithLabelValues(operation, kind).Inc()
}

// AddSweep records one sweep run; expirations also count as transitions.
func (m *Metrics) AddSweep(expired, failed int) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues("expired").Add(float64(expired))
	m.SweepExpired.Add(float64(expired))
	m.SweepFailures.Add(float64(failed))
}

// ObserveOperation records the duration of one operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
