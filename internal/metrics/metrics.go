// Package metrics exposes the service counters for scraping and pushes the
// sweep count to CloudWatch.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the service counters on a private prometheus registry.
// A nil *Registry is valid and records nothing.
type Registry struct {
	reg         *prometheus.Registry
	Submissions *prometheus.CounterVec
	Failures    *prometheus.CounterVec
	Completed   prometheus.Counter
	Purged      prometheus.Counter
}

// NewRegistry registers the counters on a fresh registry.
func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "printeasy_submissions_total",
		Help: "Accepted submissions by path (pickup, urgent).",
	}, []string{"path"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "printeasy_submission_failures_total",
		Help: "Rejected or failed submissions by error kind.",
	}, []string{"kind"})
	completed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "printeasy_orders_completed_total",
		Help: "Orders marked Done by an operator.",
	})
	purged := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "printeasy_orders_purged_total",
		Help: "Done orders removed by the retention sweep.",
	})

	r.MustRegister(submissions, failures, completed, purged)
	return &Registry{
		reg:         r,
		Submissions: submissions,
		Failures:    failures,
		Completed:   completed,
		Purged:      purged,
	}
}

// Handler serves the registry in the prometheus text format.
func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

// Submitted counts an accepted submission on path.
func (r *Registry) Submitted(path string) {
	if r != nil {
		r.Submissions.WithLabelValues(path).Inc()
	}
}

// Failed counts a rejected submission by error kind.
func (r *Registry) Failed(kind string) {
	if r != nil {
		r.Failures.WithLabelValues(kind).Inc()
	}
}

// MarkedDone counts one Pending to Done transition.
func (r *Registry) MarkedDone() {
	if r != nil {
		r.Completed.Inc()
	}
}

// AddPurged adds the orders removed by one sweep.
func (r *Registry) AddPurged(n int) {
	if r != nil && n > 0 {
		r.Purged.Add(float64(n))
	}
}
