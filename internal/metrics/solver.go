package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/san-kum/trajopt/internal/ilqr"
)

// SolverCollector exports solver progress to Prometheus. It implements
// ilqr.Observer; pass it in ilqr.Options and call ObserveResult when the
// solve returns.
type SolverCollector struct {
	solves     *prometheus.CounterVec
	iterations prometheus.Histogram
	halvings   prometheus.Histogram
	duration   prometheus.Histogram
	lastCost   prometheus.Gauge
}

// NewSolverCollector registers the solver metrics with reg. A nil reg
// creates unregistered metrics.
func NewSolverCollector(reg prometheus.Registerer) *SolverCollector {
	f := promauto.With(reg)
	return &SolverCollector{
		solves: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trajopt_solves_total",
			Help: "Total solves by final status",
		}, []string{"status"}),
		iterations: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "trajopt_iterations",
			Help:    "Outer iterations per solve",
			Buckets: prometheus.ExponentialBuckets(1, 2, 11), // 1 to 1024
		}),
		halvings: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "trajopt_line_search_halvings",
			Help:    "Step halvings per accepted iteration",
			Buckets: []float64{0, 1, 2, 4, 8, 16, 32},
		}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "trajopt_solve_duration_seconds",
			Help:    "Wall time per solve in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		lastCost: f.NewGauge(prometheus.GaugeOpts{
			Name: "trajopt_last_cost",
			Help: "Cost of the most recently accepted trajectory",
		}),
	}
}

func (c *SolverCollector) OnIteration(s ilqr.IterationStats) {
	c.halvings.Observe(float64(s.Halvings))
	c.lastCost.Set(s.Cost)
}

func (c *SolverCollector) ObserveResult(r *ilqr.Result) {
	c.solves.WithLabelValues(r.Status.String()).Inc()
	c.iterations.Observe(float64(r.Iterations))
	c.duration.Observe(r.Elapsed.Seconds())
	if len(r.CostHistory) > 0 {
		c.lastCost.Set(r.FinalCost())
	}
}
