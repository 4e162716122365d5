package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for assignment decisions.
const (
	OutcomeAssigned   = "assigned"
	OutcomeNoEligible = "no_eligible"
	OutcomeError      = "error"
)

var (
	assignmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "incident_assignment",
			Name:      "assignments_total",
			Help:      "Total number of assignment decisions, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	assignmentSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "incident_assignment",
			Name:      "assignment_seconds",
			Help:      "Assignment decision latency in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	incidentsFetchedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "incident_assignment",
			Name:      "incidents_fetched_total",
			Help:      "Total number of unassigned incidents picked up by the poller.",
		},
	)
)

// Register attaches the collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		assignmentsTotal,
		assignmentSeconds,
		incidentsFetchedTotal,
	}
	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveAssignment records one decision's duration and outcome label.
func ObserveAssignment(duration time.Duration, outcome string) {
	assignmentsTotal.WithLabelValues(outcome).Inc()
	if duration < 0 {
		duration = 0
	}
	assignmentSeconds.Observe(duration.Seconds())
}

// AddFetched counts incidents newly enqueued by the poller.
func AddFetched(n int) {
	incidentsFetchedTotal.Add(float64(n))
}
