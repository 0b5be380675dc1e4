package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels used alongside the submission error kinds.
const (
	OutcomeAccepted = "accepted"
	OutcomeError    = "error"
)

// Recorder tracks attendance submission outcomes. A nil *Recorder records
// nothing.
type Recorder struct {
	submissions *prometheus.CounterVec
	distance    *prometheus.HistogramVec
	orphans     prometheus.Counter
}

// NewRecorder registers the attendance collectors on reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "attendance",
			Name:      "submissions_total",
			Help:      "Check-in and check-out attempts by outcome.",
		}, []string{"action", "outcome"}),
		distance: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "portal",
			Subsystem: "attendance",
			Name:      "office_distance_meters",
			Help:      "Distance between the submitted location and the office.",
			Buckets:   []float64{10, 25, 50, 100, 200, 500, 1000, 5000, 25000},
		}, []string{"action"}),
		orphans: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "attendance",
			Name:      "orphaned_photos_total",
			Help:      "Uploaded photos whose rollback delete failed.",
		}),
	}

	reg.MustRegister(r.submissions, r.distance, r.orphans)
	return r
}

// Submission counts one attempt. outcome is OutcomeAccepted or an error kind.
func (r *Recorder) Submission(action, outcome string) {
	if r == nil {
		return
	}
	r.submissions.WithLabelValues(action, outcome).Inc()
}

func (r *Recorder) Distance(action string, meters float64) {
	if r == nil {
		return
	}
	r.distance.WithLabelValues(action).Observe(meters)
}

func (r *Recorder) OrphanedPhoto() {
	if r == nil {
		return
	}
	r.orphans.Inc()
}
