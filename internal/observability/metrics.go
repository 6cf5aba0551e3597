package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	joinedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "volunteer_service",
		Subsystem: "ledger",
		Name:      "participations_joined_total",
		Help:      "Number of participation records created, labeled by activity.",
	}, []string{"activity_id"})
	joinedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "volunteer_service",
		Subsystem: "ledger",
		Name:      "last_participation_joined_timestamp_seconds",
		Help:      "Unix timestamp of the most recent participation record persisted.",
	})
	completedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "volunteer_service",
		Subsystem: "ledger",
		Name:      "last_participation_completed_timestamp_seconds",
		Help:      "Unix timestamp of the most recent completion applied from the completion feed.",
	})
	certificatesCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "volunteer_service",
		Subsystem: "certificates",
		Name:      "rendered_total",
		Help:      "Number of certificate artifacts rendered, labeled by format.",
	}, []string{"format"})
)

func init() {
	prometheus.MustRegister(joinedCounter, joinedGauge, completedGauge, certificatesCounter)
}

// RecordParticipationJoined counts a join and moves the join watermark.
func RecordParticipationJoined(activityID string, ts time.Time) {
	joinedCounter.WithLabelValues(activityID).Inc()
	if ts.IsZero() {
		return
	}
	joinedGauge.Set(float64(ts.Unix()))
}

// RecordParticipationCompleted moves the completion watermark.
func RecordParticipationCompleted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	completedGauge.Set(float64(ts.Unix()))
}

// RecordCertificateRendered counts a rendered artifact of format.
func RecordCertificateRendered(format string) {
	certificatesCounter.WithLabelValues(format).Inc()
}
