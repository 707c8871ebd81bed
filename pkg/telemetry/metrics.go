package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Engine metrics, registered on the default registry and served by
// promhttp on /metrics.

var (
	decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "triaged_decisions_total",
		Help: "Processed interactions by category and escalation reason.",
	}, []string{"category", "reason"})

	escalationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "triaged_escalations_total",
		Help: "Escalated interactions by channel.",
	}, []string{"channel"})

	replaysTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "triaged_replays_total",
		Help: "Duplicate interaction ids short-circuited with the stored decision.",
	})

	identityConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "triaged_identity_conflicts_total",
		Help: "Interactions rejected because an identifier is bound to another customer.",
	})

	processingSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "triaged_processing_seconds",
		Help:    "End-to-end engine processing latency per interaction.",
		Buckets: prometheus.DefBuckets,
	})

	laneDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "triaged_lane_depth",
		Help: "Queued interactions per processing lane.",
	}, []string{"lane"})

	handoffsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "triaged_handoffs_total",
		Help: "Handoff notification outcomes.",
	}, []string{"outcome"})
)

// RecordDecision counts a processed interaction.
func RecordDecision(category, reason string, dur time.Duration) {
	decisionsTotal.WithLabelValues(category, reason).Inc()
	processingSeconds.Observe(dur.Seconds())
}

// RecordEscalation counts an escalation by origin channel.
func RecordEscalation(channel string) {
	escalationsTotal.WithLabelValues(channel).Inc()
}

// RecordReplay counts a replayed duplicate.
func RecordReplay() { replaysTotal.Inc() }

// RecordIdentityConflict counts a rejected conflicting record.
func RecordIdentityConflict() { identityConflictsTotal.Inc() }

// SetLaneDepth reports the queue depth of one lane.
func SetLaneDepth(lane string, depth int) {
	laneDepth.WithLabelValues(lane).Set(float64(depth))
}

// RecordHandoff counts a handoff delivery outcome ("delivered" or "pending").
func RecordHandoff(outcome string) {
	handoffsTotal.WithLabelValues(outcome).Inc()
}
