package services

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values for collisionMessages.
const (
	outcomeAccepted = "accepted"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)

var (
	// collisionMessages counts Save/Cancel calls by operation and outcome.
	collisionMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collision_messages_total",
			Help: "Collision messages processed, by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	// collisionRejections counts rejections by reason category.
	collisionRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collision_rejections_total",
			Help: "Rejected collision messages, by operation and reason.",
		},
		[]string{"operation", "reason"},
	)

	// alertsReturned observes how many satellites each alert query reports.
	alertsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "collision_alerts_returned",
			Help:    "Number of per-satellite alerts returned by an alert query.",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		},
	)
)

func init() {
	prometheus.MustRegister(collisionMessages, collisionRejections, alertsReturned)
}

// reasonLabel maps a rejection sentinel to a bounded label value.
func reasonLabel(err error) string {
	switch {
	case errors.Is(err, ErrMissingField):
		return "missing_field"
	case errors.Is(err, ErrInvalidCollisionDate):
		return "invalid_date"
	case errors.Is(err, ErrProbabilityOutOfRange):
		return "probability_range"
	case errors.Is(err, ErrOperatorMismatch):
		return "operator_mismatch"
	case errors.Is(err, ErrCollisionDateNotFuture):
		return "stale_date"
	case errors.Is(err, ErrDuplicateMessage):
		return "duplicate"
	case errors.Is(err, ErrCollisionNotFound):
		return "not_found"
	default:
		return "other"
	}
}
