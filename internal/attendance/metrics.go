package attendance

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendance",
		Name:      "submissions_total",
		Help:      "Check-in submissions by result.",
	}, []string{"result"})

	fallbackTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendance",
		Name:      "fallback_total",
		Help:      "Operations served by the in-memory fallback store.",
	}, []string{"operation", "reason"})
)

const (
	resultCreated   = "created"
	resultDegraded  = "created_fallback"
	resultDuplicate = "duplicate"
	resultInvalid   = "invalid"

	reasonError = "error"
	reasonEmpty = "empty"
)
