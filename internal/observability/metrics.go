package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StudentsEnrolled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "attend",
		Name:      "students_enrolled_total",
		Help:      "Total number of students enrolled",
	})

	Recognitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attend",
		Name:      "recognitions_total",
		Help:      "Total recognition requests by terminal outcome",
	}, []string{"outcome"})

	MatchDistance = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "attend",
		Name:      "match_distance",
		Help:      "Euclidean distance of accepted matches",
		Buckets:   prometheus.LinearBuckets(0.05, 0.05, 12),
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "attend",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "attend",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)
