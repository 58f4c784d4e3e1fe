package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransitionsTotal counts workflow transitions by mode (manual or
	// automatic).
	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "caseflow_transitions_total",
		Help: "Workflow transitions applied to expedientes.",
	}, []string{"mode"})

	TasksCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caseflow_tasks_completed_total",
		Help: "Tasks marked as completed.",
	})

	NotificationsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caseflow_notifications_published_total",
		Help: "Notifications published to the sink.",
	})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "caseflow_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

// GinMiddleware records request durations per route.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		requestDuration.
			WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
