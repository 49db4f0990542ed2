package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	AttemptsOpened = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_attempts_opened_total",
			Help: "Attempts created, by assessment kind",
		},
		[]string{"kind"},
	)

	AttemptsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_attempts_submitted_total",
			Help: "Attempts finalized, by kind, trigger and outcome",
		},
		[]string{"kind", "trigger", "outcome"},
	)

	AttemptLimitRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_attempt_limit_rejections_total",
			Help: "Open requests refused because the attempt cap was reached",
		},
		[]string{"kind"},
	)

	Promotions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "level_promotions_total",
			Help: "Promotion outcomes after passed final exams",
		},
		[]string{"status"},
	)

	ScorePercent = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assessment_score_percent",
			Help:    "Distribution of auto-graded attempt scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
		[]string{"kind"},
	)

	ActiveCountdowns = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "assessment_active_countdowns",
			Help: "Timed attempts currently counting down",
		},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			AttemptsOpened,
			AttemptsSubmitted,
			AttemptLimitRejections,
			Promotions,
			ScorePercent,
			ActiveCountdowns,
		)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
