package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kit_http_requests_total",
			Help: "Total number of bridge HTTP requests processed.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kit_http_request_duration_seconds",
			Help:    "Bridge HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	authAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kit_auth_attempts_total",
			Help: "Password checks by action and result.",
		},
		[]string{"action", "result"},
	)
	lockoutsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kit_lockouts_total",
			Help: "Lockout windows started, by action.",
		},
		[]string{"action"},
	)
	sessionRevocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kit_session_revocations_total",
			Help: "Sessions removed, by how the removal happened.",
		},
		[]string{"source"},
	)
	watchdogTicksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kit_watchdog_ticks_total",
			Help: "Revocation watchdog checks performed.",
		},
	)
	messagesSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kit_messages_sent_total",
			Help: "Messages stored, by kind and target kind.",
		},
		[]string{"kind", "target"},
	)
	wsActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "kit_ws_active_connections",
			Help: "Number of active notification websocket connections.",
		},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kit_ws_events_total",
			Help: "Total number of websocket events.",
		},
		[]string{"event"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kit_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		authAttemptsTotal,
		lockoutsTotal,
		sessionRevocationsTotal,
		watchdogTicksTotal,
		messagesSentTotal,
		wsActiveConnections,
		wsEventsTotal,
		amqpPublishErrorsTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func IncAuthAttempt(action, result string) {
	authAttemptsTotal.WithLabelValues(action, result).Inc()
}

func IncLockout(action string) {
	lockoutsTotal.WithLabelValues(action).Inc()
}

func IncSessionRevocation(source string) {
	sessionRevocationsTotal.WithLabelValues(source).Inc()
}

func IncWatchdogTick() {
	watchdogTicksTotal.Inc()
}

func IncMessageSent(kind, target string) {
	messagesSentTotal.WithLabelValues(kind, target).Inc()
}

func IncWSActive() {
	wsActiveConnections.Inc()
}

func DecWSActive() {
	wsActiveConnections.Dec()
}

func IncWSEvent(event string) {
	wsEventsTotal.WithLabelValues(event).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
