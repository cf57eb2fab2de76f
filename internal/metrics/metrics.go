package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rml_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rml_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	checkoutOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rml_checkout_operations_total",
			Help: "Checkout steps by outcome",
		},
		[]string{"operation", "status"},
	)

	gatewayCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rml_payment_gateway_calls_total",
			Help: "Payment gateway calls by operation and outcome",
		},
		[]string{"operation", "status"},
	)

	notificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rml_notifications_total",
			Help: "Outbound notifications per recipient by outcome",
		},
		[]string{"template", "status"},
	)

	ordersReconciled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rml_orders_reconciled_total",
			Help: "Orders whose status was refreshed from the gateway",
		},
		[]string{"source", "order_status"},
	)
)

func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
	}
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

func RecordCheckout(operation string, success bool) {
	checkoutOperations.WithLabelValues(operation, outcome(success)).Inc()
}

func RecordGatewayCall(operation string, success bool) {
	gatewayCalls.WithLabelValues(operation, outcome(success)).Inc()
}

func RecordNotification(template string, success bool) {
	notificationsSent.WithLabelValues(template, outcome(success)).Inc()
}

// RecordReconciled counts a status refresh; source is "return" or "worker".
func RecordReconciled(source, orderStatus string) {
	ordersReconciled.WithLabelValues(source, orderStatus).Inc()
}
