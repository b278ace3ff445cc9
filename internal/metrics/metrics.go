package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tradepost"

// Outcome labels for booking operations.
const (
	OutcomeOK          = "ok"
	OutcomeEmpty       = "empty"
	OutcomeError       = "error"
	OutcomeNotFound    = "not_found"
	OutcomeMalformed   = "malformed"
	OutcomeFallback    = "fallback"
	OutcomeUnsupported = "unsupported"
)

var (
	once sync.Once

	bookingOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_operations_total",
			Help:      "Booking adapter operations by entity type, operation and outcome.",
		},
		[]string{"entity", "operation", "outcome"},
	)

	backendRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Requests sent to the marketplace backend by method and status code.",
		},
		[]string{"method", "status"},
	)

	emptySuppressed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "empty_result_suppressed_total",
			Help:      "Backend errors converted into empty booking lists.",
		},
		[]string{"entity", "operation"},
	)

	gatewayRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Gateway HTTP requests by route and status code.",
		},
		[]string{"route", "status"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingOperations, backendRequests, emptySuppressed, gatewayRequests)
	})
}

// IncBookingOperation counts one adapter call.
func IncBookingOperation(entity, operation, outcome string) {
	bookingOperations.WithLabelValues(entity, operation, outcome).Inc()
}

// IncBackendRequest counts one backend round trip; status 0 means no response.
func IncBackendRequest(method string, status int) {
	backendRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// IncEmptySuppressed counts an error that was turned into an empty list.
func IncEmptySuppressed(entity, operation string) {
	emptySuppressed.WithLabelValues(entity, operation).Inc()
}

// IncHTTP counts one gateway request.
func IncHTTP(route string, status int) {
	gatewayRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}
