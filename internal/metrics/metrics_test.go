package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	// Register should be safe to call multiple times
	Register()
	Register()

	assert.NotPanics(t, func() {
		IncHTTP("bookings_buyer", 200)
		IncBackendRequest("GET", 0)
	})
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(bookingOperations.WithLabelValues("car", "get_buyer_bookings", OutcomeEmpty))
	IncBookingOperation("car", "get_buyer_bookings", OutcomeEmpty)
	after := testutil.ToFloat64(bookingOperations.WithLabelValues("car", "get_buyer_bookings", OutcomeEmpty))
	assert.Equal(t, before+1, after)

	before = testutil.ToFloat64(emptySuppressed.WithLabelValues("mobile", "get_entity_bookings"))
	IncEmptySuppressed("mobile", "get_entity_bookings")
	assert.Equal(t, before+1, testutil.ToFloat64(emptySuppressed.WithLabelValues("mobile", "get_entity_bookings")))
}
