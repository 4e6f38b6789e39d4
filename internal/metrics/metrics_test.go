package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegisterIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(bookingValidations.WithLabelValues("create", "conflict"))
	IncBookingValidation("create", "conflict")
	assert.Equal(t, before+1, testutil.ToFloat64(bookingValidations.WithLabelValues("create", "conflict")))

	settled := testutil.ToFloat64(paymentsSettled)
	IncPaymentSettled()
	assert.Equal(t, settled+1, testutil.ToFloat64(paymentsSettled))

	dropped := testutil.ToFloat64(eventsDropped.WithLabelValues("queue_full"))
	IncEventDropped("queue_full")
	assert.Equal(t, dropped+1, testutil.ToFloat64(eventsDropped.WithLabelValues("queue_full")))

	ObserveHTTP("GET", "/api/v1/equipment", "200", 0.01)
	assert.Equal(t, float64(1), testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/v1/equipment", "200")))
}
