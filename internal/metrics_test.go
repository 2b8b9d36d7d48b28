package internal

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_ReRegisterReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := NewMetrics("redsys", reg)
	second := NewMetrics("redsys", reg)

	first.notification("paid")
	second.notification("paid")

	assert.Same(t, first.Notifications, second.Notifications)
	assert.Equal(t, 2.0, testutil.ToFloat64(first.Notifications.WithLabelValues("paid")))
}

func TestMetrics_NilIsNoOp(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.paymentCreated("created")
		m.notification("paid")
	})
}
