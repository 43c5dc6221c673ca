package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New("test", reg)
	require.NoError(t, err)

	m.IncTrigger(nil)
	m.IncTrigger(assert.AnError)
	m.IncAccessDenied("write")
	m.AddReplacements("email", 3)
	m.ObserveInvocation(time.Second, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.triggerEvents.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.triggerEvents.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.accessDenied.WithLabelValues("write")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.replacements.WithLabelValues("email")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.invocations.WithLabelValues("ok")))
}

func TestNewTwiceOnSameRegistryReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := New("test", reg)
	require.NoError(t, err)
	second, err := New("test", reg)
	require.NoError(t, err)

	first.IncAccessDenied("read")
	assert.Equal(t, 1.0, testutil.ToFloat64(second.accessDenied.WithLabelValues("read")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncTrigger(nil)
		m.ObserveStorage("put", time.Millisecond, nil)
		m.AddUploadedBytes(10)
		m.IncNotification(nil)
	})
}
