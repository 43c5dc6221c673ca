// Package metrics exports service counters to Prometheus. A nil *Metrics is
// valid and records nothing, so components can be built without it in tests.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const DefaultNamespace = "nullid"

type Metrics struct {
	storageDuration *prometheus.HistogramVec
	storageErrors   *prometheus.CounterVec
	uploadedBytes   prometheus.Counter
	accessDenied    *prometheus.CounterVec
	triggerEvents   *prometheus.CounterVec
	invocations     *prometheus.CounterVec
	invocationTime  prometheus.Histogram
	replacements    *prometheus.CounterVec
	notifications   *prometheus.CounterVec
}

func New(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		storageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "storage_operation_duration_seconds",
			Help:      "Latency of object storage operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		storageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_operation_errors_total",
			Help:      "Failed object storage operations.",
		}, []string{"operation"}),
		uploadedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_bytes_total",
			Help:      "Bytes written to object storage by clients.",
		}),
		accessDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "access_denied_total",
			Help:      "Requests rejected by the storage access policy.",
		}, []string{"operation"}),
		triggerEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trigger_events_total",
			Help:      "Object-created events handed to the processing function.",
		}, []string{"result"}),
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "function_invocations_total",
			Help:      "Processing function invocations by result.",
		}, []string{"result"}),
		invocationTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "function_duration_seconds",
			Help:      "Processing function invocation latency.",
			Buckets:   prometheus.DefBuckets,
		}),
		replacements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pii_replacements_total",
			Help:      "Personal data matches replaced with synthetic values.",
		}, []string{"kind"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "error_notifications_total",
			Help:      "Error notifications by delivery result.",
		}, []string{"result"}),
	}

	var err error
	if m.storageDuration, err = register(reg, m.storageDuration); err != nil {
		return nil, err
	}
	if m.storageErrors, err = register(reg, m.storageErrors); err != nil {
		return nil, err
	}
	if m.uploadedBytes, err = register(reg, m.uploadedBytes); err != nil {
		return nil, err
	}
	if m.accessDenied, err = register(reg, m.accessDenied); err != nil {
		return nil, err
	}
	if m.triggerEvents, err = register(reg, m.triggerEvents); err != nil {
		return nil, err
	}
	if m.invocations, err = register(reg, m.invocations); err != nil {
		return nil, err
	}
	if m.invocationTime, err = register(reg, m.invocationTime); err != nil {
		return nil, err
	}
	if m.replacements, err = register(reg, m.replacements); err != nil {
		return nil, err
	}
	if m.notifications, err = register(reg, m.notifications); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("failed to register metric: %w", err)
	}
	return c, nil
}

func (m *Metrics) ObserveStorage(op string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.storageDuration.WithLabelValues(op).Observe(d.Seconds())
	if err != nil {
		m.storageErrors.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) AddUploadedBytes(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.uploadedBytes.Add(float64(n))
}

func (m *Metrics) IncAccessDenied(op string) {
	if m == nil {
		return
	}
	m.accessDenied.WithLabelValues(op).Inc()
}

func (m *Metrics) IncTrigger(err error) {
	if m == nil {
		return
	}
	m.triggerEvents.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) ObserveInvocation(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.invocationTime.Observe(d.Seconds())
	m.invocations.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) AddReplacements(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.replacements.WithLabelValues(kind).Add(float64(n))
}

func (m *Metrics) IncNotification(err error) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
