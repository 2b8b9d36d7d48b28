package internal

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the Prometheus collectors of the payments service. A nil
// *Metrics records nothing.
type Metrics struct {
	PaymentsCreated *prometheus.CounterVec
	Notifications   *prometheus.CounterVec
}

func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &Metrics{
		PaymentsCreated: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_created_total",
			Help:      "Payment requests built, by result.",
		}, []string{"result"})),
		Notifications: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Gateway notifications received, by outcome.",
		}, []string{"outcome"})),
	}
}

func (m *Metrics) paymentCreated(result string) {
	if m == nil {
		return
	}
	m.PaymentsCreated.WithLabelValues(result).Inc()
}

func (m *Metrics) notification(outcome string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(outcome).Inc()
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}
