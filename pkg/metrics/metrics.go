package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "theater_warehouse"

// Metrics - коллекторы приложения. Нулевой указатель допустим: методы ничего не делают.
type Metrics struct {
	mutations     *prometheus.CounterVec
	auditFailures *prometheus.CounterVec
	httpRequests  *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Мутации по имени операции и итоговой стадии.",
		}, []string{"mutation", "outcome"}),
		auditFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_failures_total",
			Help:      "Сохранённые изменения, для которых не удалось записать историю.",
		}, []string{"mutation"}),
		httpRequests: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Длительность HTTP-запросов.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) ObserveMutation(mutation, outcome string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(mutation, outcome).Inc()
}

func (m *Metrics) ObserveAuditFailure(mutation string) {
	if m == nil {
		return
	}
	m.auditFailures.WithLabelValues(mutation).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
