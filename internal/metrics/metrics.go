package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/myuser/txkv/internal/storage"
)

// Status label values
const (
	StatusOK               = "ok"
	StatusTransactionError = "transaction_error"
	StatusValidationError  = "validation_error"
	StatusError            = "error"
)

// Registry holds the store metrics. It implements storage.Observer.
type Registry struct {
	registry *prometheus.Registry

	OperationsTotal   *prometheus.CounterVec
	TransactionsTotal *prometheus.CounterVec
	TransactionActive prometheus.Gauge
	Keys              prometheus.Gauge
}

func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{registry: reg}

	r.OperationsTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "txkv_operations_total",
			Help: "Total number of store operations",
		},
		[]string{"operation", "status"},
	)
	r.TransactionsTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "txkv_transactions_total",
			Help: "Total number of finished transactions",
		},
		[]string{"outcome"},
	)
	r.TransactionActive = promauto.With(reg).NewGauge(
		prometheus.GaugeOpts{
			Name: "txkv_transaction_active",
			Help: "1 while a transaction is open",
		},
	)
	r.Keys = promauto.With(reg).NewGauge(
		prometheus.GaugeOpts{
			Name: "txkv_keys",
			Help: "Number of committed keys",
		},
	)
	return r
}

// Observe records the outcome of a store operation.
func (r *Registry) Observe(op string, err error) {
	r.OperationsTotal.WithLabelValues(op, statusOf(err)).Inc()
	if err != nil {
		return
	}
	switch op {
	case "commit":
		r.TransactionsTotal.WithLabelValues("committed").Inc()
	case "rollback":
		r.TransactionsTotal.WithLabelValues("rolled_back").Inc()
	}
}

func (r *Registry) SetActive(active bool) {
	if active {
		r.TransactionActive.Set(1)
	} else {
		r.TransactionActive.Set(0)
	}
}

func (r *Registry) SetKeys(n int) {
	r.Keys.Set(float64(n))
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler is an HTTP handler that exposes the metrics in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func statusOf(err error) string {
	switch {
	case err == nil:
		return StatusOK
	case storage.IsTransactionError(err):
		return StatusTransactionError
	case storage.IsValidationError(err):
		return StatusValidationError
	default:
		return StatusError
	}
}

var _ storage.Observer = (*Registry)(nil)
