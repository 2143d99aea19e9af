// Package metrics expone métricas Prometheus del motor de inventario y del API HTTP.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/stockledger/internal/application/inventory"
	"github.com/jhoicas/stockledger/internal/domain/entity"
)

var _ inventory.PostingObserver = (*Metrics)(nil)

// Metrics registro propio con las métricas de la aplicación.
type Metrics struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	transitions     *prometheus.CounterVec
	rejections      *prometheus.CounterVec
	postingDuration *prometheus.HistogramVec
	ledgerRows      *prometheus.CounterVec
	reconcileRuns   prometheus.Counter
	discrepancies   prometheus.Gauge
}

// New inicializa el registro y las métricas.
func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Peticiones HTTP por ruta, método y código.",
		}, []string{"route", "method", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duración de peticiones HTTP por ruta.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_transitions_total",
			Help:      "Transiciones de estado aplicadas por tipo de documento y estado destino.",
		}, []string{"doc_type", "status"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_transitions_rejected_total",
			Help:      "Transiciones rechazadas por motivo.",
		}, []string{"doc_type", "status", "reason"}),
		postingDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "posting_duration_seconds",
			Help:      "Duración de la transacción de contabilización.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"doc_type"}),
		ledgerRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_rows_total",
			Help:      "Filas escritas en el libro de movimientos.",
		}, []string{"doc_type"}),
		reconcileRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_runs_total",
			Help:      "Barridos de conciliación completados.",
		}),
		discrepancies: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reconcile_discrepancies",
			Help:      "Pares descuadrados en el último barrido.",
		}),
	}
	registry.MustRegister(
		m.requestsTotal, m.requestDuration, m.transitions, m.rejections,
		m.postingDuration, m.ledgerRows, m.reconcileRuns, m.discrepancies,
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler http.Handler para /metrics.
func (m *Metrics) Handler() http.Handler {
	return m.handler
}

// Middleware registra conteo y duración por ruta. Usa el patrón de ruta para acotar cardinalidad.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		route := c.Route().Path
		m.requestsTotal.WithLabelValues(route, c.Method(), strconv.Itoa(status)).Inc()
		m.requestDuration.WithLabelValues(route, c.Method()).Observe(time.Since(start).Seconds())
		return err
	}
}

func (m *Metrics) DocumentTransitioned(docType entity.DocType, to entity.DocStatus) {
	m.transitions.WithLabelValues(string(docType), string(to)).Inc()
}

func (m *Metrics) DocumentPosted(docType entity.DocType, ledgerRows int, elapsed time.Duration) {
	m.postingDuration.WithLabelValues(string(docType)).Observe(elapsed.Seconds())
	m.ledgerRows.WithLabelValues(string(docType)).Add(float64(ledgerRows))
}

func (m *Metrics) TransitionRejected(docType entity.DocType, to entity.DocStatus, reason string) {
	m.rejections.WithLabelValues(string(docType), string(to), reason).Inc()
}

func (m *Metrics) ReconcileCompleted(_ int, discrepancies int) {
	m.reconcileRuns.Inc()
	m.discrepancies.Set(float64(discrepancies))
}
