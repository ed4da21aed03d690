// Package metrics provides Prometheus metrics for the import-export service.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gui-xie/import-export/pkg/imexport"
	"github.com/gui-xie/import-export/pkg/imexport/codec"
)

const namespace = "imexport"

// Collector holds all Prometheus metrics of the service. It implements
// imexport.Observer.
type Collector struct {
	// Facade metrics
	OperationsTotal       *prometheus.CounterVec
	OperationDuration     *prometheus.HistogramVec
	RowsTotal             *prometheus.CounterVec
	CoercionWarningsTotal prometheus.Counter

	// Codec metrics
	CodecInits        *prometheus.CounterVec
	CodecInitDuration prometheus.Histogram

	// Definition metrics
	Definitions prometheus.Gauge

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

var _ imexport.Observer = (*Collector)(nil)

// New creates a collector registered on reg.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		OperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Total number of template, export and import operations",
			},
			[]string{"operation", "status"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Operation duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"operation"},
		),
		RowsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rows_total",
				Help:      "Total number of records exported or imported",
			},
			[]string{"operation"},
		),
		CoercionWarningsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "coercion_warnings_total",
				Help:      "Total number of numeric cells that did not parse on import",
			},
		),
		CodecInits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "codec_initializations_total",
				Help:      "Total number of codec initialisations",
			},
			[]string{"status"},
		),
		CodecInitDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "codec_initialization_duration_seconds",
				Help:      "Codec initialisation duration in seconds",
				Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1},
			},
		),
		Definitions: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "definitions",
				Help:      "Number of table definitions currently registered",
			},
		),
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),
	}
}

// OperationDone implements imexport.Observer.
func (c *Collector) OperationDone(op imexport.Operation, elapsed time.Duration, err error) {
	c.OperationsTotal.WithLabelValues(string(op), Status(err)).Inc()
	c.OperationDuration.WithLabelValues(string(op)).Observe(elapsed.Seconds())
}

// RowsProcessed implements imexport.Observer.
func (c *Collector) RowsProcessed(op imexport.Operation, n int) {
	c.RowsTotal.WithLabelValues(string(op)).Add(float64(n))
}

// CoercionWarnings implements imexport.Observer.
func (c *Collector) CoercionWarnings(n int) {
	c.CoercionWarningsTotal.Add(float64(n))
}

// CodecInitialized records a codec load. It matches the codec loader's
// init hook.
func (c *Collector) CodecInitialized(elapsed time.Duration, err error) {
	c.CodecInits.WithLabelValues(Status(err)).Inc()
	c.CodecInitDuration.Observe(elapsed.Seconds())
}

// Status maps an operation error to a low-cardinality label value.
func Status(err error) string {
	var initErr *codec.InitError
	var decodeErr *codec.DecodeError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.As(err, &initErr):
		return "init_error"
	case errors.As(err, &decodeErr):
		return "decode_error"
	case errors.Is(err, imexport.ErrNilDefinition), errors.Is(err, imexport.ErrEmptyBuffer):
		return "invalid"
	default:
		return "error"
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
