// Package metrics holds the Prometheus collectors for the message pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	DocumentsProcessed *prometheus.CounterVec
	OCRFallbacks       *prometheus.CounterVec
	PipelineErrors     *prometheus.CounterVec
	QueriesExecuted    *prometheus.CounterVec
	MessageDuration    *prometheus.HistogramVec
}

// New registers every collector on a fresh registry together with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		DocumentsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "expense_bot",
			Name:      "documents_processed_total",
			Help:      "Documents persisted, by document kind.",
		}, []string{"kind"}),
		OCRFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "expense_bot",
			Name:      "ocr_fallbacks_total",
			Help:      "PDF text extractions that escalated to OCR, by reason.",
		}, []string{"reason"}),
		PipelineErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "expense_bot",
			Name:      "pipeline_errors_total",
			Help:      "Errors recovered at the message boundary, by kind.",
		}, []string{"kind"}),
		QueriesExecuted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "expense_bot",
			Name:      "queries_executed_total",
			Help:      "Natural-language queries executed, by template.",
		}, []string{"template"}),
		MessageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "expense_bot",
			Name:      "message_duration_seconds",
			Help:      "Time spent handling one inbound message, by route.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		}, []string{"route"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.DocumentsProcessed,
		m.OCRFallbacks,
		m.PipelineErrors,
		m.QueriesExecuted,
		m.MessageDuration,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
