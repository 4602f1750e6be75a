package scraper

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for a parser run.
type Metrics struct {
	Registry               *prometheus.Registry
	RequestsTotal          *prometheus.CounterVec
	RequestDuration        prometheus.Histogram
	PagesTotal             prometheus.Counter
	ProductsExtractedTotal prometheus.Counter
	EntriesSkippedTotal    prometheus.Counter
	EnrichFailuresTotal    prometheus.Counter
	ErrorsTotal            *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "product_parser_requests_total",
			Help: "Total document requests by outcome.",
		},
		[]string{"phase"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "product_parser_request_duration_seconds",
			Help:    "Latency of successful document requests.",
			Buckets: prometheus.DefBuckets,
		},
	)
	pages := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "product_parser_pages_total",
			Help: "Listing pages that yielded at least one product.",
		},
	)
	products := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "product_parser_products_extracted_total",
			Help: "Products extracted from listing pages.",
		},
	)
	skipped := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "product_parser_entries_skipped_total",
			Help: "Listing entries skipped because they could not be extracted.",
		},
	)
	enrichFailures := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "product_parser_enrich_failures_total",
			Help: "Detail pages that could not be fetched or read.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "product_parser_errors_total",
			Help: "Fetch errors by type.",
		},
		[]string{"error_type"},
	)

	registry.MustRegister(requests, requestDuration, pages, products, skipped, enrichFailures, errorsTotal)

	return &Metrics{
		Registry:               registry,
		RequestsTotal:          requests,
		RequestDuration:        requestDuration,
		PagesTotal:             pages,
		ProductsExtractedTotal: products,
		EntriesSkippedTotal:    skipped,
		EnrichFailuresTotal:    enrichFailures,
		ErrorsTotal:            errorsTotal,
	}
}

// IncRequest increments the requests total counter.
func (m *Metrics) IncRequest(phase string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(phase).Inc()
}

// ObserveDuration records a request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncPages increments the productive page counter.
func (m *Metrics) IncPages() {
	if m == nil {
		return
	}
	m.PagesTotal.Inc()
}

// AddProducts adds n extracted products.
func (m *Metrics) AddProducts(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ProductsExtractedTotal.Add(float64(n))
}

// AddSkipped adds n skipped entries.
func (m *Metrics) AddSkipped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.EntriesSkippedTotal.Add(float64(n))
}

// IncEnrichFailure increments the detail failure counter.
func (m *Metrics) IncEnrichFailure() {
	if m == nil {
		return
	}
	m.EnrichFailuresTotal.Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// WriteTextfile dumps the registry in the text exposition format, for
// node_exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
