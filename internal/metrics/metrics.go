package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pos"

// Database query types
const (
	DBQueryTypeSelect = "select"
	DBQueryTypeInsert = "insert"
	DBQueryTypeUpdate = "update"
	DBQueryTypeDelete = "delete"
	DBQueryTypeRaw    = "raw"
)

// Line operations
const (
	LineOperationAdd    = "add"
	LineOperationRemove = "remove"
	LineOperationServe  = "serve"
)

// Import results
const (
	ImportResultCreated = "created"
	ImportResultUpdated = "updated"
	ImportResultSkipped = "skipped"
)

// Error types
const (
	ErrorTypeHTTP       = "http"
	ErrorTypeDatabase   = "database"
	ErrorTypeMessageBus = "message_bus"
	ErrorTypeSearch     = "search"
	ErrorTypeCache      = "cache"
)

// Metrics holds the prometheus collectors of the service. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	dbQueries        *prometheus.CounterVec
	dbDuration       *prometheus.HistogramVec
	orderTransitions *prometheus.CounterVec
	lineOperations   *prometheus.CounterVec
	registerEvents   *prometheus.CounterVec
	importRows       *prometheus.CounterVec
	salesAmount      prometheus.Counter
	errors           *prometheus.CounterVec
}

// New creates the collectors on a dedicated registry
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		dbQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_queries_total",
			Help:      "Database statements by type and outcome.",
		}, []string{"type", "success"}),
		dbDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_query_duration_seconds",
			Help:      "Database statement latency.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"type"}),
		orderTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_transitions_total",
			Help:      "Orders entering each state.",
		}, []string{"state"}),
		lineOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "line_operations_total",
			Help:      "Line item changes by operation.",
		}, []string{"operation"}),
		registerEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "register_events_total",
			Help:      "Cash register openings and closings.",
		}, []string{"event"}),
		importRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "menu_import_rows_total",
			Help:      "Imported menu rows by result.",
		}, []string{"result"}),
		salesAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "closed_sales_amount_total",
			Help:      "Sum of closed order totals.",
		}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Errors by type.",
		}, []string{"type"}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.dbQueries,
		m.dbDuration,
		m.orderTransitions,
		m.lineOperations,
		m.registerEvents,
		m.importRows,
		m.salesAmount,
		m.errors,
	)
	return m
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records metrics for an HTTP request
func (m *Metrics) RecordHTTPRequest(method, route string, statusCode int, latency time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(latency.Seconds())
	if statusCode >= http.StatusInternalServerError {
		m.errors.WithLabelValues(ErrorTypeHTTP).Inc()
	}
}

// RecordDatabaseQuery records metrics for a database statement
func (m *Metrics) RecordDatabaseQuery(queryType string, success bool, latency time.Duration) {
	if m == nil {
		return
	}
	m.dbQueries.WithLabelValues(queryType, strconv.FormatBool(success)).Inc()
	m.dbDuration.WithLabelValues(queryType).Observe(latency.Seconds())
	if !success {
		m.errors.WithLabelValues(ErrorTypeDatabase).Inc()
	}
}

// RecordOrderTransition counts an order entering state
func (m *Metrics) RecordOrderTransition(state string) {
	if m == nil {
		return
	}
	m.orderTransitions.WithLabelValues(state).Inc()
}

// RecordSale adds a closed order total
func (m *Metrics) RecordSale(amount float64) {
	if m == nil || amount < 0 {
		return
	}
	m.salesAmount.Add(amount)
}

// RecordLineOperation counts a line item change
func (m *Metrics) RecordLineOperation(operation string) {
	if m == nil {
		return
	}
	m.lineOperations.WithLabelValues(operation).Inc()
}

// RecordRegisterEvent counts a register opening or closing
func (m *Metrics) RecordRegisterEvent(event string) {
	if m == nil {
		return
	}
	m.registerEvents.WithLabelValues(event).Inc()
}

// RecordImportRows adds n rows with the given import result
func (m *Metrics) RecordImportRows(result string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.importRows.WithLabelValues(result).Add(float64(n))
}

// RecordError counts an error of the given type
func (m *Metrics) RecordError(errorType string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(errorType).Inc()
}
