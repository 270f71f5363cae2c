package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.RecordOrderTransition("closed")
	m.RecordOrderTransition("closed")
	m.RecordOrderTransition("cancelled")
	m.RecordLineOperation(LineOperationAdd)
	m.RecordImportRows(ImportResultCreated, 3)
	m.RecordImportRows(ImportResultSkipped, 0)
	m.RecordSale(42.5)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.orderTransitions.WithLabelValues("closed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.orderTransitions.WithLabelValues("cancelled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lineOperations.WithLabelValues(LineOperationAdd)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.importRows.WithLabelValues(ImportResultCreated)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.importRows.WithLabelValues(ImportResultSkipped)))
	assert.Equal(t, 42.5, testutil.ToFloat64(m.salesAmount))
}

func TestMetrics_HTTPErrorsCounted(t *testing.T) {
	m := New()

	m.RecordHTTPRequest(http.MethodGet, "/api/v1/tables", http.StatusOK, 5*time.Millisecond)
	m.RecordHTTPRequest(http.MethodGet, "/api/v1/tables", http.StatusInternalServerError, 5*time.Millisecond)
	m.RecordDatabaseQuery(DBQueryTypeSelect, false, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues(http.MethodGet, "/api/v1/tables", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues(ErrorTypeHTTP)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues(ErrorTypeDatabase)))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordOrderTransition("closed")
		m.RecordHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
		m.RecordDatabaseQuery(DBQueryTypeInsert, true, time.Millisecond)
		m.RecordError(ErrorTypeCache)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.RecordRegisterEvent("opened")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `pos_register_events_total{event="opened"} 1`)
}
