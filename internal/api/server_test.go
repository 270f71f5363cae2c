package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/config"
	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/api/handlers"
	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/db"
	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/metrics"
	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/model"
	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/repository"
	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/service"
)

type testServer struct {
	handler http.Handler
	store   *repository.Store
	svc     *service.Services
}

func newTestServer(t *testing.T, checks map[string]handlers.HealthCheck) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := db.Connect(config.DatabaseConfig{Driver: db.DriverSQLite, DSN: ":memory:"}, nil)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() { _ = db.Close(gdb) })

	store := repository.NewStore(gdb)
	now := time.Date(2025, 3, 14, 20, 30, 0, 0, time.UTC)
	svc := service.New(store, &service.Env{
		Location: time.UTC,
		Now:      func() time.Time { return now },
	})

	_, err = svc.Tables.Seed(context.Background(), 4)
	require.NoError(t, err)

	if checks == nil {
		checks = map[string]handlers.HealthCheck{"database": store.Ping}
	}
	server := NewServer(config.ServerConfig{
		Address:        "127.0.0.1:0",
		CorsEnabled:    true,
		CorsOrigins:    []string{"http://caja.local"},
		MetricsEnabled: true,
		MaxUploadBytes: 1 << 20,
	}, Dependencies{
		Services:     svc,
		Metrics:      metrics.New(),
		HealthChecks: checks,
	})
	return &testServer{handler: server.Handler(), store: store, svc: svc}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp handlers.ErrorResponse
	decode(t, w, &resp)
	return resp.Code
}

func (s *testServer) createDish(t *testing.T, name, category, price string) model.Dish {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/menu/dishes", map[string]string{
		"name":     name,
		"category": category,
		"price":    price,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var dish model.Dish
	decode(t, w, &dish)
	return dish
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":true`)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	down := newTestServer(t, map[string]handlers.HealthCheck{
		"redis": func(ctx context.Context) error { return errors.New("connection refused") },
	})
	w = down.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":false`)
}

func TestOrderFlow(t *testing.T) {
	s := newTestServer(t, nil)
	ceviche := s.createDish(t, "Ceviche", "Ceviches", "25.00")
	chicha := s.createDish(t, "Chicha morada", "Bebidas", "8.00")

	w := s.do(t, http.MethodPost, "/api/v1/registers", map[string]string{"opening_float": "100"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/v1/tables/4/open", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var order model.Order
	decode(t, w, &order)
	assert.Equal(t, model.Date("2025-03-14"), order.BusinessDate)

	linePath := "/api/v1/orders/" + order.ID.String() + "/lines/"
	for _, dishID := range []uint{ceviche.ID, ceviche.ID, chicha.ID} {
		w = s.do(t, http.MethodPost, linePath+uintString(dishID), nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w = s.do(t, http.MethodGet, "/api/v1/orders/"+order.ID.String()+"/total", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var total struct {
		Total decimal.Decimal `json:"total"`
	}
	decode(t, w, &total)
	assert.Equal(t, "58.00", total.Total.StringFixed(2))

	w = s.do(t, http.MethodGet, "/api/v1/orders/"+order.ID.String()+"/ticket/kitchen", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `"price"`)

	w = s.do(t, http.MethodPost, "/api/v1/orders/"+order.ID.String()+"/close", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var closed service.Transition
	decode(t, w, &closed)
	assert.True(t, closed.Changed)

	w = s.do(t, http.MethodPost, "/api/v1/orders/"+order.ID.String()+"/close", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &closed)
	assert.False(t, closed.Changed)

	w = s.do(t, http.MethodPost, linePath+uintString(ceviche.ID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_STATE", errorCode(t, w))

	w = s.do(t, http.MethodPost, "/api/v1/registers/2025-03-14/close", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var result service.CloseResult
	decode(t, w, &result)
	assert.False(t, result.AlreadyClosed)
	assert.Equal(t, "58.00", result.Register.ComputedTotalSales.StringFixed(2))
	assert.Equal(t, "158.00", result.Register.ClosingFloat.StringFixed(2))

	w = s.do(t, http.MethodGet, "/api/v1/dashboard?date=2025-03-14", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var dashboard service.Dashboard
	decode(t, w, &dashboard)
	assert.Equal(t, 4, dashboard.Tables)
	assert.Equal(t, "58.00", dashboard.Revenue.StringFixed(2))
}

// doStream sends body without a content length, as chunked requests arrive
func (s *testServer) doStream(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, io.NopCloser(strings.NewReader(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func TestCloseRegister_Body(t *testing.T) {
	s := newTestServer(t, nil)

	for _, date := range []string{"2025-03-10", "2025-03-11", "2025-03-12"} {
		w := s.do(t, http.MethodPost, "/api/v1/registers", map[string]string{"business_date": date, "opening_float": "100"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := s.doStream(http.MethodPost, "/api/v1/registers/2025-03-10/close", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result service.CloseResult
	decode(t, w, &result)
	assert.Equal(t, "100.00", result.Register.ClosingFloat.StringFixed(2))

	w = s.doStream(http.MethodPost, "/api/v1/registers/2025-03-11/close", `{"closing_float":"90.50"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &result)
	assert.Equal(t, "90.50", result.Register.ClosingFloat.StringFixed(2))

	w = s.doStream(http.MethodPost, "/api/v1/registers/2025-03-12/close", `{"closing_float":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
}

func TestRemoveLine_Missing(t *testing.T) {
	s := newTestServer(t, nil)
	ceviche := s.createDish(t, "Ceviche", "Ceviches", "25.00")

	w := s.do(t, http.MethodPost, "/api/v1/takeout", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var order model.Order
	decode(t, w, &order)
	assert.True(t, order.IsTakeout)

	w = s.do(t, http.MethodDelete, "/api/v1/orders/"+order.ID.String()+"/lines/"+uintString(ceviche.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, w))
}

func TestRequestErrors(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodGet, "/api/v1/orders/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))

	w = s.do(t, http.MethodGet, "/api/v1/orders/"+uuid.New().String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/tables/42/open", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/registers/14-03-2025", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/menu/dishes", map[string]string{"name": "Causa", "price": "12"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))

	w = s.do(t, http.MethodPost, "/api/v1/registers", map[string]string{"business_date": "2025-03-10", "opening_float": "0"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = s.do(t, http.MethodPost, "/api/v1/registers", map[string]string{"business_date": "2025-03-10", "opening_float": "0"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", errorCode(t, w))

	w = s.do(t, http.MethodGet, "/api/v1/sales/search?dish=ceviche", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMenuImport(t *testing.T) {
	s := newTestServer(t, nil)

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Producto", "Precio"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"Arroz con mariscos", "S/. 32,00"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{"Jalea", "consultar"}))
	require.NoError(t, f.SetSheetName("Sheet1", "Fondos"))
	workbook, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("file", "carta.xlsx")
	require.NoError(t, err)
	_, err = part.Write(workbook.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/menu/import", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result service.ImportResult
	decode(t, w, &result)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Skipped)

	w = s.do(t, http.MethodGet, "/api/v1/menu?category=Fondos", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var dishes []model.Dish
	decode(t, w, &dishes)
	require.Len(t, dishes, 1)
	assert.Equal(t, "32.00", dishes[0].Price.StringFixed(2))

	req = httptest.NewRequest(http.MethodPost, "/api/v1/menu/import", strings.NewReader("not a form"))
	w = httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSetDishActive(t *testing.T) {
	s := newTestServer(t, nil)
	causa := s.createDish(t, "Causa", "Entradas", "12.00")

	w := s.do(t, http.MethodPatch, "/api/v1/menu/dishes/"+uintString(causa.ID), map[string]bool{"active": false})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/menu/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var categories []string
	decode(t, w, &categories)
	assert.Equal(t, []string{"Entradas"}, categories)

	w = s.do(t, http.MethodGet, "/api/v1/menu?category=Entradas", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var dishes []model.Dish
	decode(t, w, &dishes)
	assert.Empty(t, dishes)

	w = s.do(t, http.MethodPatch, "/api/v1/menu/dishes/"+uintString(causa.ID), map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCORSAndMetrics(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/tables", nil)
	req.Header.Set("Origin", "http://caja.local")
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://caja.local", w.Header().Get("Access-Control-Allow-Origin"))

	w = s.do(t, http.MethodGet, "/api/v1/tables", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `pos_http_requests_total{method="GET",route="/api/v1/tables",status="200"}`)
}

func uintString(n uint) string {
	return strconv.FormatUint(uint64(n), 10)
}
