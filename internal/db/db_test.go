package db

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/config"
	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/metrics"
	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/model"
)

func TestConnect_SQLiteMigrate(t *testing.T) {
	m := metrics.New()
	gdb, err := Connect(config.DatabaseConfig{Driver: DriverSQLite, DSN: ":memory:"}, m)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(gdb) })

	require.NoError(t, Migrate(gdb))

	for _, table := range []interface{}{&model.Table{}, &model.Dish{}, &model.Order{}, &model.LineItem{}, &model.Register{}} {
		assert.True(t, gdb.Migrator().HasTable(table))
	}
	assert.True(t, gdb.Migrator().HasIndex(&model.Order{}, "idx_orders_open_table"))
	assert.True(t, gdb.Migrator().HasIndex(&model.LineItem{}, "idx_line_items_order_dish"))

	require.NoError(t, gdb.Create(&model.Table{Number: 1}).Error)
	var table model.Table
	require.NoError(t, gdb.First(&table, "number = ?", 1).Error)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `pos_db_queries_total{success="true",type="select"}`)
	assert.Contains(t, rec.Body.String(), `pos_db_queries_total{success="true",type="insert"}`)
}

func TestConnect_TranslatesDuplicateKey(t *testing.T) {
	gdb, err := Connect(config.DatabaseConfig{Driver: DriverSQLite, DSN: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(gdb) })
	require.NoError(t, Migrate(gdb))

	require.NoError(t, gdb.Create(&model.Table{Number: 3}).Error)
	err = gdb.Create(&model.Table{Number: 3}).Error

	assert.True(t, IsDuplicateKeyError(err))
	assert.False(t, IsRecordNotFoundError(err))
}

func TestConnect_UnsupportedDriver(t *testing.T) {
	_, err := Connect(config.DatabaseConfig{Driver: "oracle"}, nil)
	assert.Error(t, err)
}

func TestIsRecordNotFoundError(t *testing.T) {
	assert.True(t, IsRecordNotFoundError(gorm.ErrRecordNotFound))
	assert.False(t, IsRecordNotFoundError(gorm.ErrInvalidData))
}
