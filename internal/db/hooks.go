package db

import (
	"time"

	"gorm.io/gorm"

	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/metrics"
)

const startTimeKey = "metrics:start_time"

// RegisterMetricsHooks registers GORM callbacks recording statement metrics
func RegisterMetricsHooks(db *gorm.DB, m *metrics.Metrics) {
	record := func(queryType string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			m.RecordDatabaseQuery(queryType, tx.Error == nil || tx.Error == gorm.ErrRecordNotFound, getDuration(tx))
		}
	}

	db.Callback().Create().After("gorm:create").Register("metrics:create", record(metrics.DBQueryTypeInsert))
	db.Callback().Query().After("gorm:query").Register("metrics:query", record(metrics.DBQueryTypeSelect))
	db.Callback().Update().After("gorm:update").Register("metrics:update", record(metrics.DBQueryTypeUpdate))
	db.Callback().Delete().After("gorm:delete").Register("metrics:delete", record(metrics.DBQueryTypeDelete))
	db.Callback().Raw().After("gorm:raw").Register("metrics:raw", record(metrics.DBQueryTypeRaw))
}

// RegisterDurationHooks stamps the start time before each statement
func RegisterDurationHooks(db *gorm.DB) {
	db.Callback().Create().Before("gorm:create").Register("duration:create", logDuration)
	db.Callback().Query().Before("gorm:query").Register("duration:query", logDuration)
	db.Callback().Update().Before("gorm:update").Register("duration:update", logDuration)
	db.Callback().Delete().Before("gorm:delete").Register("duration:delete", logDuration)
	db.Callback().Raw().Before("gorm:raw").Register("duration:raw", logDuration)
}

func logDuration(db *gorm.DB) {
	db.InstanceSet(startTimeKey, time.Now())
}

func getDuration(db *gorm.DB) time.Duration {
	if start, ok := db.InstanceGet(startTimeKey); ok {
		if t, ok := start.(time.Time); ok {
			return time.Since(t)
		}
	}
	return 0
}
