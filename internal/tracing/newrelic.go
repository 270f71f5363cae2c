package tracing

import (
	"context"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/config"
)

// NewApplication starts the New Relic agent. It returns a nil application
// when no license key is configured, which disables tracing.
func NewApplication(cfg config.TracingConfig) (*newrelic.Application, error) {
	if cfg.LicenseKey == "" {
		log.Warn().Msg("New Relic license key not provided, tracing will be disabled")
		return nil, nil
	}

	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.AppName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		newrelic.ConfigDistributedTracerEnabled(cfg.DistribTracing),
		newrelic.ConfigAppLogForwardingEnabled(cfg.LogEnabled),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize New Relic")
	}
	return app, nil
}

// StartSegment opens a segment on the transaction carried by ctx. Without a
// transaction the returned segment records nothing.
func StartSegment(ctx context.Context, name string) *newrelic.Segment {
	return newrelic.FromContext(ctx).StartSegment(name)
}

// NoticeError reports err on the transaction carried by ctx
func NoticeError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	if txn := newrelic.FromContext(ctx); txn != nil {
		txn.NoticeError(err)
	}
}

// Shutdown flushes pending data and stops the agent
func Shutdown(app *newrelic.Application, timeout time.Duration) {
	if app == nil {
		return
	}
	app.Shutdown(timeout)
	log.Info().Msg("New Relic tracer shutdown")
}
