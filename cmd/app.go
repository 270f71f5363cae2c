package cmd

import (
	"context"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/config"
	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/api/handlers"
	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/cache"
	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/db"
	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/messaging"
	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/metrics"
	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/repository"
	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/search"
	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/service"
	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/tracing"
)

// app holds the connections and services shared by the commands
type app struct {
	cfg       config.Config
	db        *gorm.DB
	store     *repository.Store
	metrics   *metrics.Metrics
	newRelic  *newrelic.Application
	cache     *cache.RedisCache
	search    *search.ElasticClient
	publisher *messaging.ServiceBusPublisher
	services  *service.Services
}

// newApp connects to the database and every configured collaborator.
// Collaborators that fail to start are logged and left out.
func newApp(cfg config.Config) (*app, error) {
	loc, err := cfg.Restaurant.Location()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, metrics: metrics.New()}

	a.db, err = db.Connect(cfg.Database, a.metrics)
	if err != nil {
		return nil, err
	}
	a.store = repository.NewStore(a.db)

	env := &service.Env{
		Location:   loc,
		Restaurant: cfg.Restaurant.Name,
		Metrics:    a.metrics,
	}

	a.newRelic, err = tracing.NewApplication(cfg.Tracing)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize New Relic, continuing without tracing")
	}

	if cfg.Redis.Enabled {
		a.cache, err = cache.NewRedisCache(cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize Redis cache, continuing without caching")
		} else {
			env.Cache = a.cache
		}
	}

	if cfg.Elastic.Enabled() {
		a.search, err = search.NewElasticClient(cfg.Elastic)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize Elasticsearch client, continuing without sales search")
		} else {
			env.Indexer = a.search
		}
	}

	if cfg.ServiceBus.Enabled() {
		a.publisher, err = messaging.NewServiceBusPublisher(cfg.ServiceBus)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize Azure Service Bus, continuing without events")
		} else {
			env.Publisher = a.publisher
		}
	}

	a.services = service.New(a.store, env)
	return a, nil
}

// healthChecks returns a check per connected dependency
func (a *app) healthChecks() map[string]handlers.HealthCheck {
	checks := map[string]handlers.HealthCheck{
		"database": a.store.Ping,
	}
	if a.cache != nil {
		checks["redis"] = a.cache.Ping
	}
	if a.search != nil {
		checks["elasticsearch"] = a.search.Ping
	}
	return checks
}

// migrate creates or updates the schema
func (a *app) migrate() error {
	if err := db.Migrate(a.db); err != nil {
		return errors.Wrap(err, "failed to run database migrations")
	}
	log.Info().Msg("Database migrated")
	return nil
}

// close releases every connection
func (a *app) close(ctx context.Context) {
	if a.publisher != nil {
		if err := a.publisher.Close(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to close Service Bus publisher")
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close Redis cache")
		}
	}
	tracing.Shutdown(a.newRelic, 10*time.Second)
	if err := db.Close(a.db); err != nil {
		log.Error().Err(err).Msg("Failed to close database")
	}
}
