package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/metrics"
	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/model"
)

// EventPublisher publishes events after their transaction committed
type EventPublisher interface {
	PublishEvent(ctx context.Context, evt *model.Event) error
}

// SalesIndexer stores closed orders for search
type SalesIndexer interface {
	IndexSale(ctx context.Context, doc *model.SaleDocument) error
	SearchSales(ctx context.Context, q model.SalesQuery) ([]model.SaleDocument, error)
}

// MenuCache caches active menu listings
type MenuCache interface {
	GetMenu(ctx context.Context, category string) ([]model.Dish, error)
	SetMenu(ctx context.Context, category string, dishes []model.Dish) error
	InvalidateMenu(ctx context.Context) error
}

// Env carries the clock, time zone and optional collaborators shared by the
// services. Nil collaborators are skipped.
type Env struct {
	Location   *time.Location
	Now        func() time.Time
	Restaurant string
	Publisher  EventPublisher
	Indexer    SalesIndexer
	Cache      MenuCache
	Metrics    *metrics.Metrics
}

func (e *Env) withDefaults() *Env {
	out := Env{}
	if e != nil {
		out = *e
	}
	if out.Location == nil {
		out.Location = time.UTC
	}
	if out.Now == nil {
		out.Now = time.Now
	}
	return &out
}

func (e *Env) now() time.Time {
	return e.Now().In(e.Location)
}

func (e *Env) today() model.Date {
	return model.DateOf(e.Now(), e.Location)
}

func (e *Env) publish(ctx context.Context, evt *model.Event) {
	if e.Publisher == nil {
		return
	}
	if err := e.Publisher.PublishEvent(ctx, evt); err != nil {
		e.Metrics.RecordError(metrics.ErrorTypeMessageBus)
		log.Warn().Err(err).Str("event", evt.Type).Str("order_id", evt.OrderID).Msg("Failed to publish event")
	}
}

func (e *Env) indexSale(ctx context.Context, order *model.Order) {
	if e.Indexer == nil {
		return
	}
	if err := e.Indexer.IndexSale(ctx, model.NewSaleDocument(order)); err != nil {
		e.Metrics.RecordError(metrics.ErrorTypeSearch)
		log.Warn().Err(err).Str("order_id", order.ID.String()).Msg("Failed to index sale")
	}
}

func (e *Env) invalidateMenu(ctx context.Context) {
	if e.Cache == nil {
		return
	}
	if err := e.Cache.InvalidateMenu(ctx); err != nil {
		e.Metrics.RecordError(metrics.ErrorTypeCache)
		log.Warn().Err(err).Msg("Failed to invalidate menu cache")
	}
}
