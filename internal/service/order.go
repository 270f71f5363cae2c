package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/metrics"
	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/model"
	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/repository"
	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/tracing"
)

// Transition is the outcome of closing or cancelling an order. Changed is
// false when the order was already in a terminal state.
type Transition struct {
	Order   *model.Order `json:"order"`
	Changed bool         `json:"changed"`
}

// OrderService defines the interface for order service
type OrderService interface {
	StartTakeout(ctx context.Context) (*model.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Order, error)
	ListOpen(ctx context.Context) ([]model.Order, error)
	AddLine(ctx context.Context, orderID uuid.UUID, dishID uint) (*model.LineItem, error)
	RemoveLine(ctx context.Context, orderID uuid.UUID, dishID uint) (*model.LineItem, error)
	ServeLine(ctx context.Context, orderID uuid.UUID, dishID uint) (*model.LineItem, error)
	Close(ctx context.Context, id uuid.UUID) (*Transition, error)
	Cancel(ctx context.Context, id uuid.UUID) (*Transition, error)
	Total(ctx context.Context, id uuid.UUID) (decimal.Decimal, error)
	Ticket(ctx context.Context, id uuid.UUID, kind TicketKind) (*Ticket, error)
}

type orderService struct {
	store *repository.Store
	env   *Env
}

// NewOrderService creates a new order service
func NewOrderService(store *repository.Store, env *Env) OrderService {
	return &orderService{store: store, env: env.withDefaults()}
}

// StartTakeout creates an open takeout order
func (s *orderService) StartTakeout(ctx context.Context) (*model.Order, error) {
	order := newOrder(s.env, nil)
	if err := s.store.Orders.Create(ctx, order); err != nil {
		return nil, errors.Wrap(err, "failed to create takeout order")
	}
	s.env.Metrics.RecordOrderTransition(string(model.OrderStateOpen))
	log.Info().Str("order_id", order.ID.String()).Msg("Takeout order opened")
	return order, nil
}

// Get gets an order with its table, lines and dishes
func (s *orderService) Get(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.store.Orders.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "order %s", id)
	}
	return order, nil
}

// ListOpen returns every open order
func (s *orderService) ListOpen(ctx context.Context) ([]model.Order, error) {
	return s.store.Orders.ListOpen(ctx)
}

// lockOpen locks an order row and fails unless the order is open
func lockOpen(ctx context.Context, tx *repository.Store, id uuid.UUID) (*model.Order, error) {
	order, err := tx.Orders.GetForUpdate(ctx, id)
	if err != nil {
		return nil, notFound(err, "order %s", id)
	}
	if !order.IsOpen() {
		return nil, errors.Wrapf(ErrInvalidState, "order %s is %s", id, order.State)
	}
	return order, nil
}

// AddLine adds one unit of a dish to an open order
func (s *orderService) AddLine(ctx context.Context, orderID uuid.UUID, dishID uint) (*model.LineItem, error) {
	defer tracing.StartSegment(ctx, "order.add_line").End()

	var line *model.LineItem
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := lockOpen(ctx, tx, orderID); err != nil {
			return err
		}

		dish, err := tx.Dishes.GetByID(ctx, dishID)
		if err != nil {
			return notFound(err, "dish %d", dishID)
		}
		if !dish.Active {
			return errors.Wrapf(ErrNotFound, "dish %d is not on the menu", dishID)
		}

		existed, err := tx.Orders.IncrementLine(ctx, orderID, dishID)
		if err != nil {
			return err
		}
		if !existed {
			err := tx.Orders.CreateLine(ctx, &model.LineItem{
				OrderID:          orderID,
				DishID:           dishID,
				Quantity:         1,
				FulfillmentState: model.FulfillmentPending,
			})
			if err != nil {
				return err
			}
		}

		line, err = tx.Orders.GetLine(ctx, orderID, dishID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.env.Metrics.RecordLineOperation(metrics.LineOperationAdd)
	return line, nil
}

// RemoveLine removes one unit of a dish from an open order. The returned line
// is nil when its last unit was removed.
func (s *orderService) RemoveLine(ctx context.Context, orderID uuid.UUID, dishID uint) (*model.LineItem, error) {
	defer tracing.StartSegment(ctx, "order.remove_line").End()

	var line *model.LineItem
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := lockOpen(ctx, tx, orderID); err != nil {
			return err
		}

		decremented, err := tx.Orders.DecrementLine(ctx, orderID, dishID)
		if err != nil {
			return err
		}
		if decremented {
			line, err = tx.Orders.GetLine(ctx, orderID, dishID)
			return err
		}

		deleted, err := tx.Orders.DeleteLastUnit(ctx, orderID, dishID)
		if err != nil {
			return err
		}
		if !deleted {
			return errors.Wrapf(ErrNotFound, "dish %d is not on order %s", dishID, orderID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.env.Metrics.RecordLineOperation(metrics.LineOperationRemove)
	return line, nil
}

// ServeLine marks a line of an open order as served
func (s *orderService) ServeLine(ctx context.Context, orderID uuid.UUID, dishID uint) (*model.LineItem, error) {
	var line *model.LineItem
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := lockOpen(ctx, tx, orderID); err != nil {
			return err
		}

		ok, err := tx.Orders.MarkLineServed(ctx, orderID, dishID)
		if err != nil {
			return err
		}
		if !ok {
			return errors.Wrapf(ErrNotFound, "dish %d is not on order %s", dishID, orderID)
		}

		line, err = tx.Orders.GetLine(ctx, orderID, dishID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.env.Metrics.RecordLineOperation(metrics.LineOperationServe)
	return line, nil
}

// Close bills an open order, frees its table and refreshes the open register
// of its business date. Closing a terminal order changes nothing.
func (s *orderService) Close(ctx context.Context, id uuid.UUID) (*Transition, error) {
	defer tracing.StartSegment(ctx, "order.close").End()
	return s.transition(ctx, id, model.OrderStateClosed)
}

// Cancel discards an open order and frees its table. Cancelling a terminal
// order changes nothing.
func (s *orderService) Cancel(ctx context.Context, id uuid.UUID) (*Transition, error) {
	defer tracing.StartSegment(ctx, "order.cancel").End()
	return s.transition(ctx, id, model.OrderStateCancelled)
}

func (s *orderService) transition(ctx context.Context, id uuid.UUID, target model.OrderState) (*Transition, error) {
	result := &Transition{}
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		order, err := tx.Orders.GetForUpdate(ctx, id)
		if err != nil {
			return notFound(err, "order %s", id)
		}
		if order.State.IsTerminal() {
			result.Order = order
			return nil
		}

		now := s.env.now()
		if err := tx.Orders.UpdateState(ctx, id, target, now); err != nil {
			return err
		}
		if order.TableID != nil {
			if err := tx.Tables.SetOccupied(ctx, *order.TableID, false); err != nil {
				return err
			}
		}
		if target == model.OrderStateClosed {
			if _, err := recomputeRegister(ctx, tx, order.BusinessDate); err != nil {
				return err
			}
		}

		order.State = target
		order.ClosedAt = &now
		result.Order = order
		result.Changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.Changed {
		log.Debug().Str("order_id", id.String()).Str("state", string(result.Order.State)).Msg("Order already terminal")
		return result, nil
	}

	// the committed order with its lines feeds the event and the search index
	if full, err := s.store.Orders.GetByID(ctx, id); err == nil {
		result.Order = full
	} else {
		log.Warn().Err(err).Str("order_id", id.String()).Msg("Failed to reload order")
	}
	s.afterTransition(ctx, result.Order)
	return result, nil
}

func (s *orderService) afterTransition(ctx context.Context, order *model.Order) {
	total := order.Total()
	evt := &model.Event{
		Type:         model.EventOrderCancelled,
		OrderID:      order.ID.String(),
		BusinessDate: order.BusinessDate,
		Amount:       total,
		OccurredAt:   s.env.now(),
	}
	if order.ClosedAt != nil {
		evt.OccurredAt = *order.ClosedAt
	}
	if order.Table != nil && !order.IsTakeout {
		number := order.Table.Number
		evt.TableNumber = &number
	}

	s.env.Metrics.RecordOrderTransition(string(order.State))
	if order.State == model.OrderStateClosed {
		evt.Type = model.EventOrderClosed
		amount, _ := total.Float64()
		s.env.Metrics.RecordSale(amount)
		s.env.indexSale(ctx, order)
	}
	s.env.publish(ctx, evt)

	log.Info().
		Str("order_id", order.ID.String()).
		Str("state", string(order.State)).
		Str("total", total.StringFixed(2)).
		Msg("Order finished")
}

// Total computes the order total from its lines at current dish prices
func (s *orderService) Total(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
	order, err := s.store.Orders.GetByID(ctx, id)
	if err != nil {
		return decimal.Zero, notFound(err, "order %s", id)
	}
	return order.Total(), nil
}
