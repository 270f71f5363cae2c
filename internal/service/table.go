package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/model"
	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/repository"
	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/tracing"
)

// TableStatus is a table with its current open order
type TableStatus struct {
	model.Table
	OpenOrderID *uuid.UUID `json:"open_order_id"`
}

// ReleaseResult reports what releasing a table discarded
type ReleaseResult struct {
	Table          *model.Table  `json:"table"`
	Cancelled      []model.Order `json:"cancelled"`
	DiscardedLines int           `json:"discarded_lines"`
}

// TableService defines the interface for table service
type TableService interface {
	Seed(ctx context.Context, count int) (int, error)
	List(ctx context.Context) ([]TableStatus, error)
	Open(ctx context.Context, number int) (*model.Order, error)
	Release(ctx context.Context, number int) (*ReleaseResult, error)
}

type tableService struct {
	store *repository.Store
	env   *Env
}

// NewTableService creates a new table service
func NewTableService(store *repository.Store, env *Env) TableService {
	return &tableService{store: store, env: env.withDefaults()}
}

// Seed creates tables 1..count and the takeout table, skipping existing ones
func (s *tableService) Seed(ctx context.Context, count int) (int, error) {
	if count < 0 {
		return 0, errors.Wrap(ErrValidation, "table count must not be negative")
	}

	created := 0
	for number := model.TakeoutTableNumber; number <= count; number++ {
		ok, err := s.store.Tables.Ensure(ctx, number, number == model.TakeoutTableNumber)
		if err != nil {
			return created, errors.Wrapf(err, "failed to create table %d", number)
		}
		if ok {
			created++
		}
	}

	log.Info().Int("count", count).Int("created", created).Msg("Tables seeded")
	return created, nil
}

// List returns every table with its open order id
func (s *tableService) List(ctx context.Context) ([]TableStatus, error) {
	tables, err := s.store.Tables.List(ctx)
	if err != nil {
		return nil, err
	}
	open, err := s.store.Orders.ListOpen(ctx)
	if err != nil {
		return nil, err
	}

	byTable := make(map[uint]uuid.UUID, len(open))
	for _, order := range open {
		if order.TableID != nil {
			byTable[*order.TableID] = order.ID
		}
	}

	statuses := make([]TableStatus, 0, len(tables))
	for _, table := range tables {
		status := TableStatus{Table: table}
		if id, ok := byTable[table.ID]; ok {
			id := id
			status.OpenOrderID = &id
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// Open returns the open order of a table, creating it and marking the table
// occupied when there is none. Opening the takeout table starts a new
// takeout order.
func (s *tableService) Open(ctx context.Context, number int) (*model.Order, error) {
	defer tracing.StartSegment(ctx, "table.open").End()

	var (
		order   *model.Order
		tableID uint
		created bool
	)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		table, err := tx.Tables.GetByNumberForUpdate(ctx, number)
		if err != nil {
			return err
		}
		tableID = table.ID

		if table.IsTakeout {
			order = newOrder(s.env, nil)
			created = true
			return tx.Orders.Create(ctx, order)
		}

		existing, err := tx.Orders.FindOpenByTable(ctx, table.ID)
		if err == nil {
			order = existing
			if !table.Occupied {
				return tx.Tables.SetOccupied(ctx, table.ID, true)
			}
			return nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		order = newOrder(s.env, &table.ID)
		if err := tx.Orders.Create(ctx, order); err != nil {
			return err
		}
		created = true
		return tx.Tables.SetOccupied(ctx, table.ID, true)
	})

	if errors.Is(err, repository.ErrDuplicateKey) {
		// another terminal opened the table between our read and insert
		winner, ferr := s.store.Orders.FindOpenByTable(ctx, tableID)
		if ferr != nil {
			return nil, errors.Wrapf(ferr, "failed to read open order of table %d", number)
		}
		return winner, nil
	}
	if err != nil {
		return nil, notFound(err, "table %d", number)
	}

	if created {
		s.env.Metrics.RecordOrderTransition(string(model.OrderStateOpen))
		log.Info().Int("table", number).Str("order_id", order.ID.String()).Msg("Order opened")
	}
	return order, nil
}

// Release frees a table and cancels its open orders. The cancelled orders
// and their discarded lines are logged as an audit record.
func (s *tableService) Release(ctx context.Context, number int) (*ReleaseResult, error) {
	defer tracing.StartSegment(ctx, "table.release").End()

	result := &ReleaseResult{}
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		table, err := tx.Tables.GetByNumberForUpdate(ctx, number)
		if err != nil {
			return err
		}

		open, err := tx.Orders.ListOpenByTable(ctx, table.ID)
		if err != nil {
			return err
		}

		now := s.env.now()
		for i := range open {
			if err := tx.Orders.UpdateState(ctx, open[i].ID, model.OrderStateCancelled, now); err != nil {
				return err
			}
			open[i].State = model.OrderStateCancelled
			open[i].ClosedAt = &now
			for _, line := range open[i].Lines {
				result.DiscardedLines += line.Quantity
			}
		}

		if err := tx.Tables.SetOccupied(ctx, table.ID, false); err != nil {
			return err
		}
		table.Occupied = false
		result.Table = table
		result.Cancelled = open
		return nil
	})
	if err != nil {
		return nil, notFound(err, "table %d", number)
	}

	if len(result.Cancelled) > 0 {
		ids := make([]string, 0, len(result.Cancelled))
		for _, order := range result.Cancelled {
			ids = append(ids, order.ID.String())
			s.env.Metrics.RecordOrderTransition(string(model.OrderStateCancelled))
			s.env.publish(ctx, &model.Event{
				Type:         model.EventOrderCancelled,
				OrderID:      order.ID.String(),
				TableNumber:  &number,
				BusinessDate: order.BusinessDate,
				Amount:       order.Total(),
				OccurredAt:   *order.ClosedAt,
			})
		}
		log.Warn().
			Int("table", number).
			Strs("cancelled_orders", ids).
			Int("discarded_items", result.DiscardedLines).
			Msg("Table released with open orders")
	}
	return result, nil
}

func newOrder(env *Env, tableID *uint) *model.Order {
	now := env.now()
	return &model.Order{
		ID:           uuid.New(),
		CreatedAt:    now,
		UpdatedAt:    now,
		TableID:      tableID,
		BusinessDate: model.DateOf(now, env.Location),
		State:        model.OrderStateOpen,
		IsTakeout:    tableID == nil,
	}
}
