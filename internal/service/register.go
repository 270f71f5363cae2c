package service

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/model"
	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/repository"
	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/tracing"
)

// TopDishLimit is the number of dishes listed in reports
const TopDishLimit = 5

// Register events recorded in metrics
const (
	registerEventOpened     = "opened"
	registerEventRecomputed = "recomputed"
	registerEventClosed     = "closed"
)

// CloseResult is the outcome of closing a register. AlreadyClosed is set when
// the register had been closed before and nothing changed.
type CloseResult struct {
	Register      *model.Register `json:"register"`
	AlreadyClosed bool            `json:"already_closed"`
}

// RegisterReport summarises the sales of a business date
type RegisterReport struct {
	BusinessDate model.Date             `json:"business_date"`
	Register     *model.Register        `json:"register"`
	ClosedOrders int                    `json:"closed_orders"`
	TotalSales   decimal.Decimal        `json:"total_sales"`
	TopDishes    []repository.DishSales `json:"top_dishes"`
}

// RegisterService defines the interface for cash register service
type RegisterService interface {
	Open(ctx context.Context, date model.Date, openingFloat decimal.Decimal) (*model.Register, error)
	Get(ctx context.Context, date model.Date) (*model.Register, error)
	List(ctx context.Context) ([]model.Register, error)
	RecomputeTotal(ctx context.Context, date model.Date) (decimal.Decimal, error)
	Close(ctx context.Context, date model.Date, closingFloat *decimal.Decimal) (*CloseResult, error)
	Report(ctx context.Context, date model.Date) (*RegisterReport, error)
	ReconcileOpen(ctx context.Context) (int, error)
}

type registerService struct {
	store *repository.Store
	env   *Env
}

// NewRegisterService creates a new register service
func NewRegisterService(store *repository.Store, env *Env) RegisterService {
	return &registerService{store: store, env: env.withDefaults()}
}

// Open creates the open register entry of a business date
func (s *registerService) Open(ctx context.Context, date model.Date, openingFloat decimal.Decimal) (*model.Register, error) {
	if openingFloat.IsNegative() {
		return nil, errors.Wrap(ErrValidation, "opening float must not be negative")
	}

	now := s.env.now()
	register := &model.Register{
		BusinessDate:       date,
		OpeningFloat:       openingFloat,
		ComputedTotalSales: decimal.Zero,
		ClosingFloat:       openingFloat,
		IsOpen:             true,
		OpenedAt:           now,
	}
	if err := s.store.Registers.Create(ctx, register); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, errors.Wrapf(ErrAlreadyExists, "register for %s", date)
		}
		return nil, errors.Wrap(err, "failed to open register")
	}

	s.env.Metrics.RecordRegisterEvent(registerEventOpened)
	log.Info().
		Str("business_date", date.String()).
		Str("opening_float", openingFloat.StringFixed(2)).
		Msg("Register opened")
	return register, nil
}

// Get gets the register entry of a business date
func (s *registerService) Get(ctx context.Context, date model.Date) (*model.Register, error) {
	register, err := s.store.Registers.GetByDate(ctx, date)
	if err != nil {
		return nil, notFound(err, "register for %s", date)
	}
	return register, nil
}

// List returns every register entry, newest first
func (s *registerService) List(ctx context.Context) ([]model.Register, error) {
	return s.store.Registers.List(ctx)
}

// RecomputeTotal sums the closed orders of a business date and stores the sum
// on the register entry of that date if it is still open
func (s *registerService) RecomputeTotal(ctx context.Context, date model.Date) (decimal.Decimal, error) {
	defer tracing.StartSegment(ctx, "register.recompute").End()

	var total decimal.Decimal
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		register, err := recomputeRegister(ctx, tx, date)
		if err != nil {
			return err
		}
		if register != nil && register.IsOpen {
			total = register.ComputedTotalSales
			return nil
		}
		total, err = closedSalesTotal(ctx, tx, date)
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}

	s.env.Metrics.RecordRegisterEvent(registerEventRecomputed)
	return total, nil
}

// Close recomputes the total of a business date and closes its register
// entry. The closing float defaults to opening float plus sales.
func (s *registerService) Close(ctx context.Context, date model.Date, closingFloat *decimal.Decimal) (*CloseResult, error) {
	defer tracing.StartSegment(ctx, "register.close").End()

	if closingFloat != nil && closingFloat.IsNegative() {
		return nil, errors.Wrap(ErrValidation, "closing float must not be negative")
	}

	result := &CloseResult{}
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		register, err := tx.Registers.GetByDateForUpdate(ctx, date)
		if err != nil {
			return notFound(err, "register for %s", date)
		}
		result.Register = register
		if !register.IsOpen {
			result.AlreadyClosed = true
			return nil
		}

		total, err := closedSalesTotal(ctx, tx, date)
		if err != nil {
			return err
		}
		closing := register.OpeningFloat.Add(total)
		if closingFloat != nil {
			closing = *closingFloat
		}

		now := s.env.now()
		if err := tx.Registers.Close(ctx, register.ID, total, closing, now); err != nil {
			return err
		}
		register.ComputedTotalSales = total
		register.ClosingFloat = closing
		register.IsOpen = false
		register.ClosedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	register := result.Register
	if result.AlreadyClosed {
		log.Warn().Str("business_date", date.String()).Msg("Register already closed")
		return result, nil
	}

	s.env.Metrics.RecordRegisterEvent(registerEventClosed)
	s.env.publish(ctx, &model.Event{
		Type:         model.EventRegisterClosed,
		BusinessDate: date,
		Amount:       register.ComputedTotalSales,
		OccurredAt:   *register.ClosedAt,
	})
	log.Info().
		Str("business_date", date.String()).
		Str("total_sales", register.ComputedTotalSales.StringFixed(2)).
		Str("closing_float", register.ClosingFloat.StringFixed(2)).
		Msg("Register closed")
	return result, nil
}

// Report returns the sales summary of a business date. The register entry is
// nil when none was opened for the date.
func (s *registerService) Report(ctx context.Context, date model.Date) (*RegisterReport, error) {
	report := &RegisterReport{BusinessDate: date}

	register, err := s.store.Registers.GetByDate(ctx, date)
	switch {
	case err == nil:
		report.Register = register
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	orders, err := s.store.Orders.ListClosedByDates(ctx, date)
	if err != nil {
		return nil, err
	}
	report.ClosedOrders = len(orders)
	report.TotalSales = decimal.Zero
	for i := range orders {
		report.TotalSales = report.TotalSales.Add(orders[i].Total())
	}

	report.TopDishes, err = s.store.Orders.TopDishes(ctx, date, []model.OrderState{model.OrderStateClosed}, TopDishLimit)
	if err != nil {
		return nil, err
	}
	return report, nil
}

// ReconcileOpen recomputes the total of every open register entry and
// returns how many it refreshed
func (s *registerService) ReconcileOpen(ctx context.Context) (int, error) {
	open, err := s.store.Registers.ListOpen(ctx)
	if err != nil {
		return 0, err
	}

	refreshed := 0
	for _, register := range open {
		date := register.BusinessDate
		err := s.store.Transaction(ctx, func(tx *repository.Store) error {
			_, err := recomputeRegister(ctx, tx, date)
			return err
		})
		if err != nil {
			return refreshed, errors.Wrapf(err, "failed to reconcile register for %s", date)
		}
		refreshed++
	}

	if refreshed > 0 {
		s.env.Metrics.RecordRegisterEvent(registerEventRecomputed)
	}
	log.Debug().Int("registers", refreshed).Msg("Open registers reconciled")
	return refreshed, nil
}

// closedSalesTotal sums the totals of the closed orders of a business date
func closedSalesTotal(ctx context.Context, tx *repository.Store, date model.Date) (decimal.Decimal, error) {
	orders, err := tx.Orders.ListClosedByDates(ctx, date)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for i := range orders {
		total = total.Add(orders[i].Total())
	}
	return total, nil
}

// recomputeRegister locks the register entry of a business date and stores a
// fresh total when it is open. It returns nil when the date has no entry.
func recomputeRegister(ctx context.Context, tx *repository.Store, date model.Date) (*model.Register, error) {
	register, err := tx.Registers.GetByDateForUpdate(ctx, date)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !register.IsOpen {
		return register, nil
	}

	total, err := closedSalesTotal(ctx, tx, date)
	if err != nil {
		return nil, err
	}
	if err := tx.Registers.UpdateTotal(ctx, register.ID, total); err != nil {
		return nil, err
	}
	register.ComputedTotalSales = total
	return register, nil
}
