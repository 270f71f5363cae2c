package service

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/metrics"
	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/model"
	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/repository"
	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/tracing"
)

// SeriesDays is the length of the dashboard sales series
const SeriesDays = 7

// DailySales is the closed revenue of one business date
type DailySales struct {
	BusinessDate model.Date      `json:"business_date"`
	Orders       int             `json:"orders"`
	Total        decimal.Decimal `json:"total"`
}

// Dashboard is the floor and sales overview of a business date
type Dashboard struct {
	BusinessDate model.Date             `json:"business_date"`
	Tables       int                    `json:"tables"`
	Occupied     int                    `json:"occupied"`
	Free         int                    `json:"free"`
	OpenOrders   int                    `json:"open_orders"`
	OrdersToday  int64                  `json:"orders_today"`
	Revenue      decimal.Decimal        `json:"revenue"`
	TopDishes    []repository.DishSales `json:"top_dishes"`
	Series       []DailySales           `json:"series"`
	Register     *model.Register        `json:"register"`
	LastRegister *model.Register        `json:"last_register"`
}

// ReportService defines the interface for report service
type ReportService interface {
	Today() model.Date
	Dashboard(ctx context.Context, date model.Date) (*Dashboard, error)
	SearchSales(ctx context.Context, q model.SalesQuery) ([]model.SaleDocument, error)
}

type reportService struct {
	store *repository.Store
	env   *Env
}

// NewReportService creates a new report service
func NewReportService(store *repository.Store, env *Env) ReportService {
	return &reportService{store: store, env: env.withDefaults()}
}

// Today returns the current business date
func (s *reportService) Today() model.Date {
	return s.env.today()
}

// Dashboard builds the overview of a business date
func (s *reportService) Dashboard(ctx context.Context, date model.Date) (*Dashboard, error) {
	defer tracing.StartSegment(ctx, "report.dashboard").End()

	d := &Dashboard{BusinessDate: date}

	tables, err := s.store.Tables.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, table := range tables {
		if table.IsTakeout {
			continue
		}
		d.Tables++
		if table.Occupied {
			d.Occupied++
		}
	}
	d.Free = d.Tables - d.Occupied

	open, err := s.store.Orders.ListOpen(ctx)
	if err != nil {
		return nil, err
	}
	d.OpenOrders = len(open)

	if d.OrdersToday, err = s.store.Orders.CountByDate(ctx, date); err != nil {
		return nil, err
	}

	days := date.LastDays(SeriesDays)
	closed, err := s.store.Orders.ListClosedByDates(ctx, days...)
	if err != nil {
		return nil, err
	}
	byDay := make(map[model.Date]*DailySales, len(days))
	d.Series = make([]DailySales, len(days))
	for i, day := range days {
		d.Series[i] = DailySales{BusinessDate: day, Total: decimal.Zero}
		byDay[day] = &d.Series[i]
	}
	for i := range closed {
		if day, ok := byDay[closed[i].BusinessDate]; ok {
			day.Orders++
			day.Total = day.Total.Add(closed[i].Total())
		}
	}
	d.Revenue = byDay[date].Total

	states := []model.OrderState{model.OrderStateOpen, model.OrderStateClosed}
	if d.TopDishes, err = s.store.Orders.TopDishes(ctx, date, states, TopDishLimit); err != nil {
		return nil, err
	}

	if d.Register, err = s.optionalRegister(s.store.Registers.GetByDate(ctx, date)); err != nil {
		return nil, err
	}
	if d.LastRegister, err = s.optionalRegister(s.store.Registers.LastBefore(ctx, date)); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *reportService) optionalRegister(register *model.Register, err error) (*model.Register, error) {
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return register, err
}

// SearchSales queries the sales index
func (s *reportService) SearchSales(ctx context.Context, q model.SalesQuery) ([]model.SaleDocument, error) {
	if s.env.Indexer == nil {
		return nil, errors.Wrap(ErrUnavailable, "sales search is not configured")
	}

	docs, err := s.env.Indexer.SearchSales(ctx, q)
	if err != nil {
		s.env.Metrics.RecordError(metrics.ErrorTypeSearch)
		log.Error().Err(err).Str("dish", q.Dish).Str("date", q.Date.String()).Msg("Sales search failed")
		return nil, errors.Wrap(ErrUnavailable, err.Error())
	}
	return docs, nil
}
