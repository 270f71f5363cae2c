package service

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/catalog"
	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/metrics"
	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/model"
	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/repository"
	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/validation"
)

// DishInput creates or updates a dish identified by name and category
type DishInput struct {
	Name     string          `json:"name" validate:"required,max=100"`
	Category string          `json:"category" validate:"required,max=50"`
	Price    decimal.Decimal `json:"price" validate:"gte=0,lte=999999.99"`
	Active   *bool           `json:"active"`
}

// ImportResult reports what a catalog import changed
type ImportResult struct {
	Created       int      `json:"created"`
	Updated       int      `json:"updated"`
	Skipped       int      `json:"skipped"`
	IgnoredSheets []string `json:"ignored_sheets"`
}

// MenuService defines the interface for menu service
type MenuService interface {
	List(ctx context.Context, category string) ([]model.Dish, error)
	Categories(ctx context.Context) ([]string, error)
	Upsert(ctx context.Context, input DishInput) (*model.Dish, bool, error)
	SetActive(ctx context.Context, id uint, active bool) (*model.Dish, error)
	Import(ctx context.Context, wb *catalog.Workbook) (*ImportResult, error)
}

type menuService struct {
	store *repository.Store
	env   *Env
}

// NewMenuService creates a new menu service
func NewMenuService(store *repository.Store, env *Env) MenuService {
	return &menuService{store: store, env: env.withDefaults()}
}

// List returns the active dishes of a category, or of the whole menu when
// category is empty. Listings are served from the cache when one is set.
func (s *menuService) List(ctx context.Context, category string) ([]model.Dish, error) {
	category = strings.TrimSpace(category)

	if s.env.Cache != nil {
		dishes, err := s.env.Cache.GetMenu(ctx, category)
		if err == nil {
			return dishes, nil
		}
		log.Debug().Err(err).Str("category", category).Msg("Menu cache miss")
	}

	dishes, err := s.store.Dishes.ListActive(ctx, category)
	if err != nil {
		return nil, err
	}

	if s.env.Cache != nil {
		if err := s.env.Cache.SetMenu(ctx, category, dishes); err != nil {
			s.env.Metrics.RecordError(metrics.ErrorTypeCache)
			log.Warn().Err(err).Str("category", category).Msg("Failed to cache menu")
		}
	}
	return dishes, nil
}

// Categories returns the categories of every dish, active or not
func (s *menuService) Categories(ctx context.Context) ([]string, error) {
	return s.store.Dishes.Categories(ctx)
}

// Upsert creates a dish or updates the price of the dish with the same name
// and category. It reports whether the dish was created.
func (s *menuService) Upsert(ctx context.Context, input DishInput) (*model.Dish, bool, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Category = strings.TrimSpace(input.Category)
	input.Price = model.RoundPrice(input.Price)
	if err := validation.Struct(input); err != nil {
		return nil, false, errors.Wrap(ErrValidation, validation.Message(err))
	}

	active := true
	if input.Active != nil {
		active = *input.Active
	}

	var (
		dish    *model.Dish
		created bool
	)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		dish, created, err = upsertDish(ctx, tx, input.Name, input.Category, input.Price, active)
		return err
	})
	if err != nil {
		return nil, false, err
	}

	s.env.invalidateMenu(ctx)
	log.Info().
		Str("name", dish.Name).
		Str("category", dish.Category).
		Str("price", dish.Price.StringFixed(2)).
		Bool("created", created).
		Msg("Dish saved")
	return dish, created, nil
}

// SetActive adds a dish to the menu or takes it off
func (s *menuService) SetActive(ctx context.Context, id uint, active bool) (*model.Dish, error) {
	if err := s.store.Dishes.SetActive(ctx, id, active); err != nil {
		return nil, notFound(err, "dish %d", id)
	}
	dish, err := s.store.Dishes.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "dish %d", id)
	}

	s.env.invalidateMenu(ctx)
	log.Info().Uint("dish_id", id).Bool("active", active).Msg("Dish availability changed")
	return dish, nil
}

// Import saves every valid row of a workbook as an active dish. Invalid rows
// are skipped and counted.
func (s *menuService) Import(ctx context.Context, wb *catalog.Workbook) (*ImportResult, error) {
	result := &ImportResult{
		Skipped:       wb.Skipped,
		IgnoredSheets: wb.IgnoredSheets,
	}
	if result.IgnoredSheets == nil {
		result.IgnoredSheets = []string{}
	}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		for _, row := range wb.Rows {
			row.Name = strings.TrimSpace(row.Name)
			row.Category = strings.TrimSpace(row.Category)
			row.Price = model.RoundPrice(row.Price)
			if err := validation.Struct(row); err != nil {
				log.Warn().
					Str("sheet", row.Sheet).
					Int("line", row.Line).
					Str("reason", validation.Message(err)).
					Msg("Import row skipped")
				result.Skipped++
				continue
			}

			_, created, err := upsertDish(ctx, tx, row.Name, row.Category, row.Price, true)
			if err != nil {
				return errors.Wrapf(err, "failed to import %s line %d", row.Sheet, row.Line)
			}
			if created {
				result.Created++
			} else {
				result.Updated++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.env.Metrics.RecordImportRows(metrics.ImportResultCreated, result.Created)
	s.env.Metrics.RecordImportRows(metrics.ImportResultUpdated, result.Updated)
	s.env.Metrics.RecordImportRows(metrics.ImportResultSkipped, result.Skipped)
	s.env.invalidateMenu(ctx)

	log.Info().
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("skipped", result.Skipped).
		Strs("ignored_sheets", result.IgnoredSheets).
		Msg("Menu imported")
	return result, nil
}

func upsertDish(ctx context.Context, tx *repository.Store, name, category string, price decimal.Decimal, active bool) (*model.Dish, bool, error) {
	dish, err := tx.Dishes.GetByNameCategory(ctx, name, category)
	if err == nil {
		if err := tx.Dishes.UpdatePrice(ctx, dish.ID, price, active); err != nil {
			return nil, false, err
		}
		dish.Price = price
		dish.Active = active
		return dish, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, err
	}

	dish = &model.Dish{
		Name:     name,
		Category: category,
		Price:    price,
		Active:   active,
	}
	if err := tx.Dishes.Create(ctx, dish); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, false, errors.Wrapf(ErrAlreadyExists, "dish %s in %s", name, category)
		}
		return nil, false, err
	}
	return dish, true, nil
}
