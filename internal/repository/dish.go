package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/model"
)

// DishRepository defines the interface for dish repository
type DishRepository interface {
	Create(ctx context.Context, dish *model.Dish) error
	GetByID(ctx context.Context, id uint) (*model.Dish, error)
	GetByNameCategory(ctx context.Context, name, category string) (*model.Dish, error)
	UpdatePrice(ctx context.Context, id uint, price decimal.Decimal, active bool) error
	SetActive(ctx context.Context, id uint, active bool) error
	ListActive(ctx context.Context, category string) ([]model.Dish, error)
	Categories(ctx context.Context) ([]string, error)
}

type dishRepository struct {
	db *gorm.DB
}

// NewDishRepository creates a new dish repository
func NewDishRepository(db *gorm.DB) DishRepository {
	return &dishRepository{db: db}
}

// Create creates a new dish
func (r *dishRepository) Create(ctx context.Context, dish *model.Dish) error {
	return translate(r.db.WithContext(ctx).Create(dish).Error)
}

// GetByID gets a dish by ID
func (r *dishRepository) GetByID(ctx context.Context, id uint) (*model.Dish, error) {
	var dish model.Dish
	if err := r.db.WithContext(ctx).First(&dish, id).Error; err != nil {
		return nil, translate(err)
	}
	return &dish, nil
}

// GetByNameCategory gets a dish by its unique name and category
func (r *dishRepository) GetByNameCategory(ctx context.Context, name, category string) (*model.Dish, error) {
	var dish model.Dish
	err := r.db.WithContext(ctx).
		Where("name = ? AND category = ?", name, category).
		First(&dish).Error
	if err != nil {
		return nil, translate(err)
	}
	return &dish, nil
}

// UpdatePrice sets the price and active flag of a dish
func (r *dishRepository) UpdatePrice(ctx context.Context, id uint, price decimal.Decimal, active bool) error {
	result := r.db.WithContext(ctx).
		Model(&model.Dish{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"price": price, "active": active})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetActive sets the active flag of a dish
func (r *dishRepository) SetActive(ctx context.Context, id uint, active bool) error {
	result := r.db.WithContext(ctx).
		Model(&model.Dish{}).
		Where("id = ?", id).
		Update("active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListActive returns active dishes ordered by category and name. An empty
// category returns the whole menu.
func (r *dishRepository) ListActive(ctx context.Context, category string) ([]model.Dish, error) {
	query := r.db.WithContext(ctx).Where("active = ?", true)
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var dishes []model.Dish
	if err := query.Order("category ASC").Order("name ASC").Find(&dishes).Error; err != nil {
		return nil, err
	}
	return dishes, nil
}

// Categories returns the distinct categories of every dish, including
// categories whose dishes are all inactive
func (r *dishRepository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).
		Model(&model.Dish{}).
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}
