package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/model"
)

// DishSales aggregates the quantity sold of one dish
type DishSales struct {
	DishID   uint   `json:"dish_id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Quantity int64  `gorm:"column:total_quantity" json:"quantity"`
}

// OrderRepository defines the interface for order and line item repository
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Order, error)
	FindOpenByTable(ctx context.Context, tableID uint) (*model.Order, error)
	ListOpen(ctx context.Context) ([]model.Order, error)
	ListOpenByTable(ctx context.Context, tableID uint) ([]model.Order, error)
	ListClosedByDates(ctx context.Context, dates ...model.Date) ([]model.Order, error)
	CountByDate(ctx context.Context, date model.Date) (int64, error)
	UpdateState(ctx context.Context, id uuid.UUID, state model.OrderState, at time.Time) error

	IncrementLine(ctx context.Context, orderID uuid.UUID, dishID uint) (bool, error)
	CreateLine(ctx context.Context, line *model.LineItem) error
	DecrementLine(ctx context.Context, orderID uuid.UUID, dishID uint) (bool, error)
	DeleteLastUnit(ctx context.Context, orderID uuid.UUID, dishID uint) (bool, error)
	MarkLineServed(ctx context.Context, orderID uuid.UUID, dishID uint) (bool, error)
	GetLine(ctx context.Context, orderID uuid.UUID, dishID uint) (*model.LineItem, error)
	ListLines(ctx context.Context, orderID uuid.UUID) ([]model.LineItem, error)
	TopDishes(ctx context.Context, date model.Date, states []model.OrderState, limit int) ([]DishSales, error)
}

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func preloadLines(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Table").
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_items.id ASC")
		}).
		Preload("Lines.Dish")
}

// Create creates a new order
func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error)
}

// GetByID gets an order with its table, lines and dishes
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := preloadLines(r.db.WithContext(ctx)).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

// GetForUpdate gets an order row and locks it until the transaction ends
func (r *orderRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

// FindOpenByTable gets the open order of a table
func (r *orderRepository) FindOpenByTable(ctx context.Context, tableID uint) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("table_id = ? AND state = ?", tableID, model.OrderStateOpen).
		First(&order).Error
	if err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

// ListOpen returns every open order, oldest first
func (r *orderRepository) ListOpen(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	err := preloadLines(r.db.WithContext(ctx)).
		Where("state = ?", model.OrderStateOpen).
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// ListOpenByTable returns the open orders of a table with their lines
func (r *orderRepository) ListOpenByTable(ctx context.Context, tableID uint) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).
		Preload("Lines.Dish").
		Where("table_id = ? AND state = ?", tableID, model.OrderStateOpen).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// ListClosedByDates returns closed orders of the given business dates with
// their lines and current dish prices
func (r *orderRepository) ListClosedByDates(ctx context.Context, dates ...model.Date) ([]model.Order, error) {
	var orders []model.Order
	if len(dates) == 0 {
		return orders, nil
	}
	err := preloadLines(r.db.WithContext(ctx)).
		Where("state = ? AND business_date IN ?", model.OrderStateClosed, dates).
		Order("closed_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// CountByDate counts the orders created on a business date
func (r *orderRepository) CountByDate(ctx context.Context, date model.Date) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("business_date = ?", date).
		Count(&count).Error
	return count, err
}

// UpdateState moves an open order to state and stamps closed_at
func (r *orderRepository) UpdateState(ctx context.Context, id uuid.UUID, state model.OrderState, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND state = ?", id, model.OrderStateOpen).
		Updates(map[string]interface{}{"state": state, "closed_at": at})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementLine adds one unit to an existing line and reports whether the
// line existed
func (r *orderRepository) IncrementLine(ctx context.Context, orderID uuid.UUID, dishID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.LineItem{}).
		Where("order_id = ? AND dish_id = ?", orderID, dishID).
		Update("quantity", gorm.Expr("quantity + ?", 1))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CreateLine creates a new line item
func (r *orderRepository) CreateLine(ctx context.Context, line *model.LineItem) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(line).Error)
}

// DecrementLine removes one unit from a line holding more than one and
// reports whether it did
func (r *orderRepository) DecrementLine(ctx context.Context, orderID uuid.UUID, dishID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.LineItem{}).
		Where("order_id = ? AND dish_id = ? AND quantity > ?", orderID, dishID, 1).
		Update("quantity", gorm.Expr("quantity - ?", 1))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeleteLastUnit deletes a line holding exactly one unit and reports whether
// it did
func (r *orderRepository) DeleteLastUnit(ctx context.Context, orderID uuid.UUID, dishID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("order_id = ? AND dish_id = ? AND quantity = ?", orderID, dishID, 1).
		Delete(&model.LineItem{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkLineServed sets a line as served and reports whether the line exists
func (r *orderRepository) MarkLineServed(ctx context.Context, orderID uuid.UUID, dishID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.LineItem{}).
		Where("order_id = ? AND dish_id = ?", orderID, dishID).
		Update("fulfillment_state", model.FulfillmentServed)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// GetLine gets a line item with its dish
func (r *orderRepository) GetLine(ctx context.Context, orderID uuid.UUID, dishID uint) (*model.LineItem, error) {
	var line model.LineItem
	err := r.db.WithContext(ctx).
		Preload("Dish").
		Where("order_id = ? AND dish_id = ?", orderID, dishID).
		First(&line).Error
	if err != nil {
		return nil, translate(err)
	}
	return &line, nil
}

// ListLines returns the lines of an order with their dishes
func (r *orderRepository) ListLines(ctx context.Context, orderID uuid.UUID) ([]model.LineItem, error) {
	var lines []model.LineItem
	err := r.db.WithContext(ctx).
		Preload("Dish").
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// TopDishes returns the dishes with the most units on orders of a business
// date in one of states
func (r *orderRepository) TopDishes(ctx context.Context, date model.Date, states []model.OrderState, limit int) ([]DishSales, error) {
	var sales []DishSales
	err := r.db.WithContext(ctx).
		Table("line_items").
		Select("dishes.id AS dish_id, dishes.name AS name, dishes.category AS category, SUM(line_items.quantity) AS total_quantity").
		Joins("JOIN orders ON orders.id = line_items.order_id").
		Joins("JOIN dishes ON dishes.id = line_items.dish_id").
		Where("orders.business_date = ? AND orders.state IN ?", date, states).
		Group("dishes.id, dishes.name, dishes.category").
		Order("total_quantity DESC").
		Order("dishes.name ASC").
		Limit(limit).
		Scan(&sales).Error
	if err != nil {
		return nil, err
	}
	return sales, nil
}
