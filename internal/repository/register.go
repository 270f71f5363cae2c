package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/model"
)

// RegisterRepository defines the interface for cash register repository
type RegisterRepository interface {
	Create(ctx context.Context, register *model.Register) error
	GetByDate(ctx context.Context, date model.Date) (*model.Register, error)
	GetByDateForUpdate(ctx context.Context, date model.Date) (*model.Register, error)
	List(ctx context.Context) ([]model.Register, error)
	ListOpen(ctx context.Context) ([]model.Register, error)
	LastBefore(ctx context.Context, date model.Date) (*model.Register, error)
	UpdateTotal(ctx context.Context, id uint, total decimal.Decimal) error
	Close(ctx context.Context, id uint, total, closingFloat decimal.Decimal, at time.Time) error
}

type registerRepository struct {
	db *gorm.DB
}

// NewRegisterRepository creates a new register repository
func NewRegisterRepository(db *gorm.DB) RegisterRepository {
	return &registerRepository{db: db}
}

// Create creates a register entry. A second entry for the same business date
// fails with ErrDuplicateKey.
func (r *registerRepository) Create(ctx context.Context, register *model.Register) error {
	return translate(r.db.WithContext(ctx).Create(register).Error)
}

// GetByDate gets the register entry of a business date
func (r *registerRepository) GetByDate(ctx context.Context, date model.Date) (*model.Register, error) {
	var register model.Register
	if err := r.db.WithContext(ctx).Where("business_date = ?", date).First(&register).Error; err != nil {
		return nil, translate(err)
	}
	return &register, nil
}

// GetByDateForUpdate gets the register entry of a business date and locks its
// row until the transaction ends
func (r *registerRepository) GetByDateForUpdate(ctx context.Context, date model.Date) (*model.Register, error) {
	var register model.Register
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("business_date = ?", date).
		First(&register).Error
	if err != nil {
		return nil, translate(err)
	}
	return &register, nil
}

// List returns every register entry, newest first
func (r *registerRepository) List(ctx context.Context) ([]model.Register, error) {
	var registers []model.Register
	if err := r.db.WithContext(ctx).Order("business_date DESC").Find(&registers).Error; err != nil {
		return nil, err
	}
	return registers, nil
}

// ListOpen returns the register entries still open
func (r *registerRepository) ListOpen(ctx context.Context) ([]model.Register, error) {
	var registers []model.Register
	err := r.db.WithContext(ctx).
		Where("is_open = ?", true).
		Order("business_date ASC").
		Find(&registers).Error
	if err != nil {
		return nil, err
	}
	return registers, nil
}

// LastBefore gets the most recent register entry older than date
func (r *registerRepository) LastBefore(ctx context.Context, date model.Date) (*model.Register, error) {
	var register model.Register
	err := r.db.WithContext(ctx).
		Where("business_date < ?", date).
		Order("business_date DESC").
		First(&register).Error
	if err != nil {
		return nil, translate(err)
	}
	return &register, nil
}

// UpdateTotal stores a recomputed total on an open register entry
func (r *registerRepository) UpdateTotal(ctx context.Context, id uint, total decimal.Decimal) error {
	result := r.db.WithContext(ctx).
		Model(&model.Register{}).
		Where("id = ? AND is_open = ?", id, true).
		Update("computed_total_sales", total)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Close stores the final totals of a register entry and marks it closed
func (r *registerRepository) Close(ctx context.Context, id uint, total, closingFloat decimal.Decimal, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.Register{}).
		Where("id = ? AND is_open = ?", id, true).
		Updates(map[string]interface{}{
			"computed_total_sales": total,
			"closing_float":        closingFloat,
			"is_open":              false,
			"closed_at":            at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
