package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/model"
)

// TableRepository defines the interface for table repository
type TableRepository interface {
	Ensure(ctx context.Context, number int, takeout bool) (bool, error)
	GetByNumber(ctx context.Context, number int) (*model.Table, error)
	GetByNumberForUpdate(ctx context.Context, number int) (*model.Table, error)
	List(ctx context.Context) ([]model.Table, error)
	SetOccupied(ctx context.Context, id uint, occupied bool) error
}

type tableRepository struct {
	db *gorm.DB
}

// NewTableRepository creates a new table repository
func NewTableRepository(db *gorm.DB) TableRepository {
	return &tableRepository{db: db}
}

// Ensure creates the table when it does not exist and reports whether it did
func (r *tableRepository) Ensure(ctx context.Context, number int, takeout bool) (bool, error) {
	_, err := r.GetByNumber(ctx, number)
	if err == nil {
		return false, nil
	}
	if err != ErrNotFound {
		return false, err
	}

	table := model.Table{Number: number, IsTakeout: takeout}
	if err := r.db.WithContext(ctx).Create(&table).Error; err != nil {
		if err = translate(err); err == ErrDuplicateKey {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GetByNumber gets a table by number
func (r *tableRepository) GetByNumber(ctx context.Context, number int) (*model.Table, error) {
	var table model.Table
	if err := r.db.WithContext(ctx).Where("number = ?", number).First(&table).Error; err != nil {
		return nil, translate(err)
	}
	return &table, nil
}

// GetByNumberForUpdate gets a table by number and locks its row until the
// transaction ends
func (r *tableRepository) GetByNumberForUpdate(ctx context.Context, number int) (*model.Table, error) {
	var table model.Table
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("number = ?", number).
		First(&table).Error
	if err != nil {
		return nil, translate(err)
	}
	return &table, nil
}

// List returns all tables ordered by number, takeout first
func (r *tableRepository) List(ctx context.Context) ([]model.Table, error) {
	var tables []model.Table
	if err := r.db.WithContext(ctx).Order("number ASC").Find(&tables).Error; err != nil {
		return nil, err
	}
	return tables, nil
}

// SetOccupied sets the occupancy flag of a table
func (r *tableRepository) SetOccupied(ctx context.Context, id uint, occupied bool) error {
	result := r.db.WithContext(ctx).
		Model(&model.Table{}).
		Where("id = ?", id).
		Update("occupied", occupied)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
