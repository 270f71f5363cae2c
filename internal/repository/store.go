package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories bound to one connection or transaction
type Store struct {
	db *gorm.DB

	Tables    TableRepository
	Dishes    DishRepository
	Orders    OrderRepository
	Registers RegisterRepository
}

// NewStore creates a store on db
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:        db,
		Tables:    NewTableRepository(db),
		Dishes:    NewDishRepository(db),
		Orders:    NewOrderRepository(db),
		Registers: NewRegisterRepository(db),
	}
}

// Transaction runs fn with a store bound to a new transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
