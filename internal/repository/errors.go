package repository

import (
	"github.com/pkg/errors"

	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/db"
)

// Common repository errors
var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key violation")
)

// translate maps driver level errors to repository errors
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case db.IsRecordNotFoundError(err):
		return ErrNotFound
	case db.IsDuplicateKeyError(err):
		return ErrDuplicateKey
	default:
		return err
	}
}
