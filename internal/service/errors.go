package service

import (
	"github.com/pkg/errors"

	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/repository"
)

// Service errors. Callers test them with errors.Is.
var (
	ErrNotFound      = repository.ErrNotFound
	ErrInvalidState  = errors.New("invalid state")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation failed")
	ErrUnavailable   = errors.New("service unavailable")
)

func notFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, repository.ErrNotFound) {
		return errors.Wrapf(ErrNotFound, format, args...)
	}
	return err
}
