package domain

import (
	"errors"

	"github.com/spontime/geocore/internal/domain/geo"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCoordinate signals a latitude/longitude outside the valid range.
	// Defined in geo so the leaf package stays dependency-free.
	ErrInvalidCoordinate = geo.ErrInvalidCoordinate
	// ErrInsufficientData signals a documented no-op: too few entities to
	// cluster, or a user with no interaction history. Callers skip, not fail.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrUnknownScope signals a scope with no clustering configuration.
	ErrUnknownScope = errors.New("unknown scope")
)
