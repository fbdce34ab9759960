package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotReady signals that the engine has not finished loading.
	ErrNotReady = errors.New("engine not ready")
	// ErrItemNotFound signals a missing catalog item.
	ErrItemNotFound = errors.New("catalog item not found")
	// ErrEmptyCatalog signals that no catalog rows survived filtering.
	ErrEmptyCatalog = errors.New("empty catalog")
	// ErrInvalidWeights signals a missing or structurally invalid weights file.
	ErrInvalidWeights = errors.New("invalid model weights")
	// ErrCatalogDesync signals that the index returned an id absent from the
	// metadata store. Index and catalog must be built from the same filtered set.
	ErrCatalogDesync = errors.New("index and catalog out of sync")
	// ErrWeatherUnavailable signals a forecast provider failure.
	ErrWeatherUnavailable = errors.New("weather data unavailable")
	// ErrOffLand signals a location over open water.
	ErrOffLand = errors.New("location is not on land")
	// ErrValidation signals rejected request input.
	ErrValidation = errors.New("validation failed")
)

// DesyncError wraps ErrCatalogDesync with the offending item id.
type DesyncError struct {
	ID string
}

func (e *DesyncError) Error() string {
	return fmt.Sprintf("%s: retrieved id %q has no metadata", ErrCatalogDesync.Error(), e.ID)
}

func (e *DesyncError) Unwrap() error { return ErrCatalogDesync }

// NewDesync creates a catalog desync error for the given item id.
func NewDesync(id string) error {
	return &DesyncError{ID: id}
}
