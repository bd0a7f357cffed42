package inventory

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("inventory: validation failed")
	// ErrInsufficientStock is matched by every *InsufficientStockError.
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
	// ErrNotFound indicates the referenced product no longer exists.
	ErrNotFound = errors.New("inventory: product not found")
	// ErrStoreUnavailable indicates the catalog store failed. Callers must
	// re-fetch before retrying since a write may have partially succeeded.
	ErrStoreUnavailable = errors.New("inventory: catalog store unavailable")
)

// ValidationError reports a single rejected field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("inventory: %s %s", e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ValidationErrors collects every *ValidationError in err, including the ones
// combined with errors.Join.
func ValidationErrors(err error) []*ValidationError {
	if err == nil {
		return nil
	}
	var out []*ValidationError
	var walk func(error)
	walk = func(e error) {
		if ve, ok := e.(*ValidationError); ok {
			out = append(out, ve)
			return
		}
		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			if inner := u.Unwrap(); inner != nil {
				walk(inner)
			}
		}
	}
	walk(err)
	return out
}

// InsufficientStockError is returned when a stock-out exceeds the on-hand quantity.
type InsufficientStockError struct {
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("inventory: insufficient stock: requested %d, available %d", e.Requested, e.Available)
}

// Is lets errors.Is(err, ErrInsufficientStock) match.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// storeError wraps a collaborator failure so it matches ErrStoreUnavailable
// while keeping the original cause reachable.
type storeError struct {
	op  string
	err error
}

func (e *storeError) Error() string {
	return fmt.Sprintf("inventory: %s: %v", e.op, e.err)
}

func (e *storeError) Unwrap() []error {
	return []error{ErrStoreUnavailable, e.err}
}

// wrapStoreErr passes domain errors through and tags everything else as a
// store failure.
func wrapStoreErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) || errors.Is(err, ErrInsufficientStock) || errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return &storeError{op: op, err: err}
}
