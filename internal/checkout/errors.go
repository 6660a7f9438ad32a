package checkout

import (
	"errors"

	"github.com/safar/go-storefront/internal/database"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrUnauthorized   = errors.New("login required")
	// ErrStorageFailure wraps any error the store could not classify. The
	// request may be retried; nothing was committed.
	ErrStorageFailure = errors.New("storage failure")
)

// Storage errors that reach callers unchanged.
var (
	ErrProductNotFound   = database.ErrProductNotFound
	ErrOrderNotFound     = database.ErrOrderNotFound
	ErrOrderShipped      = database.ErrOrderShipped
	ErrInsufficientStock = database.ErrInsufficientStock
)

type InsufficientStockError = database.InsufficientStockError

// passThrough lists the storage errors that describe the request rather than
// the storage layer.
var passThrough = []error{
	database.ErrProductNotFound,
	database.ErrOrderNotFound,
	database.ErrOrderShipped,
	database.ErrInsufficientStock,
	database.ErrOptimisticLockFailed,
}

func isDomainError(err error) bool {
	for _, target := range passThrough {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
