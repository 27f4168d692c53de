package repositories

import (
	"context"
	"errors"

	"github.com/shiftloop/fulfillment-service/internal/constants"
	"github.com/shiftloop/fulfillment-service/internal/utils"
)

/*
EntityWithVersion:

* `comparable`  → lets us use `==` to compare two values of type T
* the concurrency accessors from models.Versioned
*/
type EntityWithVersion interface {
	comparable
	GetID() string
	GetRowVersion() int64
	SetRowVersion(int64)
}

type GetFunc[T EntityWithVersion] func(ctx context.Context) (T, error)

type UpdateIfVersionFunc[T EntityWithVersion] func(
	ctx context.Context,
	entity T,
	expectedVersion int64,
) (T, error)

/*
WithRetry runs a read-mutate-update loop with optimistic locking. The mutate
func may return a domain error to abort without retrying; only
ErrRowVersionConflict triggers another attempt.
*/
func WithRetry[T EntityWithVersion](
	ctx context.Context,
	get GetFunc[T],
	updateIfVersion UpdateIfVersionFunc[T],
	mutate func(T) error,
) (T, error) {
	var zero T
	for attempt := 0; attempt < constants.MaxVersionRetries; attempt++ {
		current, err := get(ctx)
		if err != nil {
			return zero, err
		}
		if current == zero {
			return zero, utils.ErrNotFound
		}

		oldVersion := current.GetRowVersion()

		if err := mutate(current); err != nil {
			return zero, err
		}

		updated, err := updateIfVersion(ctx, current, oldVersion)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, utils.ErrRowVersionConflict) {
			return zero, err
		}
		// someone else updated first – retry
	}
	return zero, utils.ErrRowVersionConflict
}
