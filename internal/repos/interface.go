package repos

import (
	"context"
	"errors"

	"secondhand/internal/domain"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrVersionConflict = errors.New("version conflict")
)

// AnyVersion skips the optimistic version check on UpdateStatus.
const AnyVersion int64 = -1

// ProductStore is implemented by the SQLite document table, the Mongo collection
// and the cache decorator. Implementations return ErrNotFound for unknown ids.
type ProductStore interface {
	All(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id string) (domain.Product, error)
	BySeller(ctx context.Context, name string) ([]domain.Product, error)
	Create(ctx context.Context, p domain.Product) (string, error)
	// UpdateStatus bumps the version. ifVersion other than AnyVersion must match
	// the stored version or ErrVersionConflict is returned.
	UpdateStatus(ctx context.Context, id string, status domain.ListingStatus, ifVersion int64) error
	Copy(ctx context.Context, id string) (string, error)
}
