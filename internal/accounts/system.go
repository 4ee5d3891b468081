package accounts

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/tally/pkg/pagination"
)

// System defines the public contract for chart of accounts operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Account], error)

	Find(ctx context.Context, id uuid.UUID) (*Account, error)

	// Resolve returns the active account of the company matching q, or
	// ErrNotFound. Not found is an expected outcome for unknown hints.
	Resolve(ctx context.Context, q ResolveQuery) (*Account, error)
}
