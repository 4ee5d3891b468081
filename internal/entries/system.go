package entries

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/tally/pkg/pagination"
)

// System defines the public contract for confirmed journal entries.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Entry], error)

	Find(ctx context.Context, id uuid.UUID) (*Entry, error)
	Create(ctx context.Context, cmd CreateCommand) (*Entry, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Export renders the company's entries dated within [from, to] as an
	// XLSX workbook. Nil bounds are open.
	Export(ctx context.Context, companyID uuid.UUID, from, to *time.Time) ([]byte, error)
}
