package accounts

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/tally/pkg/pagination"
	"github.com/JaimeStill/tally/pkg/query"
	"github.com/JaimeStill/tally/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates an account repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "accounts"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Account], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "AccountNumber", "AccountName")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count accounts: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanAccount)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Account, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	a, err := repository.QueryOne(ctx, r.db, q, args, scanAccount)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &a, nil
}

func (r *repo) Resolve(ctx context.Context, q ResolveQuery) (*Account, error) {
	q.ClassPrefix = strings.TrimSpace(q.ClassPrefix)
	q.Number = strings.TrimSpace(q.Number)

	if q.CompanyID == uuid.Nil {
		return nil, fmt.Errorf("%w: company_id required", ErrInvalidQuery)
	}
	if q.ClassPrefix == "" && q.Number == "" {
		return nil, fmt.Errorf("%w: class prefix or account number required", ErrInvalidQuery)
	}

	sqlStr, args := resolveBuilder(q).BuildSingleOrNull()

	a, err := repository.QueryOne(ctx, r.db, sqlStr, args, scanAccount)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.DebugContext(
		ctx, "account resolved",
		"company_id", q.CompanyID,
		"class_prefix", q.ClassPrefix,
		"number", q.Number,
		"account_number", a.AccountNumber,
	)

	return &a, nil
}
