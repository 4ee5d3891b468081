package entries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/tally/internal/journal"
	"github.com/JaimeStill/tally/pkg/pagination"
	"github.com/JaimeStill/tally/pkg/query"
	"github.com/JaimeStill/tally/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a journal entry repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "entries"),
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
) (*pagination.PageResult[Entry], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Description", "ReferenceNumber")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count entries: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Entry, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	e, err := repository.QueryOne(ctx, r.db, q, args, scanEntry)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	withLines, err := r.attachLines(ctx, []Entry{e})
	if err != nil {
		return nil, err
	}
	return &withLines[0], nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Entry, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	entryDate, _ := journal.ParseDate(cmd.EntryDate)
	debit, credit := cmd.Totals()

	var sourceKey, confirmedBy *string
	if cmd.SourceKey != "" {
		sourceKey = &cmd.SourceKey
	}
	if cmd.ConfirmedBy != "" {
		confirmedBy = &cmd.ConfirmedBy
	}

	q := `
		INSERT INTO journal_entries(company_id, entry_date, description, reference_number, currency, total_debit, total_credit, source_key, confirmed_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, company_id, entry_date, description, reference_number, currency, total_debit, total_credit, source_key, confirmed_by, created_at`

	lineQ := `
		INSERT INTO journal_entry_lines(entry_id, line_number, account_id, debit_amount, credit_amount, description)
		SELECT $1, $2, a.id, $4, $5, $6
		FROM chart_of_accounts a
		WHERE a.id = $3 AND a.company_id = $7 AND a.is_active`

	e, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Entry, error) {
		e, err := repository.QueryOne(ctx, tx, q, []any{
			cmd.CompanyID,
			entryDate,
			cmd.Description,
			cmd.ReferenceNumber,
			cmd.Currency,
			debit,
			credit,
			sourceKey,
			confirmedBy,
		}, scanEntry)
		if err != nil {
			return Entry{}, err
		}

		for i, item := range cmd.Items {
			err := repository.ExecExpectOne(
				ctx, tx, lineQ,
				e.ID, i+1, item.AccountID,
				item.DebitAmount, item.CreditAmount, item.Description,
				cmd.CompanyID,
			)
			if errors.Is(err, sql.ErrNoRows) || repository.IsForeignKeyViolation(err) {
				return Entry{}, fmt.Errorf("%w: line %d account %s", ErrUnknownAccount, i+1, item.AccountID)
			}
			if err != nil {
				return Entry{}, fmt.Errorf("insert line %d: %w", i+1, err)
			}
		}

		return e, nil
	})

	if err != nil {
		if errors.Is(err, ErrUnknownAccount) {
			return nil, err
		}
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info(
		"journal entry confirmed",
		"id", e.ID,
		"company_id", e.CompanyID,
		"lines", len(cmd.Items),
		"confirmed_by", cmd.ConfirmedBy,
	)

	return r.Find(ctx, e.ID)
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM journal_entries WHERE id = $1",
			id,
		); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("journal entry deleted", "id", id)
	return nil
}

func (r *repo) Export(ctx context.Context, companyID uuid.UUID, from, to *time.Time) ([]byte, error) {
	qb := query.
		NewBuilder(projection, query.SortField{Field: "EntryDate"}, query.SortField{Field: "CreatedAt"}).
		WhereEquals("CompanyID", companyID)

	if from != nil {
		qb.WhereCompare("EntryDate", ">=", *from)
	}
	if to != nil {
		qb.WhereCompare("EntryDate", "<=", *to)
	}

	q, args := qb.Build()
	items, err := repository.QueryMany(ctx, r.db, q, args, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}

	items, err = r.attachLines(ctx, items)
	if err != nil {
		return nil, err
	}

	buf, err := WriteWorkbook(items)
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	r.logger.Info("journal exported", "company_id", companyID, "entries", len(items))
	return buf.Bytes(), nil
}

// attachLines loads the lines of entries in one query.
func (r *repo) attachLines(ctx context.Context, items []Entry) ([]Entry, error) {
	if len(items) == 0 {
		return items, nil
	}

	ids := make([]string, len(items))
	index := make(map[uuid.UUID]int, len(items))
	for i, e := range items {
		ids[i] = e.ID.String()
		index[e.ID] = i
	}

	lines, err := repository.QueryMany(ctx, r.db, linesQuery, []any{ids}, scanLine)
	if err != nil {
		return nil, fmt.Errorf("query entry lines: %w", err)
	}

	for _, l := range lines {
		i := index[l.EntryID]
		items[i].Lines = append(items[i].Lines, l)
	}

	return items, nil
}
