package drafts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/tally/internal/accounts"
	"github.com/JaimeStill/tally/internal/journal"
)

// Resolver looks up an active company account. accounts.System satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, q accounts.ResolveQuery) (*accounts.Account, error)
}

// Mapper builds drafts by resolving each extracted line's account hint.
type Mapper struct {
	resolver Resolver
	logger   *slog.Logger
}

// NewMapper creates a Mapper backed by resolver.
func NewMapper(resolver Resolver, logger *slog.Logger) *Mapper {
	return &Mapper{
		resolver: resolver,
		logger:   logger.With("system", "drafts"),
	}
}

// Map resolves every line of entry against the chart of accounts of
// companyID. Lines are resolved concurrently and keep their original order.
// Lines without a matching account are dropped and reported in
// Draft.Unresolved. When fewer than two lines resolve, Map returns
// ErrUnmappable.
func (m *Mapper) Map(
	ctx context.Context,
	entry *journal.ExtractedEntry,
	companyID uuid.UUID,
	currency string,
) (*Draft, error) {
	if entry == nil {
		return nil, ErrMissingEntry
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if companyID == uuid.Nil || currency == "" {
		return nil, ErrInvalidTarget
	}

	resolved := make([]*accounts.Account, len(entry.Lines))
	reasons := make([]string, len(entry.Lines))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount(len(entry.Lines)))

	for i, line := range entry.Lines {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			if !line.HasAccount() {
				reasons[i] = "no account hint"
				return nil
			}

			a, err := m.resolve(gctx, companyID, line)
			if errors.Is(err, accounts.ErrNotFound) {
				reasons[i] = "no matching account"
				return nil
			}
			if err != nil {
				return fmt.Errorf("line %d: %w", i+1, err)
			}

			resolved[i] = a
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("resolve accounts: %w", err)
	}

	draft := &Draft{
		CompanyID:       companyID,
		EntryDate:       entry.EntryDate,
		Description:     entry.Description,
		ReferenceNumber: entry.ReferenceNumber,
		Currency:        currency,
		Items:           make([]Item, 0, len(entry.Lines)),
	}

	for i, line := range entry.Lines {
		a := resolved[i]
		if a == nil {
			m.logger.WarnContext(
				ctx, "line dropped from draft",
				"company_id", companyID,
				"line", i+1,
				"code", line.Code(),
				"reason", reasons[i],
			)
			draft.Unresolved = append(draft.Unresolved, Unresolved{
				Line:   i + 1,
				Code:   line.Code(),
				Reason: reasons[i],
			})
			continue
		}

		draft.Items = append(draft.Items, Item{
			AccountID:     a.ID,
			AccountNumber: a.AccountNumber,
			DebitAmount:   line.DebitAmount,
			CreditAmount:  line.CreditAmount,
			Description:   itemDescription(line, entry),
			Currency:      currency,
		})
	}

	if len(draft.Items) < 2 {
		return nil, fmt.Errorf("%w: %d of %d resolved", ErrUnmappable, len(draft.Items), len(entry.Lines))
	}

	// a partially mapped draft is only offered when it still balances
	if debit, credit := draft.Totals(); debit.Sub(credit).Abs().GreaterThan(journal.BalanceTolerance) {
		return nil, fmt.Errorf(
			"%w: unbalanced after dropping %d of %d lines (debit %s, credit %s)",
			ErrUnmappable, len(draft.Unresolved), len(entry.Lines),
			debit.StringFixed(2), credit.StringFixed(2),
		)
	}

	m.logger.InfoContext(
		ctx, "draft mapped",
		"company_id", companyID,
		"items", len(draft.Items),
		"unresolved", len(draft.Unresolved),
	)

	return draft, nil
}

// resolve tries an exact match on a numeric suggestion, then falls back to
// a prefix search on the account class, or the suggestion when the class
// is not numeric.
func (m *Mapper) resolve(ctx context.Context, companyID uuid.UUID, line journal.Line) (*accounts.Account, error) {
	class := strings.TrimSpace(line.AccountClass)
	suggestion := strings.TrimSpace(line.AccountSuggestion)

	if isAccountNumber(suggestion) {
		a, err := m.resolver.Resolve(ctx, accounts.ResolveQuery{
			CompanyID:   companyID,
			ClassPrefix: line.Code(),
			Number:      suggestion,
		})
		if !errors.Is(err, accounts.ErrNotFound) {
			return a, err
		}
	}

	prefix := class
	if !isAccountNumber(prefix) {
		prefix = suggestion
	}
	if !isAccountNumber(prefix) {
		return nil, accounts.ErrNotFound
	}

	return m.resolver.Resolve(ctx, accounts.ResolveQuery{
		CompanyID:   companyID,
		ClassPrefix: prefix,
	})
}

func isAccountNumber(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func itemDescription(line journal.Line, entry *journal.ExtractedEntry) string {
	if d := strings.TrimSpace(line.Description); d != "" {
		return d
	}
	return entry.Description
}

func workerCount(lines int) int {
	return max(min(runtime.NumCPU(), lines), 1)
}
