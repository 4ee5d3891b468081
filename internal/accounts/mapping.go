package accounts

import (
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/JaimeStill/tally/pkg/query"
	"github.com/JaimeStill/tally/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "chart_of_accounts", "a").
	Project("id", "ID").
	Project("company_id", "CompanyID").
	Project("account_number", "AccountNumber").
	Project("account_name", "AccountName").
	Project("account_type", "AccountType").
	Project("account_class", "AccountClass").
	Project("parent_account_id", "ParentAccountID").
	Project("level", "Level").
	Project("is_active", "IsActive").
	Project("is_detail_account", "IsDetailAccount").
	Project("description", "Description").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{Field: "AccountNumber"}

// Filters contains optional filtering criteria for account queries.
// Nil fields are ignored. NumberPrefix matches the start of the account number.
type Filters struct {
	CompanyID    *uuid.UUID `json:"company_id,omitempty"`
	AccountType  *string    `json:"account_type,omitempty"`
	AccountClass *int       `json:"account_class,omitempty"`
	IsActive     *bool      `json:"is_active,omitempty"`
	NumberPrefix string     `json:"number_prefix,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("CompanyID", f.CompanyID).
		WhereEquals("AccountType", f.AccountType).
		WhereEquals("AccountClass", f.AccountClass).
		WhereEquals("IsActive", f.IsActive).
		WhereStartsWith("AccountNumber", f.NumberPrefix)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if c := values.Get("company_id"); c != "" {
		if id, err := uuid.Parse(c); err == nil {
			f.CompanyID = &id
		}
	}

	if t := values.Get("account_type"); t != "" {
		f.AccountType = &t
	}

	if c := values.Get("account_class"); c != "" {
		if n, err := strconv.Atoi(c); err == nil {
			f.AccountClass = &n
		}
	}

	if a := values.Get("is_active"); a != "" {
		if b, err := strconv.ParseBool(a); err == nil {
			f.IsActive = &b
		}
	}

	f.NumberPrefix = values.Get("number_prefix")

	return f
}

// resolveBuilder selects the single account a ResolveQuery refers to.
func resolveBuilder(q ResolveQuery) *query.Builder {
	active := true
	qb := query.
		NewBuilder(projection, defaultSort).
		WhereEquals("CompanyID", q.CompanyID).
		WhereEquals("IsActive", active)

	if q.Number != "" {
		return qb.WhereEquals("AccountNumber", q.Number)
	}
	return qb.WhereStartsWith("AccountNumber", q.ClassPrefix)
}

func scanAccount(s repository.Scanner) (Account, error) {
	var a Account
	err := s.Scan(
		&a.ID,
		&a.CompanyID,
		&a.AccountNumber,
		&a.AccountName,
		&a.AccountType,
		&a.AccountClass,
		&a.ParentAccountID,
		&a.Level,
		&a.IsActive,
		&a.IsDetailAccount,
		&a.Description,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	return a, err
}
