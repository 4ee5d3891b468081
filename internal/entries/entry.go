// Package entries persists journal entries confirmed by a user from an
// analysis draft and exports them for the accounting ledger.
package entries

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Entry is a confirmed journal entry.
type Entry struct {
	ID              uuid.UUID       `json:"id"`
	CompanyID       uuid.UUID       `json:"company_id"`
	EntryDate       time.Time       `json:"entry_date"`
	Description     string          `json:"description"`
	ReferenceNumber string          `json:"reference_number"`
	Currency        string          `json:"currency"`
	TotalDebit      decimal.Decimal `json:"total_debit"`
	TotalCredit     decimal.Decimal `json:"total_credit"`
	SourceKey       *string         `json:"source_key"`
	ConfirmedBy     *string         `json:"confirmed_by"`
	CreatedAt       time.Time       `json:"created_at"`
	Lines           []Line          `json:"lines,omitempty"`
}

// Line is a ledger line of a confirmed entry.
type Line struct {
	ID            uuid.UUID       `json:"id"`
	EntryID       uuid.UUID       `json:"entry_id"`
	LineNumber    int             `json:"line_number"`
	AccountID     uuid.UUID       `json:"account_id"`
	AccountNumber string          `json:"account_number"`
	AccountName   string          `json:"account_name"`
	DebitAmount   decimal.Decimal `json:"debit_amount"`
	CreditAmount  decimal.Decimal `json:"credit_amount"`
	Description   string          `json:"description"`
}

// CreateCommand carries a draft confirmed by the user. ConfirmedBy is set
// from the authenticated principal, never from the request body.
type CreateCommand struct {
	CompanyID       uuid.UUID     `json:"company_id" validate:"required"`
	EntryDate       string        `json:"entry_date" validate:"required,entry_date"`
	Description     string        `json:"description" validate:"max=500"`
	ReferenceNumber string        `json:"reference_number" validate:"max=100"`
	Currency        string        `json:"currency" validate:"required,len=3,alpha"`
	SourceKey       string        `json:"source_key" validate:"omitempty,max=1024"`
	Items           []LineCommand `json:"items" validate:"required,min=2,dive"`
	ConfirmedBy     string        `json:"-"`
}

// LineCommand is one confirmed draft item.
type LineCommand struct {
	AccountID    uuid.UUID       `json:"account_id" validate:"required"`
	DebitAmount  decimal.Decimal `json:"debit_amount"`
	CreditAmount decimal.Decimal `json:"credit_amount"`
	Description  string          `json:"description" validate:"max=500"`
}

// Totals returns the command's debit and credit sums.
func (c *CreateCommand) Totals() (debit, credit decimal.Decimal) {
	for _, it := range c.Items {
		debit = debit.Add(it.DebitAmount)
		credit = credit.Add(it.CreditAmount)
	}
	return debit, credit
}
