// Package accounts reads a company's chart of accounts and resolves
// extracted account hints to concrete ledger accounts.
package accounts

import (
	"time"

	"github.com/google/uuid"
)

// Account is a row of the company chart of accounts.
type Account struct {
	ID              uuid.UUID  `json:"id"`
	CompanyID       uuid.UUID  `json:"company_id"`
	AccountNumber   string     `json:"account_number"`
	AccountName     string     `json:"account_name"`
	AccountType     string     `json:"account_type"`
	AccountClass    *int       `json:"account_class"`
	ParentAccountID *uuid.UUID `json:"parent_account_id"`
	Level           int        `json:"level"`
	IsActive        bool       `json:"is_active"`
	IsDetailAccount bool       `json:"is_detail_account"`
	Description     *string    `json:"description"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ResolveQuery identifies the account an extracted line refers to.
// When Number is set it must match exactly; otherwise the lowest active
// account number starting with ClassPrefix is chosen.
type ResolveQuery struct {
	CompanyID   uuid.UUID `json:"company_id"`
	ClassPrefix string    `json:"class_prefix"`
	Number      string    `json:"number,omitempty"`
}
