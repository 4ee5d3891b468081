package api

import (
	"github.com/JaimeStill/tally/internal/accounts"
	"github.com/JaimeStill/tally/internal/analyses"
	"github.com/JaimeStill/tally/internal/drafts"
	"github.com/JaimeStill/tally/internal/entries"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Accounts accounts.System
	Analyses analyses.System
	Entries  entries.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	accountsSystem := accounts.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	var archive analyses.Archiver
	if runtime.Storage != nil {
		archive = runtime.Storage
	}

	analysesSystem := analyses.New(
		runtime.Normalizer,
		runtime.Extractor,
		drafts.NewMapper(accountsSystem, runtime.Logger),
		archive,
		runtime.Logger,
	)

	entriesSystem := entries.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	return &Domain{
		Accounts: accountsSystem,
		Analyses: analysesSystem,
		Entries:  entriesSystem,
	}
}
