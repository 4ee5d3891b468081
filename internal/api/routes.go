package api

import (
	"net/http"

	"github.com/JaimeStill/tally/internal/config"
	"github.com/JaimeStill/tally/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) {
	routes.Register(
		mux,
		domain.Accounts.Handler().Routes(),
		domain.Analyses.Handler(cfg.API.DefaultCurrency).Routes(),
		domain.Entries.Handler().Routes(),
	)

	if runtime.Storage != nil {
		sources := newSourcesHandler(runtime.Storage, runtime.Logger, cfg.Storage.MaxListSize)
		routes.Register(mux, sources.routes())
	}
}
