// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/JaimeStill/tally/internal/config"
	"github.com/JaimeStill/tally/internal/infrastructure"
	"github.com/JaimeStill/tally/pkg/auth"
	"github.com/JaimeStill/tally/pkg/middleware"
	"github.com/JaimeStill/tally/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
// A non-nil verifier requires a bearer token on every API request.
func NewModule(
	cfg *config.Config,
	infra *infrastructure.Infrastructure,
	verifier auth.TokenVerifier,
) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	mux := http.NewServeMux()
	registerRoutes(mux, domain, cfg, runtime)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Infrastructure.Logger))
	if verifier != nil {
		m.Use(auth.Middleware(verifier, runtime.Logger))
	}

	return m, nil
}
