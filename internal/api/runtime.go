package api

import (
	"log/slog"

	"github.com/JaimeStill/tally/internal/config"
	"github.com/JaimeStill/tally/internal/extraction"
	"github.com/JaimeStill/tally/internal/infrastructure"
	"github.com/JaimeStill/tally/internal/uploads"
	"github.com/JaimeStill/tally/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration and the
// document analysis backends.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination pagination.Config
	Normalizer *uploads.Normalizer
	Extractor  extraction.Extractor
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	logger := infra.Logger.With("module", "api")

	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    logger,
			Database:  infra.Database,
			Storage:   infra.Storage,
		},
		Pagination: cfg.API.Pagination,
		Normalizer: uploads.New(
			cfg.API.MaxUploadSizeBytes(),
			uploads.NewPDFRenderer(cfg.Extraction.RenderDPI),
			logger,
		),
		Extractor: newExtractor(&cfg.Extraction, logger),
	}
}

func newExtractor(cfg *config.ExtractionConfig, logger *slog.Logger) extraction.Extractor {
	if cfg.Mode == config.ModeAgent {
		return extraction.NewAgent(cfg.Agent, logger)
	}
	return extraction.NewService(cfg.Endpoint, cfg.APIKey, cfg.TimeoutDuration(), logger)
}
