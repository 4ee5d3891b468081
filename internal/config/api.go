package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/JaimeStill/tally/internal/uploads"
	"github.com/JaimeStill/tally/pkg/formatting"
	"github.com/JaimeStill/tally/pkg/middleware"
	"github.com/JaimeStill/tally/pkg/pagination"
)

const (
	EnvAPIBasePath        = "TALLY_API_BASE_PATH"
	EnvAPIMaxUploadSize   = "TALLY_API_MAX_UPLOAD_SIZE"
	EnvAPIDefaultCurrency = "TALLY_API_DEFAULT_CURRENCY"
	EnvAPIArchiveSources  = "TALLY_API_ARCHIVE_SOURCES"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "TALLY_CORS_ENABLED",
	Origins:          "TALLY_CORS_ORIGINS",
	AllowedMethods:   "TALLY_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "TALLY_CORS_ALLOWED_HEADERS",
	AllowCredentials: "TALLY_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "TALLY_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "TALLY_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "TALLY_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig holds API routing, upload, CORS, and pagination settings.
// ArchiveSources stores each analyzed upload in blob storage.
type APIConfig struct {
	BasePath        string                `toml:"base_path"`
	MaxUploadSize   string                `toml:"max_upload_size"`
	DefaultCurrency string                `toml:"default_currency"`
	ArchiveSources  *bool                 `toml:"archive_sources"`
	CORS            middleware.CORSConfig `toml:"cors"`
	Pagination      pagination.Config     `toml:"pagination"`
}

// MaxUploadSizeBytes returns MaxUploadSize in bytes.
func (c *APIConfig) MaxUploadSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return uploads.DefaultMaxSize
	}
	return size
}

// Archive reports whether analyzed uploads are archived.
func (c *APIConfig) Archive() bool {
	return c.ArchiveSources != nil && *c.ArchiveSources
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS and pagination configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}
	if overlay.DefaultCurrency != "" {
		c.DefaultCurrency = overlay.DefaultCurrency
	}
	if overlay.ArchiveSources != nil {
		c.ArchiveSources = overlay.ArchiveSources
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "10MB"
	}
	if c.DefaultCurrency == "" {
		c.DefaultCurrency = "EUR"
	}
	if c.ArchiveSources == nil {
		archive := false
		c.ArchiveSources = &archive
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv(EnvAPIBasePath); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv(EnvAPIMaxUploadSize); v != "" {
		c.MaxUploadSize = v
	}
	if v := os.Getenv(EnvAPIDefaultCurrency); v != "" {
		c.DefaultCurrency = v
	}
	if v := os.Getenv(EnvAPIArchiveSources); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.ArchiveSources = &b
		}
	}
}

func (c *APIConfig) validate() error {
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_upload_size must be positive")
	}

	c.DefaultCurrency = strings.ToUpper(strings.TrimSpace(c.DefaultCurrency))
	if len(c.DefaultCurrency) != 3 {
		return fmt.Errorf("invalid default_currency: %q", c.DefaultCurrency)
	}
	return nil
}
