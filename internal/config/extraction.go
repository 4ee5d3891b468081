package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

// Extraction backends.
const (
	ModeService = "service"
	ModeAgent   = "agent"
)

const (
	EnvExtractionMode     = "TALLY_EXTRACTION_MODE"
	EnvExtractionEndpoint = "TALLY_EXTRACTION_ENDPOINT"
	EnvExtractionAPIKey   = "TALLY_EXTRACTION_API_KEY"
	EnvExtractionTimeout  = "TALLY_EXTRACTION_TIMEOUT"
	EnvExtractionDPI      = "TALLY_EXTRACTION_RENDER_DPI"
)

// ExtractionConfig selects and configures the document analysis backend.
// Service mode posts to the hosted analysis function at Endpoint; agent
// mode calls a vision model through Agent.
type ExtractionConfig struct {
	Mode      string               `toml:"mode"`
	Endpoint  string               `toml:"endpoint"`
	APIKey    string               `toml:"api_key"`
	Timeout   string               `toml:"timeout"`
	RenderDPI int                  `toml:"render_dpi"`
	Agent     gaconfig.AgentConfig `toml:"agent"`
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *ExtractionConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
// The agent config is only finalized in agent mode.
func (c *ExtractionConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if c.Mode == ModeAgent {
		if err := FinalizeAgent(&c.Agent); err != nil {
			return fmt.Errorf("agent: %w", err)
		}
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *ExtractionConfig) Merge(overlay *ExtractionConfig) {
	if overlay.Mode != "" {
		c.Mode = overlay.Mode
	}
	if overlay.Endpoint != "" {
		c.Endpoint = overlay.Endpoint
	}
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.RenderDPI != 0 {
		c.RenderDPI = overlay.RenderDPI
	}
	c.Agent.Merge(&overlay.Agent)
}

func (c *ExtractionConfig) loadDefaults() {
	if c.Mode == "" {
		c.Mode = ModeService
	}
	if c.Timeout == "" {
		c.Timeout = "90s"
	}
	if c.RenderDPI == 0 {
		c.RenderDPI = 144
	}
}

func (c *ExtractionConfig) loadEnv() {
	if v := os.Getenv(EnvExtractionMode); v != "" {
		c.Mode = v
	}
	if v := os.Getenv(EnvExtractionEndpoint); v != "" {
		c.Endpoint = v
	}
	if v := os.Getenv(EnvExtractionAPIKey); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv(EnvExtractionTimeout); v != "" {
		c.Timeout = v
	}
	if v := os.Getenv(EnvExtractionDPI); v != "" {
		if dpi, err := strconv.Atoi(v); err == nil {
			c.RenderDPI = dpi
		}
	}
}

func (c *ExtractionConfig) validate() error {
	if c.Mode != ModeService && c.Mode != ModeAgent {
		return fmt.Errorf("invalid mode %q: must be %s or %s", c.Mode, ModeService, ModeAgent)
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if c.RenderDPI < 72 || c.RenderDPI > 600 {
		return fmt.Errorf("render_dpi must be between 72 and 600: %d", c.RenderDPI)
	}
	if c.Mode == ModeService {
		if c.Endpoint == "" {
			return fmt.Errorf("endpoint required in service mode")
		}
		if u, err := url.Parse(c.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid endpoint: %q", c.Endpoint)
		}
	}
	return nil
}
