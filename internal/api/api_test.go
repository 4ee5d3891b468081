package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/tally/internal/api"
	"github.com/JaimeStill/tally/internal/config"
	"github.com/JaimeStill/tally/internal/infrastructure"
	"github.com/JaimeStill/tally/pkg/auth"
	"github.com/JaimeStill/tally/pkg/database"
	"github.com/JaimeStill/tally/pkg/middleware"
	"github.com/JaimeStill/tally/pkg/pagination"
	"github.com/JaimeStill/tally/pkg/storage"
)

const azuriteConnString = "DefaultEndpointsProtocol=http;AccountName=tallystore;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/tallystore;"

type mockVerifier struct {
	verify func(ctx context.Context, raw string) (*auth.Principal, error)
}

func (m *mockVerifier) Verify(ctx context.Context, raw string) (*auth.Principal, error) {
	return m.verify(ctx, raw)
}

func validConfig() *config.Config {
	archive := false
	return &config.Config{
		Server: config.ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     "1m",
			WriteTimeout:    "2m",
			ShutdownTimeout: "30s",
		},
		Database: database.Config{
			Host:            "localhost",
			Port:            5432,
			Name:            "tally",
			User:            "tally",
			Password:        "tally",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: "15m",
			ConnTimeout:     "5s",
		},
		Storage: storage.Config{
			ContainerName:    "sources",
			ConnectionString: azuriteConnString,
			MaxListSize:      50,
		},
		API: config.APIConfig{
			BasePath:        "/api",
			MaxUploadSize:   "10MB",
			DefaultCurrency: "EUR",
			ArchiveSources:  &archive,
			CORS: middleware.CORSConfig{
				Enabled: false,
			},
			Pagination: pagination.Config{
				DefaultPageSize: 20,
				MaxPageSize:     100,
			},
		},
		Extraction: config.ExtractionConfig{
			Mode:      config.ModeService,
			Endpoint:  "http://localhost:54321/functions/v1/analyze-document",
			Timeout:   "90s",
			RenderDPI: 144,
		},
		ShutdownTimeout: "30s",
		Version:         "0.1.0",
	}
}

func withArchive(cfg *config.Config) *config.Config {
	enabled := true
	cfg.API.ArchiveSources = &enabled
	return cfg
}

func setupInfra(t *testing.T, cfg *config.Config) *infrastructure.Infrastructure {
	t.Helper()
	infra, err := infrastructure.New(cfg)
	if err != nil {
		t.Fatalf("infrastructure.New() error = %v", err)
	}
	return infra
}

func serve(t *testing.T, cfg *config.Config, verifier auth.TokenVerifier, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	m, err := api.NewModule(cfg, setupInfra(t, cfg), verifier)
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}

	rec := httptest.NewRecorder()
	m.Serve(rec, req)
	return rec
}

func TestNewModule(t *testing.T) {
	cfg := validConfig()

	m, err := api.NewModule(cfg, setupInfra(t, cfg), nil)
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}

	if m.Prefix() != "/api" {
		t.Errorf("prefix: got %s, want /api", m.Prefix())
	}
}

func TestNewRuntime(t *testing.T) {
	cfg := validConfig()
	runtime := api.NewRuntime(cfg, setupInfra(t, cfg))

	if runtime.Pagination.DefaultPageSize != 20 {
		t.Errorf("pagination default page size: got %d, want 20", runtime.Pagination.DefaultPageSize)
	}
	if runtime.Logger == nil {
		t.Error("runtime logger is nil")
	}
	if runtime.Database == nil {
		t.Error("runtime database is nil")
	}
	if runtime.Storage != nil {
		t.Error("runtime storage should be nil when archiving is disabled")
	}
	if runtime.Normalizer == nil {
		t.Error("runtime normalizer is nil")
	}
	if runtime.Extractor == nil {
		t.Error("runtime extractor is nil")
	}
}

func TestNewDomain(t *testing.T) {
	cfg := withArchive(validConfig())
	runtime := api.NewRuntime(cfg, setupInfra(t, cfg))

	domain := api.NewDomain(runtime)
	if domain.Accounts == nil {
		t.Error("accounts system is nil")
	}
	if domain.Analyses == nil {
		t.Error("analyses system is nil")
	}
	if domain.Entries == nil {
		t.Error("entries system is nil")
	}
	if got := domain.Analyses.MaxUploadSize(); got != 10*1024*1024 {
		t.Errorf("max upload size: got %d, want %d", got, 10*1024*1024)
	}
}

func TestAnalysesRouteRegistered(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/analyses", nil)
	rec := serve(t, validConfig(), nil, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestSourcesRoutes(t *testing.T) {
	t.Run("absent without archive", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/sources", nil)
		rec := serve(t, validConfig(), nil, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status: got %d, want %d", rec.Code, http.StatusNotFound)
		}
	})

	t.Run("registered with archive", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/sources?max_results=abc", nil)
		rec := serve(t, withArchive(validConfig()), nil, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status: got %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})
}

func TestAuthMiddleware(t *testing.T) {
	verifier := &mockVerifier{
		verify: func(ctx context.Context, raw string) (*auth.Principal, error) {
			if raw == "good" {
				return &auth.Principal{Subject: "u-1"}, nil
			}
			return nil, errors.New("bad token")
		},
	}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"rejected token", "Bearer bad", http.StatusUnauthorized},
		{"accepted token", "Bearer good", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/analyses", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := serve(t, validConfig(), verifier, req)

			if rec.Code != tt.want {
				t.Errorf("status: got %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestNewRuntimeAgentMode(t *testing.T) {
	cfg := validConfig()
	cfg.Extraction.Mode = config.ModeAgent
	cfg.Extraction.Endpoint = ""

	runtime := api.NewRuntime(cfg, setupInfra(t, cfg))
	if runtime.Extractor == nil {
		t.Fatal("runtime extractor is nil")
	}
}
