package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/tally/internal/journal"
)

// maxResponseSize bounds how much of the analysis response is read.
const maxResponseSize = 4 << 20

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type service struct {
	client   *http.Client
	endpoint string
	apiKey   string
	logger   *slog.Logger
}

// NewService returns an Extractor that posts requests to the hosted
// analysis function at endpoint. The response is expected in a
// {success, data, error} envelope.
func NewService(endpoint, apiKey string, timeout time.Duration, logger *slog.Logger) Extractor {
	return &service{
		client:   &http.Client{Timeout: timeout},
		endpoint: endpoint,
		apiKey:   apiKey,
		logger:   logger.With("system", "extraction", "mode", "service"),
	}
}

func (s *service) Extract(ctx context.Context, req Request) (*journal.ExtractedEntry, error) {
	raw, err := s.send(ctx, req)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = "no error detail returned"
		}
		return nil, fmt.Errorf("%w: %s", ErrExtractionFailed, msg)
	}

	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, fmt.Errorf("%w: missing data", ErrMalformedResponse)
	}

	return decodeEntry(env.Data)
}

func (s *service) send(ctx context.Context, req Request) ([]byte, error) {
	reqID := uuid.New().String()
	start := time.Now()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", reqID)
	if s.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)
		httpReq.Header.Set("apikey", s.apiKey)
	}

	s.logger.InfoContext(
		ctx, "analysis request",
		"req_id", reqID,
		"document_type", req.DocumentType,
		"mime_type", req.MimeType,
		"content_length", len(body),
	)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		s.logger.ErrorContext(ctx, "analysis transport failure",
			"req_id", reqID,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrServiceUnavailable, err)
	}

	s.logger.InfoContext(
		ctx, "analysis response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("%w: status %d", ErrServiceUnavailable, resp.StatusCode)
	}

	return raw, nil
}
