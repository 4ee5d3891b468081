// Package uploads validates uploaded invoices and receipts and normalizes
// them into a single base64-encoded image for document analysis.
package uploads

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/JaimeStill/tally/pkg/formatting"
)

const (
	MimePDF  = "application/pdf"
	MimePNG  = "image/png"
	MimeJPEG = "image/jpeg"
	MimeJPG  = "image/jpg"
	MimeWebP = "image/webp"

	// DefaultMaxSize is the upload ceiling applied when none is configured.
	DefaultMaxSize int64 = 10 << 20
)

// AcceptedTypes lists the media types the normalizer will process.
var AcceptedTypes = []string{MimePDF, MimeJPEG, MimeJPG, MimePNG, MimeWebP}

// File is an uploaded document held in memory.
type File struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Normalized is the image payload sent for analysis.
type Normalized struct {
	Base64    string `json:"-"`
	MimeType  string `json:"mime_type"`
	PageCount int    `json:"page_count"`
	Size      int    `json:"size"`
}

// Renderer rasterizes the first page of a PDF to PNG bytes.
type Renderer interface {
	RenderFirstPage(ctx context.Context, pdf []byte) ([]byte, error)
}

// Normalizer checks uploads against the accepted types and size ceiling
// and converts PDFs to a PNG of their first page.
type Normalizer struct {
	maxSize  int64
	renderer Renderer
	logger   *slog.Logger
}

// New creates a Normalizer. A non-positive maxSize selects DefaultMaxSize.
func New(maxSize int64, renderer Renderer, logger *slog.Logger) *Normalizer {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Normalizer{
		maxSize:  maxSize,
		renderer: renderer,
		logger:   logger.With("system", "uploads"),
	}
}

// MaxSize returns the configured upload ceiling in bytes.
func (n *Normalizer) MaxSize() int64 {
	return n.maxSize
}

// Check rejects empty, oversized, and unsupported files. Size is checked
// before format.
func (n *Normalizer) Check(f File) error {
	size := int64(len(f.Data))
	if size == 0 {
		return ErrEmptyFile
	}
	if size > n.maxSize {
		return fmt.Errorf(
			"%w: %s exceeds %s",
			ErrFileTooLarge,
			formatting.FormatBytes(size, 1),
			formatting.FormatBytes(n.maxSize, 0),
		)
	}
	if !IsAccepted(f.ContentType) {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, f.ContentType)
	}
	return nil
}

// Normalize checks f and returns its analysis payload. Images pass through
// unchanged; PDFs are reduced to a PNG rendering of page one.
func (n *Normalizer) Normalize(ctx context.Context, f File) (*Normalized, error) {
	if err := n.Check(f); err != nil {
		return nil, err
	}

	if f.ContentType != MimePDF {
		return &Normalized{
			Base64:    base64.StdEncoding.EncodeToString(f.Data),
			MimeType:  f.ContentType,
			PageCount: 1,
			Size:      len(f.Data),
		}, nil
	}

	pages, err := PageCount(f.Data)
	if err != nil {
		n.logger.Warn("failed to read pdf page count", "filename", f.Filename, "error", err)
		pages = 0
	}
	if pages > 1 {
		n.logger.Info("only the first pdf page is analyzed", "filename", f.Filename, "page_count", pages)
	}

	png, err := n.renderer.RenderFirstPage(ctx, f.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRenderFailed, err)
	}

	return &Normalized{
		Base64:    base64.StdEncoding.EncodeToString(png),
		MimeType:  MimePNG,
		PageCount: pages,
		Size:      len(png),
	}, nil
}

// IsAccepted reports whether contentType is one of AcceptedTypes.
func IsAccepted(contentType string) bool {
	return slices.Contains(AcceptedTypes, contentType)
}

// DetectContentType prefers the declared header and falls back to content
// sniffing when the header is absent or generic. Media type parameters are
// dropped.
func DetectContentType(header string, data []byte) string {
	header = strings.TrimSpace(header)
	if header == "" || header == "application/octet-stream" {
		header = http.DetectContentType(data)
	}
	if mt, _, ok := strings.Cut(header, ";"); ok {
		header = mt
	}
	return strings.ToLower(strings.TrimSpace(header))
}

// PageCount returns the number of pages in a PDF.
func PageCount(data []byte) (int, error) {
	return api.PageCount(bytes.NewReader(data), nil)
}
