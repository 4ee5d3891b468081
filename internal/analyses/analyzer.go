package analyses

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/tally/internal/drafts"
	"github.com/JaimeStill/tally/internal/extraction"
	"github.com/JaimeStill/tally/internal/journal"
	"github.com/JaimeStill/tally/internal/uploads"
)

// Mapper builds a draft from an extracted entry. *drafts.Mapper satisfies it.
type Mapper interface {
	Map(ctx context.Context, entry *journal.ExtractedEntry, companyID uuid.UUID, currency string) (*drafts.Draft, error)
}

// Archiver stores original uploads. storage.System satisfies it.
type Archiver interface {
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error
}

// System defines the public contract for document analysis.
type System interface {
	Handler(defaultCurrency string) *Handler
	MaxUploadSize() int64
	Analyze(ctx context.Context, cmd Command) (*Analysis, error)
}

type analyzer struct {
	normalizer *uploads.Normalizer
	extractor  extraction.Extractor
	mapper     Mapper
	archive    Archiver
	logger     *slog.Logger
}

// New creates the analysis pipeline. A nil archive disables source archiving.
func New(
	normalizer *uploads.Normalizer,
	extractor extraction.Extractor,
	mapper Mapper,
	archive Archiver,
	logger *slog.Logger,
) System {
	return &analyzer{
		normalizer: normalizer,
		extractor:  extractor,
		mapper:     mapper,
		archive:    archive,
		logger:     logger.With("system", "analyses"),
	}
}

func (a *analyzer) Handler(defaultCurrency string) *Handler {
	return NewHandler(a, a.logger, defaultCurrency)
}

func (a *analyzer) MaxUploadSize() int64 {
	return a.normalizer.MaxSize()
}

// Analyze runs the pipeline for one document. Only an upload that was
// extracted successfully is archived; the archive runs alongside
// validation and mapping, and an archive failure is logged and leaves
// SourceKey empty. An entry with validation errors is rejected and never
// mapped to a draft.
func (a *analyzer) Analyze(ctx context.Context, cmd Command) (*Analysis, error) {
	if cmd.CompanyID == uuid.Nil {
		return nil, fmt.Errorf("%w: company_id required", ErrInvalidRequest)
	}

	if err := a.normalizer.Check(cmd.File); err != nil {
		return nil, err
	}

	normalized, err := a.normalizer.Normalize(ctx, cmd.File)
	if err != nil {
		return nil, err
	}

	req := extraction.NewRequest(
		normalized.Base64,
		normalized.MimeType,
		cmd.DocumentType,
		cmd.CompanyID.String(),
	)

	extracted, err := a.extractor.Extract(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &Analysis{
		Extracted: extracted,
		MimeType:  normalized.MimeType,
		PageCount: normalized.PageCount,
	}

	g, gctx := errgroup.WithContext(ctx)

	if a.archive != nil {
		g.Go(func() error {
			result.SourceKey = a.archiveSource(gctx, cmd.File)
			return nil
		})
	}

	g.Go(func() error {
		result.Validation = journal.Validate(extracted)
		if !result.Validation.Valid {
			return nil
		}

		draft, err := a.mapper.Map(gctx, result.Entry(), cmd.CompanyID, cmd.Currency)
		switch {
		case errors.Is(err, drafts.ErrUnmappable):
			result.MappingError = err.Error()
		case err != nil:
			return fmt.Errorf("map draft: %w", err)
		default:
			result.Draft = draft
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	a.logger.InfoContext(
		ctx, "document analyzed",
		"filename", cmd.File.Filename,
		"company_id", cmd.CompanyID,
		"valid", result.Validation.Valid,
		"errors", len(result.Validation.Errors),
		"warnings", len(result.Validation.Warnings),
		"corrected", result.Validation.Corrected != nil,
		"mapped", result.Draft != nil,
	)

	return result, nil
}

func (a *analyzer) archiveSource(ctx context.Context, f uploads.File) string {
	key := buildSourceKey(uuid.New(), f.Filename)

	if err := a.archive.Upload(ctx, key, bytes.NewReader(f.Data), f.ContentType); err != nil {
		a.logger.WarnContext(ctx, "source archive failed", "key", key, "error", err)
		return ""
	}

	return key
}

// SourcePrefix is the blob key prefix of every archived upload.
const SourcePrefix = "sources/"

func buildSourceKey(id uuid.UUID, filename string) string {
	return fmt.Sprintf("%s%s/%s", SourcePrefix, id, sanitizeFilename(filename))
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	if name == "." || name == "/" || name == "" {
		name = "document"
	}
	return url.PathEscape(name)
}
