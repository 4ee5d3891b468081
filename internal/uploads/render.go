package uploads

import (
	"context"
	"fmt"
	"os"

	"github.com/JaimeStill/document-context/pkg/config"
	"github.com/JaimeStill/document-context/pkg/document"
	"github.com/JaimeStill/document-context/pkg/image"
)

// DefaultDPI renders at twice the 72 DPI PDF user-space resolution.
const DefaultDPI = 144

type pdfRenderer struct {
	cfg config.ImageConfig
}

// NewPDFRenderer returns a Renderer backed by ImageMagick that produces a
// PNG of the first page at the given DPI.
func NewPDFRenderer(dpi int) Renderer {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &pdfRenderer{
		cfg: config.ImageConfig{
			Format: "png",
			DPI:    dpi,
			Options: map[string]any{
				"background": "white",
			},
		},
	}
}

func (r *pdfRenderer) RenderFirstPage(ctx context.Context, pdf []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp("", "tally-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp pdf: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(pdf); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp pdf: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close temp pdf: %w", err)
	}

	pdfDoc, err := document.OpenPDF(tmp.Name())
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer pdfDoc.Close()

	page, err := pdfDoc.ExtractPage(1)
	if err != nil {
		return nil, fmt.Errorf("extract page 1: %w", err)
	}

	renderer, err := image.NewImageMagickRenderer(r.cfg)
	if err != nil {
		return nil, fmt.Errorf("create renderer: %w", err)
	}

	data, err := page.ToImage(renderer, nil)
	if err != nil {
		return nil, fmt.Errorf("render page 1: %w", err)
	}

	return data, nil
}
