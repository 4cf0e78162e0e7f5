package statement

import (
	"context"

	billingapp "github.com/society/backend/internal/application/billing"
)

// Renderer composes a statement and prints it to PDF
type Renderer struct {
	composer *Composer
	engine   PDFEngine
}

// NewRenderer creates a renderer
func NewRenderer(composer *Composer, engine PDFEngine) *Renderer {
	return &Renderer{composer: composer, engine: engine}
}

// Render implements billingapp.StatementRenderer
func (r *Renderer) Render(ctx context.Context, st billingapp.Statement) ([]byte, error) {
	html, err := r.composer.Compose(st)
	if err != nil {
		return nil, err
	}
	return r.engine.RenderPDF(ctx, html)
}

// Close releases the PDF engine
func (r *Renderer) Close() error {
	return r.engine.Close()
}

var _ billingapp.StatementRenderer = (*Renderer)(nil)
