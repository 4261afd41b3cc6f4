package ports

import (
	"context"

	"github.com/aretw0/vitae/pkg/domain"
)

// Rewriter is the AI-rewrite collaborator. It receives the current document and
// an instruction and returns a full replacement. Implementations are not
// required to preserve node IDs; the session manager re-stamps them.
type Rewriter interface {
	Rewrite(ctx context.Context, doc *domain.Document, instruction string) (*domain.Document, error)
}

// RewriterFunc adapts a function to the Rewriter interface.
type RewriterFunc func(ctx context.Context, doc *domain.Document, instruction string) (*domain.Document, error)

// Rewrite calls f.
func (f RewriterFunc) Rewrite(ctx context.Context, doc *domain.Document, instruction string) (*domain.Document, error) {
	return f(ctx, doc, instruction)
}
