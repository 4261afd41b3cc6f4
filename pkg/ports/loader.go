package ports

import (
	"context"

	"github.com/aretw0/vitae/pkg/domain"
)

// DocumentLoader defines how the engine retrieves CV documents.
// This allows the content source (Loam, FS, Memory) to be decoupled.
type DocumentLoader interface {
	// LoadDocument returns the document for a locale.
	// Returns domain.ErrDocumentNotFound if no document exists for it.
	LoadDocument(ctx context.Context, locale string) (*domain.Document, error)

	// Locales lists the locales the loader can supply.
	Locales(ctx context.Context) ([]string, error)
}
