// Package loam loads locale-specific CV documents from a Loam repository.
//
// A document for locale "en" lives in cv-en.json, cv-en.yaml or cv-en.md (the
// document in the frontmatter). A "locale" key in the document overrides the
// file-name convention.
package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/vitae/pkg/domain"
)

// DocumentPrefix is the file-name prefix of CV documents.
const DocumentPrefix = "cv-"

// Loader adapts a Loam repository to ports.DocumentLoader.
type Loader struct {
	Repo *loam.TypedRepository[CVMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[CVMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// Open initializes a read-only Loam repository at dir and wraps it.
// Strict mode keeps numeric types consistent across JSON, YAML and Markdown.
func Open(dir string, opts ...loam.Option) (*Loader, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	all := append([]loam.Option{
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	}, opts...)

	repo, err := loam.Init(absPath, all...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[CVMetadata](repo)), nil
}

// LoadDocument finds the document for locale and decodes it.
func (l *Loader) LoadDocument(ctx context.Context, locale string) (*domain.Document, error) {
	if locale == "" {
		return nil, fmt.Errorf("%w: empty locale", domain.ErrDocumentNotFound)
	}

	// Fast path: the conventional file name.
	if doc, err := l.Repo.Get(ctx, DocumentPrefix+locale); err == nil && localeOf(doc.ID, doc.Data) == locale {
		return decode(doc.ID, doc.Data)
	}

	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}
	for _, doc := range docs {
		if localeOf(doc.ID, doc.Data) == locale {
			return decode(doc.ID, doc.Data)
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, locale)
}

// Locales lists every locale with a document, sorted.
func (l *Loader) Locales(ctx context.Context) ([]string, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	locales := make([]string, 0, len(docs))
	for _, doc := range docs {
		locale := localeOf(doc.ID, doc.Data)
		if locale == "" {
			continue
		}
		if existing, ok := seen[locale]; ok {
			return nil, fmt.Errorf("collision detected: locale '%s' is defined in both '%s' and '%s'", locale, existing, doc.ID)
		}
		seen[locale] = doc.ID
		locales = append(locales, locale)
	}
	sort.Strings(locales)
	return locales, nil
}

func decode(id string, meta CVMetadata) (*domain.Document, error) {
	doc, err := domain.DecodeDocument(meta.tree())
	if err != nil {
		return nil, fmt.Errorf("invalid document %s: %w", id, err)
	}
	return doc, nil
}

// localeOf returns the explicit locale, else the one encoded in the file
// name, else "" for files that are not CV documents.
func localeOf(docID string, meta CVMetadata) string {
	if meta.Locale != "" {
		return meta.Locale
	}
	name := trimExtension(meta.ID)
	if name == "" {
		name = trimExtension(docID)
	}
	name = filepath.Base(filepath.FromSlash(name))
	if !strings.HasPrefix(name, DocumentPrefix) {
		return ""
	}
	return strings.TrimPrefix(name, DocumentPrefix)
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
