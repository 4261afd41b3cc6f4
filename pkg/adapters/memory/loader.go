package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/vitae/pkg/domain"
)

// Loader implements ports.DocumentLoader using an in-memory map keyed by locale.
type Loader struct {
	mu   sync.RWMutex
	docs map[string]*domain.Document
}

// NewLoader creates a Loader from raw JSON documents keyed by locale.
func NewLoader(data map[string]string) (*Loader, error) {
	docs := make(map[string]*domain.Document, len(data))
	for locale, raw := range data {
		var doc domain.Document
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("failed to parse document %s: %w", locale, err)
		}
		docs[locale] = &doc
	}
	return &Loader{docs: docs}, nil
}

// NewFromDocuments creates a Loader from domain objects.
func NewFromDocuments(docs map[string]*domain.Document) *Loader {
	l := &Loader{docs: make(map[string]*domain.Document, len(docs))}
	for locale, doc := range docs {
		l.docs[locale] = doc.Clone()
	}
	return l
}

// Put registers (or replaces) the document for a locale.
func (l *Loader) Put(locale string, doc *domain.Document) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.docs[locale] = doc.Clone()
}

// LoadDocument returns a copy of the document for locale.
func (l *Loader) LoadDocument(ctx context.Context, locale string) (*domain.Document, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	doc, ok := l.docs[locale]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, locale)
	}
	return doc.Clone(), nil
}

// Locales returns all available locales.
func (l *Loader) Locales(ctx context.Context) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	keys := make([]string, 0, len(l.docs))
	for k := range l.docs {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Deterministic order
	return keys, nil
}
