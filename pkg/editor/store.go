// Package editor holds the live, path-addressed "current" document of an
// editing session next to its frozen "original" baseline.
package editor

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/vitae/internal/logging"
	"github.com/aretw0/vitae/pkg/domain"
	"github.com/aretw0/vitae/pkg/identity"
)

// Store owns the single mutable current document.
//
// Operations never fail on structure: paths that do not exist yet are
// created, stale removal paths are ignored. The only error is a value whose
// shape cannot live at its target (e.g. a list where a title goes), in which
// case the document is left untouched.
//
// Store is not safe for concurrent use; callers serialise access (see the
// session package).
type Store struct {
	original   *domain.Document
	current    *domain.Document
	hasChanges bool
	gen        identity.Generator
	logger     *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithGenerator overrides the ID generator (tests use a deterministic one).
func WithGenerator(gen identity.Generator) Option {
	return func(s *Store) {
		s.gen = gen
	}
}

// WithLogger configures a logger for mutation events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New starts a store from a freshly loaded document. The document goes
// through the identity assigner, then is frozen as the original baseline and
// cloned as the current copy.
func New(doc *domain.Document, opts ...Option) *Store {
	s := newStore(opts)
	if doc == nil {
		doc = &domain.Document{}
	}
	stamped := identity.EnsureIDsWith(doc, s.gen)
	s.original = stamped.Clone()
	s.current = stamped.Clone()
	return s
}

// Restore rebuilds a store from persisted state. original may be nil when
// no baseline exists yet.
func Restore(original, current *domain.Document, hasChanges bool, opts ...Option) *Store {
	s := newStore(opts)
	if current == nil {
		current = &domain.Document{}
	}
	s.original = original.Clone()
	s.current = current.Clone()
	s.hasChanges = hasChanges
	return s
}

func newStore(opts []Option) *Store {
	s := &Store{
		gen:    identity.UUID,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Original returns a copy of the frozen baseline (nil when none exists).
func (s *Store) Original() *domain.Document { return s.original.Clone() }

// Current returns a copy of the live document.
func (s *Store) Current() *domain.Document { return s.current.Clone() }

// HasChanges reports whether a mutation happened since the last reset.
func (s *Store) HasChanges() bool { return s.hasChanges }

// SetValueAtPath writes value (a string, a BulletPoint, a SubSection, a
// Section, or a loose map/slice tree) at path, creating missing
// intermediate containers and padding arrays with empty placeholders.
// New nodes receive IDs; existing IDs are untouched.
func (s *Store) SetValueAtPath(path domain.Path, value any) error {
	tree, err := toTree(s.current)
	if err != nil {
		return err
	}
	leaf, err := toTree(value)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidValue, err)
	}
	if len(path) == 0 {
		return fmt.Errorf("%w: empty path", domain.ErrInvalidValue)
	}

	next, err := fromTree(setIn(tree, path, leaf))
	if err != nil {
		s.logger.Warn("Rejected value for path", "path", path.String(), "err", err)
		return err
	}

	s.current = identity.EnsureIDsWith(next, s.gen)
	s.hasChanges = true
	s.logger.Debug("Set value", "path", path.String())
	return nil
}

// RemoveArrayElementAtPath removes the array element addressed by path,
// shifting later elements down by one. It is a no-op (returning false) when
// the path does not resolve to an existing element.
func (s *Store) RemoveArrayElementAtPath(path domain.Path) bool {
	tree, err := toTree(s.current)
	if err != nil {
		return false
	}
	next, removed := removeIn(tree, path)
	if !removed {
		s.logger.Debug("Ignored stale removal path", "path", path.String())
		return false
	}
	doc, err := fromTree(next)
	if err != nil {
		return false
	}
	s.current = doc
	s.hasChanges = true
	s.logger.Debug("Removed element", "path", path.String())
	return true
}

// ReplaceDocument swaps in a whole new current document (after an AI rewrite
// or a language switch). The replacement goes through the identity assigner.
// The change flag is left as is; callers that track it decide.
func (s *Store) ReplaceDocument(doc *domain.Document) {
	if doc == nil {
		doc = &domain.Document{}
	}
	s.current = identity.EnsureIDsWith(doc, s.gen).Clone()
	s.logger.Debug("Replaced document")
}

// MarkChanged sets the change flag without touching the document.
func (s *Store) MarkChanged() { s.hasChanges = true }

// Reset makes current a deep copy of the original and clears the change flag.
// Without a baseline it only clears the flag.
func (s *Store) Reset() {
	if s.original != nil {
		s.current = s.original.Clone()
	}
	s.hasChanges = false
}

// RestoreField copies the original value at path into current. When the
// original has nothing there, the field is deleted from current instead.
func (s *Store) RestoreField(path domain.Path) error {
	if s.original == nil {
		return nil
	}
	origTree, err := toTree(s.original)
	if err != nil {
		return err
	}
	value, ok := getIn(origTree, path)
	if !ok {
		s.DeleteField(path)
		return nil
	}
	return s.SetValueAtPath(path, value)
}

// DeleteField removes an array element (index paths) or clears a field (key
// paths). Missing targets are ignored.
func (s *Store) DeleteField(path domain.Path) bool {
	last, ok := path.Last()
	if !ok {
		return false
	}
	if last.IsIndex() {
		return s.RemoveArrayElementAtPath(path)
	}

	tree, err := toTree(s.current)
	if err != nil {
		return false
	}
	next, deleted := deleteKeyIn(tree, path)
	if !deleted {
		return false
	}
	doc, err := fromTree(next)
	if err != nil {
		return false
	}
	s.current = doc
	s.hasChanges = true
	s.logger.Debug("Deleted field", "path", path.String())
	return true
}

// RestoreSection re-inserts a removed original section (identified by its
// ID or positional key) into current at min(original index, len(current)).
// It returns false when the key names no original section or the section
// already survives in current.
func (s *Store) RestoreSection(column domain.Column, key string) bool {
	if s.original == nil {
		return false
	}
	sections := s.original.Sections(column)
	for i, sec := range sections {
		if sec.ID != key && !(sec.ID == "" && key == fmt.Sprintf("%s-%d", column, i)) {
			continue
		}
		current := s.current.Sections(column)
		if sec.ID != "" {
			for _, c := range current {
				if c.ID == sec.ID {
					return false
				}
			}
		}
		pos := i
		if pos > len(current) {
			pos = len(current)
		}
		next := make([]domain.Section, 0, len(current)+1)
		next = append(next, current[:pos]...)
		next = append(next, sec.Clone())
		next = append(next, current[pos:]...)
		s.current.SetSections(column, next)
		s.hasChanges = true
		return true
	}
	return false
}
