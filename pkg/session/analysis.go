package session

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/vitae/pkg/diff"
	"github.com/aretw0/vitae/pkg/domain"
	"github.com/aretw0/vitae/pkg/identity"
)

// Analyze classifies the session's changes against its original baseline.
func (m *Manager) Analyze(ctx context.Context, sessionID string) (diff.ChangeSet, error) {
	sess, err := m.Load(ctx, sessionID)
	if err != nil {
		return diff.ChangeSet{}, err
	}

	start := time.Now()
	cs := diff.Analyze(sess.Original, sess.Current)
	m.metrics.Analyzed(time.Since(start), map[string]int{
		"removedSections":     len(cs.RemovedSections),
		"modifiedSections":    len(cs.ModifiedSections),
		"removedSubSections":  len(cs.RemovedSubSections),
		"modifiedSubSections": len(cs.ModifiedSubSections),
		"addedSections":       len(cs.AddedSections),
		"addedSubSections":    len(cs.AddedSubSections),
	})
	return cs, nil
}

// View builds the merged diff view of both columns.
func (m *Manager) View(ctx context.Context, sessionID string) (diff.View, error) {
	sess, err := m.Load(ctx, sessionID)
	if err != nil {
		return diff.View{}, err
	}
	return diff.MergeDocument(sess.Original, sess.Current), nil
}

// TextChanges lists field-level text changes for inline annotation.
func (m *Manager) TextChanges(ctx context.Context, sessionID string) ([]diff.TextChange, error) {
	sess, err := m.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return diff.CompareDocuments(sess.Original, sess.Current), nil
}

// SwitchLocale loads the document for locale and makes it the current one.
// IDs are carried over from the current document by structural position, so
// translated nodes still line up with the original baseline, which is kept.
func (m *Manager) SwitchLocale(ctx context.Context, sessionID, locale string) (*domain.Session, error) {
	if m.loader == nil {
		return nil, ErrNoLoader
	}
	doc, err := m.loader.LoadDocument(ctx, locale)
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	var out *domain.Session
	err = m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		sess, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		if m.rewritePending(sess) {
			return domain.ErrRewriteInFlight
		}

		st := m.editorFor(sess)
		st.ReplaceDocument(identity.RestampWith(sess.Current, doc, m.gen))
		m.apply(sess, st)
		sess.Locale = locale

		if err := m.store.Save(ctx, sess); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		out = sess
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.logger.Info("Switched locale", "session_id", sessionID, "locale", locale)
	return out, nil
}
