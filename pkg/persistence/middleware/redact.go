package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/vitae/pkg/domain"
	"github.com/aretw0/vitae/pkg/ports"
)

// Mask replaces redacted text.
const Mask = "***"

type redactMiddleware struct {
	next     ports.SessionStore
	patterns []*regexp.Regexp
}

// NewRedactMiddleware masks the text and URL of every bullet point whose
// icon name matches one of patterns (e.g. "phone", "mail") before the session
// reaches the store. The caller's session is left untouched.
func NewRedactMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redact pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &redactMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *redactMiddleware) Save(ctx context.Context, session *domain.Session) error {
	cloned := session.Clone()
	m.redact(cloned.Original)
	m.redact(cloned.Current)
	return m.next.Save(ctx, cloned)
}

func (m *redactMiddleware) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *redactMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *redactMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *redactMiddleware) redact(doc *domain.Document) {
	if doc == nil {
		return
	}
	for _, col := range [][]domain.Section{doc.MainColumn, doc.SideColumn} {
		for i := range col {
			m.maskBullets(col[i].BulletPoints)
			for j := range col[i].SubSections {
				m.maskBullets(col[i].SubSections[j].BulletPoints)
			}
		}
	}
}

func (m *redactMiddleware) maskBullets(bullets []domain.BulletPoint) {
	for i := range bullets {
		if !m.matches(bullets[i].IconName) {
			continue
		}
		bullets[i].Text = Mask
		if bullets[i].URL != "" {
			bullets[i].URL = Mask
		}
	}
}

func (m *redactMiddleware) matches(icon string) bool {
	if icon == "" {
		return false
	}
	for _, p := range m.patterns {
		if p.MatchString(icon) {
			return true
		}
	}
	return false
}
