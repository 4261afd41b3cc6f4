package middleware_test

import (
	"context"
	"sort"

	"github.com/aretw0/vitae/pkg/domain"
	"github.com/aretw0/vitae/pkg/ports"
)

// MockStore keeps exactly what it was given, so tests can inspect what
// a middleware handed down.
type MockStore struct {
	data map[string]*domain.Session
}

func NewMockStore() *MockStore {
	return &MockStore{data: make(map[string]*domain.Session)}
}

func (s *MockStore) Save(ctx context.Context, session *domain.Session) error {
	s.data[session.ID] = session
	return nil
}

func (s *MockStore) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (s *MockStore) Delete(ctx context.Context, sessionID string) error {
	delete(s.data, sessionID)
	return nil
}

func (s *MockStore) List(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

var _ ports.SessionStore = (*MockStore)(nil)

func contactSession(id string) *domain.Session {
	return domain.NewSession(id, "en", &domain.Document{
		Name: "Ada",
		SideColumn: []domain.Section{{
			ID:    "contact",
			Title: "Contact",
			BulletPoints: []domain.BulletPoint{
				{ID: "b1", IconName: "phone", Text: "+44 20 7946 0000"},
				{ID: "b2", IconName: "mail", Text: "ada@example.org", URL: "mailto:ada@example.org"},
				{ID: "b3", IconName: "github", Text: "ada", URL: "https://github.com/ada"},
			},
			SubSections: []domain.SubSection{{
				ID:           "ss1",
				BulletPoints: []domain.BulletPoint{{ID: "b4", IconName: "phone-mobile", Text: "+44 7700 900000"}},
			}},
		}},
	})
}
