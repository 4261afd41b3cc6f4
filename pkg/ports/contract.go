package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/vitae/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore
// implementation adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	fixture := func(id string) *domain.Session {
		doc := &domain.Document{
			Name: "Ada",
			MainColumn: []domain.Section{{
				ID:         "s1",
				Title:      "Experience",
				Subtitles:  &domain.Subtitles{Left: "2019", Right: "2024"},
				Paragraphs: []domain.Paragraph{{ID: "p1", Text: "Built things"}},
				SubSections: []domain.SubSection{{
					ID:           "ss1",
					Title:        "Acme",
					BulletPoints: []domain.BulletPoint{{ID: "b1", IconName: "link", Text: "acme.io", URL: "https://acme.io"}},
				}},
			}},
		}
		return domain.NewSession(id, "en", doc)
	}

	t.Run("Save and Load", func(t *testing.T) {
		session := fixture(sessionID)
		session.Current.MainColumn[0].Title = "Work"
		session.HasChanges = true
		session.Rewrite = &domain.RewriteTicket{Token: "tok", Instruction: "shorter", StartedAt: time.Now().UTC()}

		err := store.Save(ctx, session)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, session.Original, loaded.Original)
		assert.Equal(t, session.Current, loaded.Current)
		assert.Equal(t, "en", loaded.Locale)
		assert.True(t, loaded.HasChanges)
		require.NotNil(t, loaded.Rewrite)
		assert.Equal(t, "tok", loaded.Rewrite.Token)
	})

	t.Run("Load Returns A Copy", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, fixture(sessionID)))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.Current.Name = "changed outside"

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "Ada", again.Current.Name)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, fixture(sessionID)))

		err := store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, sessionID), "Deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, fixture(id1)))
		require.NoError(t, store.Save(ctx, fixture(id2)))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
