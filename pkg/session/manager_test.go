package session_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/vitae/pkg/adapters/memory"
	"github.com/aretw0/vitae/pkg/domain"
	"github.com/aretw0/vitae/pkg/identity"
	"github.com/aretw0/vitae/pkg/ports"
	"github.com/aretw0/vitae/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	*memory.Store
}

func (s SlowStore) Save(ctx context.Context, sess *domain.Session) error {
	time.Sleep(2 * time.Millisecond)
	return s.Store.Save(ctx, sess)
}

func (s SlowStore) Load(ctx context.Context, id string) (*domain.Session, error) {
	time.Sleep(2 * time.Millisecond)
	return s.Store.Load(ctx, id)
}

func counter() identity.Generator {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("n%d", n)
	}
}

func cv() *domain.Document {
	return &domain.Document{
		Name:     "Ada",
		Subtitle: "Engineer",
		MainColumn: []domain.Section{
			{Title: "Experience", Paragraphs: []domain.Paragraph{{Text: "Built engines"}}},
			{Title: "Education"},
		},
		SideColumn: []domain.Section{
			{Title: "Skills", BulletPoints: []domain.BulletPoint{{Text: "Go"}, {Text: "Math"}}},
		},
	}
}

func newManager(t *testing.T, opts ...session.Option) (*session.Manager, *memory.Loader) {
	t.Helper()
	loader := memory.NewFromDocuments(map[string]*domain.Document{
		"en": cv(),
		"pt": {
			Name:     "Ada",
			Subtitle: "Engenheira",
			MainColumn: []domain.Section{
				{Title: "Experiência", Paragraphs: []domain.Paragraph{{Text: "Construiu motores"}}},
				{Title: "Educação"},
			},
		},
	})
	opts = append([]session.Option{session.WithLoader(loader), session.WithGenerator(counter())}, opts...)
	return session.NewManager(memory.NewStore(), opts...), loader
}

func TestManager_StartStampsIDs(t *testing.T) {
	mgr, _ := newManager(t)
	ctx := context.Background()

	sess, err := mgr.Start(ctx, "en")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "en", sess.Locale)
	assert.False(t, sess.HasChanges)
	assert.Equal(t, sess.Original, sess.Current)
	assert.NotEmpty(t, sess.Current.MainColumn[0].Paragraphs[0].ID)

	ids, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, sess.ID)
}

func TestManager_StartErrors(t *testing.T) {
	mgr, _ := newManager(t)
	_, err := mgr.Start(context.Background(), "fr")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)

	bare := session.NewManager(memory.NewStore())
	_, err = bare.Start(context.Background(), "en")
	assert.ErrorIs(t, err, session.ErrNoLoader)
}

func TestManager_EditAnalyzeReset(t *testing.T) {
	mgr, _ := newManager(t)
	ctx := context.Background()
	sess, err := mgr.Start(ctx, "en")
	require.NoError(t, err)

	removedKey := sess.Original.MainColumn[1].ID
	modifiedKey := sess.Original.MainColumn[0].ID

	_, err = mgr.SetValue(ctx, sess.ID, domain.At(domain.MainColumn, 0).Title(), "Work")
	require.NoError(t, err)
	_, removed, err := mgr.RemoveElement(ctx, sess.ID, domain.At(domain.MainColumn, 1).Path())
	require.NoError(t, err)
	assert.True(t, removed)

	cs, err := mgr.Analyze(ctx, sess.ID)
	require.NoError(t, err)
	assert.True(t, cs.HasChanges)
	assert.Equal(t, []string{removedKey}, cs.RemovedSections.Sorted())
	assert.Equal(t, []string{modifiedKey}, cs.ModifiedSections.Sorted())

	view, err := mgr.View(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, view.MainColumn, 2)
	assert.True(t, view.MainColumn[1].IsDeleted)

	changes, err := mgr.TextChanges(ctx, sess.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, changes)

	reset, err := mgr.Reset(ctx, sess.ID)
	require.NoError(t, err)
	assert.False(t, reset.HasChanges)

	cs, err = mgr.Analyze(ctx, sess.ID)
	require.NoError(t, err)
	assert.True(t, cs.IsEmpty())
	assert.False(t, cs.HasChanges)
}

func TestManager_StaleRemoveIsNoOp(t *testing.T) {
	mgr, _ := newManager(t)
	ctx := context.Background()
	sess, err := mgr.Start(ctx, "en")
	require.NoError(t, err)

	after, removed, err := mgr.RemoveElement(ctx, sess.ID, domain.NewPath("mainColumn", 9))
	require.NoError(t, err)
	assert.False(t, removed)
	assert.False(t, after.HasChanges)
}

func TestManager_InvalidValueLeavesSession(t *testing.T) {
	mgr, _ := newManager(t)
	ctx := context.Background()
	sess, err := mgr.Start(ctx, "en")
	require.NoError(t, err)

	_, err = mgr.SetValue(ctx, sess.ID, domain.At(domain.MainColumn, 0).Title(), map[string]any{"nested": true})
	assert.ErrorIs(t, err, domain.ErrInvalidValue)

	loaded, err := mgr.Load(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.Current, loaded.Current)
	assert.False(t, loaded.HasChanges)
}

func TestManager_UnknownSession(t *testing.T) {
	mgr, _ := newManager(t)
	_, err := mgr.SetValue(context.Background(), "missing", domain.NamePath(), "x")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_ConcurrentEditsAreSerialised(t *testing.T) {
	store := SlowStore{memory.NewStore()}
	mgr := session.NewManager(store, session.WithGenerator(counter()))
	ctx := context.Background()

	sess, err := mgr.Create(ctx, "race", "en", &domain.Document{})
	require.NoError(t, err)

	const writers = 10
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := mgr.SetValue(ctx, sess.ID, domain.At(domain.SideColumn, i).Title(), fmt.Sprintf("S%d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	loaded, err := mgr.Load(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Current.SideColumn, writers)
	for i, sec := range loaded.Current.SideColumn {
		assert.Equal(t, fmt.Sprintf("S%d", i), sec.Title, "no lost update at %d", i)
	}
}

func TestManager_RewriteGuard(t *testing.T) {
	mgr, _ := newManager(t)
	ctx := context.Background()
	sess, err := mgr.Start(ctx, "en")
	require.NoError(t, err)

	token, snapshot, err := mgr.BeginRewrite(ctx, sess.ID, "make it punchier")
	require.NoError(t, err)
	assert.Equal(t, sess.Current, snapshot)

	_, _, err = mgr.BeginRewrite(ctx, sess.ID, "again")
	assert.ErrorIs(t, err, domain.ErrRewriteInFlight)

	_, err = mgr.SetValue(ctx, sess.ID, domain.NamePath(), "Grace")
	assert.ErrorIs(t, err, domain.ErrRewriteInFlight, "user edits wait for the rewrite")

	_, _, err = mgr.CompleteRewrite(ctx, sess.ID, "wrong-token", snapshot)
	assert.ErrorIs(t, err, domain.ErrNoRewriteInFlight)

	// The collaborator drops every ID and rewrites one paragraph.
	rewritten := snapshot.Clone()
	rewritten.MainColumn[0].Paragraphs[0].Text = "Designed and built engines"
	stripIDs(rewritten)

	updated, warnings, err := mgr.CompleteRewrite(ctx, sess.ID, token, rewritten)
	require.NoError(t, err)
	assert.NotEmpty(t, warnings)
	for _, w := range warnings {
		assert.Equal(t, identity.WarnMissingID, w.Kind)
	}
	assert.True(t, updated.HasChanges)
	assert.Nil(t, updated.Rewrite)

	cs, err := mgr.Analyze(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{sess.Original.MainColumn[0].ID}, cs.ModifiedSections.Sorted(), "re-stamped nodes still match the baseline")
	assert.Empty(t, cs.AddedSections)
	assert.Empty(t, cs.RemovedSections)

	_, err = mgr.SetValue(ctx, sess.ID, domain.NamePath(), "Grace")
	assert.NoError(t, err, "guard released")
}

func TestManager_AbandonRewrite(t *testing.T) {
	mgr, _ := newManager(t)
	ctx := context.Background()
	sess, err := mgr.Start(ctx, "en")
	require.NoError(t, err)

	token, _, err := mgr.BeginRewrite(ctx, sess.ID, "")
	require.NoError(t, err)
	require.NoError(t, mgr.AbandonRewrite(ctx, sess.ID, token))
	assert.ErrorIs(t, mgr.AbandonRewrite(ctx, sess.ID, token), domain.ErrNoRewriteInFlight)

	loaded, err := mgr.Load(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.Current, loaded.Current)
	assert.False(t, loaded.HasChanges)
}

func TestManager_ExpiredTicketIsReleased(t *testing.T) {
	mgr, _ := newManager(t, session.WithRewriteTimeout(time.Nanosecond))
	ctx := context.Background()
	sess, err := mgr.Start(ctx, "en")
	require.NoError(t, err)

	_, _, err = mgr.BeginRewrite(ctx, sess.ID, "")
	require.NoError(t, err)
	time.Sleep(time.Millisecond)

	_, _, err = mgr.BeginRewrite(ctx, sess.ID, "")
	assert.NoError(t, err)
}

func TestManager_RewriteRoundTrip(t *testing.T) {
	mgr, _ := newManager(t)
	ctx := context.Background()
	sess, err := mgr.Start(ctx, "en")
	require.NoError(t, err)

	upper := ports.RewriterFunc(func(ctx context.Context, doc *domain.Document, instruction string) (*domain.Document, error) {
		out := doc.Clone()
		out.Subtitle = instruction
		return out, nil
	})
	updated, warnings, err := mgr.Rewrite(ctx, sess.ID, upper, "Principal Engineer")
	require.NoError(t, err)
	assert.Empty(t, warnings, "IDs preserved by the rewriter")
	assert.Equal(t, "Principal Engineer", updated.Current.Subtitle)

	failing := ports.RewriterFunc(func(ctx context.Context, doc *domain.Document, instruction string) (*domain.Document, error) {
		return nil, errors.New("model unavailable")
	})
	_, _, err = mgr.Rewrite(ctx, sess.ID, failing, "x")
	require.Error(t, err)

	loaded, err := mgr.Load(ctx, sess.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded.Rewrite, "failed rewrite is abandoned")
	assert.Equal(t, "Principal Engineer", loaded.Current.Subtitle)
}

func TestManager_RewriteEmptyResponseReleasesTicket(t *testing.T) {
	mgr, _ := newManager(t)
	ctx := context.Background()
	sess, err := mgr.Start(ctx, "en")
	require.NoError(t, err)

	empty := ports.RewriterFunc(func(ctx context.Context, doc *domain.Document, instruction string) (*domain.Document, error) {
		return nil, nil
	})
	_, _, err = mgr.Rewrite(ctx, sess.ID, empty, "x")
	require.ErrorIs(t, err, domain.ErrInvalidValue)

	updated, err := mgr.SetValue(ctx, sess.ID, domain.NamePath(), "Grace")
	require.NoError(t, err, "edits resume once the ticket is released")
	assert.Equal(t, "Grace", updated.Current.Name)
	assert.Nil(t, updated.Rewrite)
}

func TestManager_RewriteIsBoundedByTimeout(t *testing.T) {
	mgr, _ := newManager(t, session.WithRewriteTimeout(50*time.Millisecond))
	ctx := context.Background()
	sess, err := mgr.Start(ctx, "en")
	require.NoError(t, err)

	var hasDeadline bool
	slow := ports.RewriterFunc(func(ctx context.Context, doc *domain.Document, instruction string) (*domain.Document, error) {
		_, hasDeadline = ctx.Deadline()
		<-ctx.Done()
		return nil, ctx.Err()
	})
	_, _, err = mgr.Rewrite(ctx, sess.ID, slow, "x")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, hasDeadline)

	loaded, err := mgr.Load(ctx, sess.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded.Rewrite)
}

func TestManager_SwitchLocale(t *testing.T) {
	mgr, _ := newManager(t)
	ctx := context.Background()
	sess, err := mgr.Start(ctx, "en")
	require.NoError(t, err)

	switched, err := mgr.SwitchLocale(ctx, sess.ID, "pt")
	require.NoError(t, err)
	assert.Equal(t, "pt", switched.Locale)
	assert.Equal(t, "Experiência", switched.Current.MainColumn[0].Title)
	assert.Equal(t, sess.Current.MainColumn[0].ID, switched.Current.MainColumn[0].ID, "IDs carried by position")
	assert.Equal(t, sess.Original, switched.Original, "baseline kept")

	_, err = mgr.SwitchLocale(ctx, sess.ID, "fr")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestManager_RestoreOperations(t *testing.T) {
	mgr, _ := newManager(t)
	ctx := context.Background()
	sess, err := mgr.Start(ctx, "en")
	require.NoError(t, err)

	title := domain.At(domain.MainColumn, 0).Title()
	_, err = mgr.SetValue(ctx, sess.ID, title, "Work")
	require.NoError(t, err)
	restored, err := mgr.RestoreField(ctx, sess.ID, title)
	require.NoError(t, err)
	assert.Equal(t, "Experience", restored.Current.MainColumn[0].Title)

	key := sess.Original.SideColumn[0].ID
	_, deleted, err := mgr.DeleteField(ctx, sess.ID, domain.At(domain.SideColumn, 0).Path())
	require.NoError(t, err)
	assert.True(t, deleted)

	_, ok, err := mgr.RestoreSection(ctx, sess.ID, domain.SideColumn, key)
	require.NoError(t, err)
	assert.True(t, ok)

	cs, err := mgr.Analyze(ctx, sess.ID)
	require.NoError(t, err)
	assert.False(t, cs.HasChanges)
}

func TestManager_ReplaceDocumentMarksChanged(t *testing.T) {
	mgr, _ := newManager(t)
	ctx := context.Background()
	sess, err := mgr.Start(ctx, "en")
	require.NoError(t, err)

	replaced, err := mgr.ReplaceDocument(ctx, sess.ID, &domain.Document{Name: "Ada"})
	require.NoError(t, err)
	assert.True(t, replaced.HasChanges)
	assert.Empty(t, replaced.Current.MainColumn)
}

func stripIDs(doc *domain.Document) {
	for _, col := range domain.Columns {
		secs := doc.Sections(col)
		for i := range secs {
			secs[i].ID = ""
			for j := range secs[i].Paragraphs {
				secs[i].Paragraphs[j].ID = ""
			}
			for j := range secs[i].BulletPoints {
				secs[i].BulletPoints[j].ID = ""
			}
			for j := range secs[i].SubSections {
				secs[i].SubSections[j].ID = ""
			}
		}
	}
}
