package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/vitae/internal/logging"
	"github.com/aretw0/vitae/pkg/adapters/memory"
	"github.com/aretw0/vitae/pkg/domain"
	"github.com/aretw0/vitae/pkg/sanitize"
	"github.com/aretw0/vitae/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	loader := memory.NewFromDocuments(map[string]*domain.Document{
		"en": {
			Name: "Ada",
			MainColumn: []domain.Section{
				{Title: "Experience", Paragraphs: []domain.Paragraph{{Text: "Built engines"}}},
			},
			SideColumn: []domain.Section{
				{Title: "Skills", BulletPoints: []domain.BulletPoint{{Text: "Go"}}},
			},
		},
	})
	mgr := session.NewManager(memory.NewStore(), session.WithLoader(loader))
	return NewServer(mgr, "test\n", logging.NewNop())
}

func start(t *testing.T, s *Server) *domain.Session {
	t.Helper()
	resp, err := s.handleStart(context.Background(), mcp.CallToolRequest{}, StartArgs{Locale: "en"})
	require.NoError(t, err)
	require.NotNil(t, resp.Session)
	return resp.Session
}

func TestTools_EditAndAnalyze(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	sess := start(t, s)
	req := mcp.CallToolRequest{}

	resp, err := s.handleSetField(ctx, req, PathArgs{
		SessionID: sess.ID,
		Path:      []any{"mainColumn", float64(0), "paragraphs", float64(0), "text"},
		Value:     "Built analytical engines",
	})
	require.NoError(t, err)
	assert.True(t, resp.Session.HasChanges)

	cs, err := s.handleAnalyze(ctx, req, SessionArgs{SessionID: sess.ID})
	require.NoError(t, err)
	assert.True(t, cs.ModifiedSections.Has(sess.Original.MainColumn[0].ID))

	tc, err := s.handleTextChanges(ctx, req, SessionArgs{SessionID: sess.ID})
	require.NoError(t, err)
	require.Len(t, tc.Changes, 1)
	assert.Equal(t, "Built engines", tc.Changes[0].OriginalText)
	assert.Equal(t, "Built analytical engines", tc.Changes[0].NewText)

	_, err = s.handleRestoreField(ctx, req, PathArgs{
		SessionID: sess.ID,
		Path:      []any{"mainColumn", float64(0), "paragraphs", float64(0), "text"},
	})
	require.NoError(t, err)

	cs, err = s.handleAnalyze(ctx, req, SessionArgs{SessionID: sess.ID})
	require.NoError(t, err)
	assert.True(t, cs.IsEmpty())
}

func TestTools_SetFieldJSONValue(t *testing.T) {
	s := newTestServer(t)
	sess := start(t, s)

	resp, err := s.handleSetField(context.Background(), mcp.CallToolRequest{}, PathArgs{
		SessionID: sess.ID,
		Path:      []any{"sideColumn", float64(0), "bulletPoints", float64(1)},
		ValueJSON: `{"text":"Rust","iconName":"gear"}`,
	})
	require.NoError(t, err)

	bullets := resp.Session.Current.SideColumn[0].BulletPoints
	require.Len(t, bullets, 2)
	assert.Equal(t, "Rust", bullets[1].Text)
	assert.NotEmpty(t, bullets[1].ID)

	_, err = s.handleSetField(context.Background(), mcp.CallToolRequest{}, PathArgs{
		SessionID: sess.ID,
		Path:      []any{"name"},
		ValueJSON: `{broken`,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidValue)
}

func TestTools_RejectBadInput(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	sess := start(t, s)
	req := mcp.CallToolRequest{}

	_, err := s.handleRemove(ctx, req, PathArgs{SessionID: sess.ID, Path: []any{"footer"}})
	assert.ErrorIs(t, err, domain.ErrInvalidPath)

	_, err = s.handleRestoreSection(ctx, req, RestoreSectionArgs{SessionID: sess.ID, Column: "footer", Key: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidPath)

	_, err = s.handleReset(ctx, req, SessionArgs{SessionID: "missing"})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = s.handleSetField(ctx, req, PathArgs{SessionID: sess.ID, Path: []any{"mainColumn", float64(domain.MaxIndex + 1), "title"}, Value: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidPath)
}

func TestTools_AbandonRewrite(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	sess := start(t, s)
	req := mcp.CallToolRequest{}

	begun, err := s.handleBeginRewrite(ctx, req, RewriteArgs{SessionID: sess.ID})
	require.NoError(t, err)

	_, err = s.handleSetField(ctx, req, PathArgs{SessionID: sess.ID, Path: []any{"name"}, Value: "Grace"})
	require.ErrorIs(t, err, domain.ErrRewriteInFlight)

	abandoned, err := s.handleAbandonRewrite(ctx, req, RewriteArgs{SessionID: sess.ID, Token: begun.Token})
	require.NoError(t, err)
	assert.Nil(t, abandoned.Session.Rewrite)
	assert.Equal(t, "Ada", abandoned.Session.Current.Name)

	_, err = s.handleAbandonRewrite(ctx, req, RewriteArgs{SessionID: sess.ID, Token: begun.Token})
	assert.ErrorIs(t, err, domain.ErrNoRewriteInFlight)

	_, err = s.handleSetField(ctx, req, PathArgs{SessionID: sess.ID, Path: []any{"name"}, Value: "Grace"})
	assert.NoError(t, err)
}

func TestTools_RemoveAndRestoreSection(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	sess := start(t, s)
	req := mcp.CallToolRequest{}
	key := sess.Original.SideColumn[0].ID

	removed, err := s.handleRemove(ctx, req, PathArgs{SessionID: sess.ID, Path: []any{"sideColumn", float64(0)}})
	require.NoError(t, err)
	assert.True(t, removed.Applied)

	view, err := s.handleView(ctx, req, SessionArgs{SessionID: sess.ID})
	require.NoError(t, err)
	require.Len(t, view.SideColumn, 1)
	assert.True(t, view.SideColumn[0].IsDeleted)

	restored, err := s.handleRestoreSection(ctx, req, RestoreSectionArgs{SessionID: sess.ID, Column: "sideColumn", Key: key})
	require.NoError(t, err)
	assert.True(t, restored.Applied)

	stale, err := s.handleRemove(ctx, req, PathArgs{SessionID: sess.ID, Path: []any{"sideColumn", float64(7)}})
	require.NoError(t, err)
	assert.False(t, stale.Applied)
}

func TestTools_RewriteRoundTrip(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	sess := start(t, s)
	req := mcp.CallToolRequest{}

	begun, err := s.handleBeginRewrite(ctx, req, RewriteArgs{SessionID: sess.ID, Instruction: "more formal"})
	require.NoError(t, err)
	require.NotEmpty(t, begun.Token)

	rewritten := begun.Snapshot.Clone()
	rewritten.MainColumn[0].Title = "Professional Experience"
	rewritten.MainColumn[0].ID = ""
	data, err := json.Marshal(rewritten)
	require.NoError(t, err)

	_, err = s.handleCompleteRewrite(ctx, req, RewriteArgs{SessionID: sess.ID, Token: "wrong", Document: string(data)})
	assert.ErrorIs(t, err, domain.ErrNoRewriteInFlight)

	done, err := s.handleCompleteRewrite(ctx, req, RewriteArgs{SessionID: sess.ID, Token: begun.Token, Document: string(data)})
	require.NoError(t, err)
	assert.NotEmpty(t, done.Warnings, "missing ID is reported")
	assert.Equal(t, begun.Snapshot.MainColumn[0].ID, done.Session.Current.MainColumn[0].ID, "IDs are carried over")
	assert.Equal(t, "Professional Experience", done.Session.Current.MainColumn[0].Title)

	_, err = s.handleCompleteRewrite(ctx, req, RewriteArgs{SessionID: sess.ID, Token: begun.Token, Document: "not json"})
	assert.ErrorIs(t, err, domain.ErrInvalidValue)
}

func TestTools_SetFieldSanitizesText(t *testing.T) {
	s := newTestServer(t)
	sess := start(t, s)

	resp, err := s.handleSetField(context.Background(), mcp.CallToolRequest{}, PathArgs{
		SessionID: sess.ID,
		Path:      []any{"name"},
		Value:     "Ada\x1b[0m\x00",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada[0m", resp.Session.Current.Name)

	t.Setenv(sanitize.EnvMaxTextSize, "4")
	_, err = s.handleSetField(context.Background(), mcp.CallToolRequest{}, PathArgs{
		SessionID: sess.ID,
		Path:      []any{"name"},
		Value:     "Augusta",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidValue)
}
