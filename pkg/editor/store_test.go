package editor

import (
	"fmt"
	"testing"

	"github.com/aretw0/vitae/pkg/diff"
	"github.com/aretw0/vitae/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq() Option {
	n := 0
	return WithGenerator(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	})
}

func fixture() *domain.Document {
	return &domain.Document{
		Name:     "Ada",
		Subtitle: "Engineer",
		MainColumn: []domain.Section{
			{
				Title: "Experience",
				Paragraphs: []domain.Paragraph{
					{Text: "P0"}, {Text: "P1"}, {Text: "P2"},
				},
				SubSections: []domain.SubSection{
					{Title: "Acme", BulletPoints: []domain.BulletPoint{{Text: "shipped", IconName: "rocket"}}},
				},
			},
		},
		SideColumn: []domain.Section{{Title: "Skills"}},
	}
}

func TestNew_StampsAndFreezes(t *testing.T) {
	s := New(fixture(), seq())

	assert.NotEmpty(t, s.Current().MainColumn[0].ID)
	assert.Equal(t, s.Original(), s.Current())
	assert.False(t, s.HasChanges())

	cur := s.Current()
	cur.Name = "mutated copy"
	assert.Equal(t, "Ada", s.Current().Name, "accessors return copies")
}

func TestSetValueAtPath_PadsArrays(t *testing.T) {
	s := New(fixture(), seq())

	err := s.SetValueAtPath(domain.NewPath("mainColumn", 3, "title"), "Hello")
	require.NoError(t, err)

	cur := s.Current()
	require.Len(t, cur.MainColumn, 4)
	assert.Equal(t, "Experience", cur.MainColumn[0].Title)
	assert.False(t, cur.MainColumn[1].HasContent())
	assert.False(t, cur.MainColumn[2].HasContent())
	assert.Equal(t, "Hello", cur.MainColumn[3].Title)
	assert.True(t, s.HasChanges())
}

func TestSetValueAtPath_CreatesIntermediates(t *testing.T) {
	s := New(&domain.Document{}, seq())

	ref := domain.At(domain.SideColumn, 0).SubSection(1)
	require.NoError(t, s.SetValueAtPath(ref.LeftSubtitle(), "2019"))

	cur := s.Current()
	require.Len(t, cur.SideColumn, 1)
	require.Len(t, cur.SideColumn[0].SubSections, 2)
	require.NotNil(t, cur.SideColumn[0].SubSections[1].Subtitles)
	assert.Equal(t, "2019", cur.SideColumn[0].SubSections[1].Subtitles.Left)
}

func TestSetValueAtPath_TypedValues(t *testing.T) {
	s := New(fixture(), seq())
	base := domain.At(domain.MainColumn, 0)

	require.NoError(t, s.SetValueAtPath(base.BulletPoint(0).Path(), domain.BulletPoint{IconName: "star", Text: "Go", URL: "https://go.dev"}))
	require.NoError(t, s.SetValueAtPath(base.SubSection(1).Path(), domain.SubSection{Title: "Beta"}))

	cur := s.Current()
	require.Len(t, cur.MainColumn[0].BulletPoints, 1)
	assert.Equal(t, "https://go.dev", cur.MainColumn[0].BulletPoints[0].URL)
	assert.NotEmpty(t, cur.MainColumn[0].BulletPoints[0].ID, "new nodes receive IDs")
	assert.Equal(t, "Beta", cur.MainColumn[0].SubSections[1].Title)
}

func TestSetValueAtPath_PreservesIDs(t *testing.T) {
	s := New(fixture(), seq())
	before := s.Current().MainColumn[0].Paragraphs[1].ID

	require.NoError(t, s.SetValueAtPath(domain.At(domain.MainColumn, 0).Paragraph(1).Text(), "rewritten"))

	after := s.Current().MainColumn[0].Paragraphs[1]
	assert.Equal(t, before, after.ID)
	assert.Equal(t, "rewritten", after.Text)
}

func TestSetValueAtPath_RejectsWrongShape(t *testing.T) {
	s := New(fixture(), seq())
	before := s.Current()

	err := s.SetValueAtPath(domain.At(domain.MainColumn, 0).Title(), []string{"not", "a", "title"})
	assert.ErrorIs(t, err, domain.ErrInvalidValue)
	assert.Equal(t, before, s.Current())
	assert.False(t, s.HasChanges())
}

func TestRemoveArrayElementAtPath_ShiftsIndices(t *testing.T) {
	s := New(fixture(), seq())
	orig := s.Current().MainColumn[0].Paragraphs

	ok := s.RemoveArrayElementAtPath(domain.NewPath("mainColumn", 0, "paragraphs", 1))
	require.True(t, ok)

	got := s.Current().MainColumn[0].Paragraphs
	assert.Equal(t, []domain.Paragraph{orig[0], orig[2]}, got)
	assert.True(t, s.HasChanges())
}

func TestRemoveArrayElementAtPath_StalePathsAreNoOps(t *testing.T) {
	s := New(fixture(), seq())
	before := s.Current()

	paths := []domain.Path{
		domain.NewPath("mainColumn", 0, "paragraphs", 9),
		domain.NewPath("mainColumn", 5, "paragraphs", 0),
		domain.NewPath("mainColumn", 0, "title"),
		domain.NewPath("sideColumn", 0, "bulletPoints", 0),
		{},
	}
	for _, p := range paths {
		assert.False(t, s.RemoveArrayElementAtPath(p), "path %s", p)
	}
	assert.Equal(t, before, s.Current())
	assert.False(t, s.HasChanges())
}

func TestReplaceDocument_StampsIDs(t *testing.T) {
	s := New(fixture(), seq())
	s.ReplaceDocument(&domain.Document{MainColumn: []domain.Section{{Title: "Only"}}})

	cur := s.Current()
	require.Len(t, cur.MainColumn, 1)
	assert.NotEmpty(t, cur.MainColumn[0].ID)
}

func TestReset_RestoresExactly(t *testing.T) {
	s := New(fixture(), seq())
	base := domain.At(domain.MainColumn, 0)

	require.NoError(t, s.SetValueAtPath(base.Title(), "Work"))
	require.NoError(t, s.SetValueAtPath(domain.NewPath("sideColumn", 4, "title"), "Padding"))
	s.RemoveArrayElementAtPath(base.Paragraph(0).Path())
	s.RemoveArrayElementAtPath(base.SubSection(0).Path())
	require.True(t, diff.Analyze(s.Original(), s.Current()).HasChanges)

	s.Reset()

	cs := diff.Analyze(s.Original(), s.Current())
	assert.True(t, cs.IsEmpty())
	assert.False(t, cs.HasChanges)
	assert.False(t, s.HasChanges())
	assert.Equal(t, s.Original(), s.Current())
}

func TestRestoreField(t *testing.T) {
	s := New(fixture(), seq())
	base := domain.At(domain.MainColumn, 0)

	require.NoError(t, s.SetValueAtPath(base.Paragraph(1).Text(), "changed"))
	require.NoError(t, s.SetValueAtPath(base.RightSubtitle(), "added later"))

	require.NoError(t, s.RestoreField(base.Paragraph(1).Text()))
	require.NoError(t, s.RestoreField(base.RightSubtitle()))

	cur := s.Current()
	assert.Equal(t, "P1", cur.MainColumn[0].Paragraphs[1].Text)
	require.NotNil(t, cur.MainColumn[0].Subtitles)
	assert.Empty(t, cur.MainColumn[0].Subtitles.Right)
	assert.False(t, diff.Analyze(s.Original(), cur).HasChanges)
}

func TestDeleteField(t *testing.T) {
	s := New(fixture(), seq())
	base := domain.At(domain.MainColumn, 0)

	assert.True(t, s.DeleteField(base.Title()))
	assert.True(t, s.DeleteField(base.Paragraph(0).Path()))
	assert.False(t, s.DeleteField(base.BulletPoint(0).URL()))

	cur := s.Current()
	assert.Empty(t, cur.MainColumn[0].Title)
	assert.Len(t, cur.MainColumn[0].Paragraphs, 2)
}

func TestRestoreSection(t *testing.T) {
	s := New(fixture(), seq())
	key := s.Original().SideColumn[0].ID

	require.True(t, s.RemoveArrayElementAtPath(domain.At(domain.SideColumn, 0).Path()))
	cs := diff.Analyze(s.Original(), s.Current())
	require.True(t, cs.RemovedSections.Has(key))

	assert.True(t, s.RestoreSection(domain.SideColumn, key))
	assert.False(t, s.RestoreSection(domain.SideColumn, key), "already restored")
	assert.False(t, s.RestoreSection(domain.SideColumn, "unknown"))

	assert.False(t, diff.Analyze(s.Original(), s.Current()).HasChanges)
}

func TestRestore_WithoutBaseline(t *testing.T) {
	s := Restore(nil, fixture(), true)
	assert.Nil(t, s.Original())
	require.NoError(t, s.RestoreField(domain.NamePath()))

	s.Reset()
	assert.False(t, s.HasChanges())
	assert.Equal(t, "Ada", s.Current().Name)
}
