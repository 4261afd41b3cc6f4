package identity

import (
	"fmt"
	"testing"

	"github.com/aretw0/vitae/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument() *domain.Document {
	return &domain.Document{
		Name: "Ada",
		MainColumn: []domain.Section{
			{
				Title:        "Experience",
				Paragraphs:   []domain.Paragraph{{Text: "one"}, {ID: "keep-p", Text: "two"}},
				BulletPoints: []domain.BulletPoint{{Text: "Go"}},
				SubSections: []domain.SubSection{
					{Title: "Acme", BulletPoints: []domain.BulletPoint{{Text: "shipped"}}},
				},
			},
		},
		SideColumn: []domain.Section{{ID: "keep-s", Title: "Skills"}},
	}
}

func counter(prefix string) Generator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

func TestEnsureIDs_StampsEveryNode(t *testing.T) {
	doc := EnsureIDs(sampleDocument())

	Walk(doc, func(path domain.Path, id string) {
		assert.NotEmpty(t, id, "node at %s has no ID", path)
	})
	for id, n := range Collect(doc) {
		assert.Equal(t, 1, n, "ID %s is duplicated", id)
	}

	assert.Equal(t, "keep-p", doc.MainColumn[0].Paragraphs[1].ID)
	assert.Equal(t, "keep-s", doc.SideColumn[0].ID)
}

func TestEnsureIDs_DoesNotMutateInput(t *testing.T) {
	in := sampleDocument()
	out := EnsureIDs(in)

	assert.NotSame(t, in, out)
	assert.Empty(t, in.MainColumn[0].ID)
	assert.Empty(t, in.MainColumn[0].Paragraphs[0].ID)
}

func TestEnsureIDs_Idempotent(t *testing.T) {
	once := EnsureIDs(sampleDocument())
	twice := EnsureIDs(once)

	assert.Same(t, once, twice, "a fully stamped document must be returned as is")
	assert.Equal(t, Collect(once), Collect(twice))
}

func TestEnsureIDs_AvoidsCollisions(t *testing.T) {
	doc := &domain.Document{
		MainColumn: []domain.Section{{ID: "id1"}, {}, {}},
	}
	out := EnsureIDsWith(doc, counter("id"))

	assert.Equal(t, "id1", out.MainColumn[0].ID)
	assert.Equal(t, "id2", out.MainColumn[1].ID)
	assert.Equal(t, "id3", out.MainColumn[2].ID)
}

func TestEnsureIDs_Nil(t *testing.T) {
	assert.Nil(t, EnsureIDs(nil))
}

func TestRestamp_CopiesIDsByPosition(t *testing.T) {
	pre := EnsureIDsWith(sampleDocument(), counter("pre-"))

	rewritten := &domain.Document{
		Name: "Ada",
		MainColumn: []domain.Section{
			{
				ID:           "ai-made-this-up",
				Title:        "Professional Experience",
				Paragraphs:   []domain.Paragraph{{Text: "uno"}, {Text: "dos"}, {Text: "tres"}},
				BulletPoints: []domain.BulletPoint{{Text: "Golang"}},
				SubSections:  []domain.SubSection{{Title: "Acme Corp"}},
			},
			{ID: "pre-1", Title: "Brand new"},
		},
	}

	out := RestampWith(pre, rewritten, counter("new-"))

	assert.Equal(t, pre.MainColumn[0].ID, out.MainColumn[0].ID)
	assert.Equal(t, pre.MainColumn[0].Paragraphs[0].ID, out.MainColumn[0].Paragraphs[0].ID)
	assert.Equal(t, pre.MainColumn[0].Paragraphs[1].ID, out.MainColumn[0].Paragraphs[1].ID)
	assert.Equal(t, pre.MainColumn[0].BulletPoints[0].ID, out.MainColumn[0].BulletPoints[0].ID)
	assert.Equal(t, pre.MainColumn[0].SubSections[0].ID, out.MainColumn[0].SubSections[0].ID)

	// Nodes beyond the pre-rewrite shape get fresh IDs, even if the collaborator invented one.
	assert.Contains(t, out.MainColumn[0].Paragraphs[2].ID, "new-")
	assert.Contains(t, out.MainColumn[1].ID, "new-")

	assert.Equal(t, "ai-made-this-up", rewritten.MainColumn[0].ID, "input must not be mutated")
}

func TestValidate_ReportsWarnings(t *testing.T) {
	pre := &domain.Document{MainColumn: []domain.Section{{ID: "a"}, {ID: "b"}}}
	rewritten := &domain.Document{MainColumn: []domain.Section{
		{ID: "a"},
		{ID: ""},
		{ID: "zzz"},
		{ID: "a"},
	}}

	warnings := Validate(pre, rewritten)
	require.Len(t, warnings, 3)

	assert.Equal(t, WarnDuplicateID, warnings[0].Kind)
	assert.Equal(t, "a", warnings[0].ID)
	assert.Equal(t, WarnMissingID, warnings[1].Kind)
	assert.Equal(t, domain.At(domain.MainColumn, 1).Path(), warnings[1].Path)
	assert.Equal(t, WarnUnknownID, warnings[2].Kind)
	assert.Equal(t, "zzz", warnings[2].ID)
}
