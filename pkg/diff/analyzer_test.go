package diff

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/vitae/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func section(id, title string) domain.Section {
	return domain.Section{ID: id, Title: title}
}

func doc(main ...domain.Section) *domain.Document {
	return &domain.Document{Name: "Ada", Subtitle: "Engineer", MainColumn: main}
}

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name     string
		original *domain.Document
		current  *domain.Document
		removed  []string
		modified []string
		added    []string
		changes  bool
	}{
		{
			name:     "No Baseline",
			original: nil,
			current:  doc(section("1", "A")),
			changes:  false,
		},
		{
			name:     "Identical Clone",
			original: doc(section("1", "A"), section("2", "B")),
			current:  doc(section("1", "A"), section("2", "B")),
			changes:  false,
		},
		{
			name:     "Removed Trailing",
			original: doc(section("1", "A"), section("2", "B")),
			current:  doc(section("1", "A")),
			removed:  []string{"2"},
			changes:  true,
		},
		{
			name:     "Removed Leading Does Not Shift Match",
			original: doc(section("1", "A"), section("2", "B")),
			current:  doc(section("2", "B")),
			removed:  []string{"1"},
			changes:  true,
		},
		{
			name:     "Modified Title",
			original: doc(section("1", "X")),
			current:  doc(section("1", "Y")),
			modified: []string{"1"},
			changes:  true,
		},
		{
			name:     "ID Churn With Same Content Falls Back To Index",
			original: doc(section("1", "X")),
			current:  doc(section("2", "X")),
			changes:  false,
		},
		{
			name:     "Emptied Section Counts As Removed",
			original: doc(section("1", "X")),
			current:  doc(domain.Section{ID: "1", Paragraphs: []domain.Paragraph{{ID: "p", Text: "  "}}}),
			removed:  []string{"1"},
			changes:  true,
		},
		{
			name:     "Positional Keys Without IDs",
			original: doc(section("", "A"), section("", "B")),
			current:  doc(section("", "A")),
			removed:  []string{"mainColumn-1"},
			changes:  true,
		},
		{
			name:     "Added Section",
			original: doc(section("1", "A")),
			current:  doc(section("1", "A"), section("9", "New")),
			added:    []string{"9"},
			changes:  true,
		},
		{
			name:     "Empty vs Absent Slices Are Equal",
			original: doc(domain.Section{ID: "1", Title: "A", Paragraphs: []domain.Paragraph{}}),
			current:  doc(domain.Section{ID: "1", Title: "A"}),
			changes:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := Analyze(tt.original, tt.current)

			assert.ElementsMatch(t, tt.removed, cs.RemovedSections.Sorted())
			assert.ElementsMatch(t, tt.modified, cs.ModifiedSections.Sorted())
			assert.ElementsMatch(t, tt.added, cs.AddedSections.Sorted())
			assert.Equal(t, tt.changes, cs.HasChanges)
		})
	}
}

func TestAnalyze_ScalarFieldsOnly(t *testing.T) {
	original := doc(section("1", "A"))
	current := original.Clone()
	current.ProfilePicture = "me.png"

	cs := Analyze(original, current)
	assert.True(t, cs.IsEmpty())
	assert.True(t, cs.HasChanges)
}

func TestAnalyze_SubSections(t *testing.T) {
	original := doc(domain.Section{
		ID:    "s",
		Title: "Work",
		SubSections: []domain.SubSection{
			{ID: "a", Title: "Acme"},
			{ID: "b", Title: "Beta"},
			{Title: "No ID"},
		},
	})
	current := doc(domain.Section{
		ID:    "s",
		Title: "Work",
		SubSections: []domain.SubSection{
			{ID: "a", Title: "Acme Corp"},
			{ID: "c", Title: "Gamma"},
		},
	})

	cs := Analyze(original, current)

	assert.Equal(t, []string{"s"}, cs.ModifiedSections.Sorted())
	// "b" fell back to index 1 and met the unclaimed "c", so it is modified
	// rather than removed; the ID-less third one lost its slot entirely.
	assert.Equal(t, []string{"a", "b"}, cs.ModifiedSubSections.Sorted())
	assert.Equal(t, []string{"s-sub-2"}, cs.RemovedSubSections.Sorted())
	assert.Empty(t, cs.AddedSubSections)
}

func TestAnalyze_ColumnsAreIndependent(t *testing.T) {
	original := &domain.Document{
		MainColumn: []domain.Section{section("", "Main")},
		SideColumn: []domain.Section{section("", "Side")},
	}
	current := &domain.Document{
		MainColumn: []domain.Section{section("", "Main")},
	}

	cs := Analyze(original, current)
	assert.Equal(t, []string{"sideColumn-0"}, cs.RemovedSections.Sorted())
}

func TestAnalyze_DoesNotMutateInputs(t *testing.T) {
	original := doc(section("1", "A"), section("2", "B"))
	current := doc(section("2", "B"))
	snapshot := original.Clone()

	_ = Analyze(original, current)
	assert.Equal(t, snapshot, original)
}

func TestChangeSet_JSON(t *testing.T) {
	cs := Analyze(doc(section("b", "B"), section("a", "A")), doc())

	data, err := json.Marshal(cs)
	require.NoError(t, err)

	var back ChangeSet
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, []string{"a", "b"}, back.RemovedSections.Sorted())
	assert.True(t, back.HasChanges)
	assert.Contains(t, string(data), `"removedSections":["a","b"]`)
}
