package diff

import "github.com/aretw0/vitae/pkg/domain"

// RenderedSection is one self-describing entry of the merged view.
// Deleted entries carry the original content so the UI can offer a restore.
type RenderedSection struct {
	Section        domain.Section `json:"section"`
	SectionID      string         `json:"sectionId"`
	IsDeleted      bool           `json:"isDeleted"`
	IsFromOriginal bool           `json:"isFromOriginal"`
}

// RenderedSubSection is the sub-section counterpart of RenderedSection.
type RenderedSubSection struct {
	SubSection     domain.SubSection `json:"subSection"`
	SubSectionID   string            `json:"subSectionId"`
	IsDeleted      bool              `json:"isDeleted"`
	IsFromOriginal bool              `json:"isFromOriginal"`
}

// MergeForRendering emits every current section in order, then appends each
// original section without a surviving counterpart, tagged as deleted.
//
// Deleted sections always trail the surviving ones regardless of where they
// used to sit; they are not re-inserted at their original index.
func MergeForRendering(original, current []domain.Section, column domain.Column) []RenderedSection {
	out := make([]RenderedSection, 0, len(current)+len(original))
	for i, s := range current {
		out = append(out, RenderedSection{
			Section:   s,
			SectionID: NodeKey(s, string(column), i),
		})
	}

	for _, m := range MatchByIDOrIndex(original, current, string(column)) {
		if m.Matched() {
			continue
		}
		out = append(out, RenderedSection{
			Section:        original[m.Original].Clone(),
			SectionID:      m.Key,
			IsDeleted:      true,
			IsFromOriginal: true,
		})
	}
	return out
}

// MergeSubSections applies the MergeForRendering strategy one level down.
func MergeSubSections(original, current []domain.SubSection, sectionKey string) []RenderedSubSection {
	prefix := sectionKey + "-sub"
	out := make([]RenderedSubSection, 0, len(current)+len(original))
	for i, s := range current {
		out = append(out, RenderedSubSection{
			SubSection:   s,
			SubSectionID: NodeKey(s, prefix, i),
		})
	}

	for _, m := range MatchByIDOrIndex(original, current, prefix) {
		if m.Matched() {
			continue
		}
		out = append(out, RenderedSubSection{
			SubSection:     original[m.Original].Clone(),
			SubSectionID:   m.Key,
			IsDeleted:      true,
			IsFromOriginal: true,
		})
	}
	return out
}

// View is the merged rendering of both columns.
type View struct {
	MainColumn []RenderedSection `json:"mainColumn"`
	SideColumn []RenderedSection `json:"sideColumn"`
}

// MergeDocument merges both columns. A nil original renders current as is.
func MergeDocument(original, current *domain.Document) View {
	return View{
		MainColumn: MergeForRendering(original.Sections(domain.MainColumn), current.Sections(domain.MainColumn), domain.MainColumn),
		SideColumn: MergeForRendering(original.Sections(domain.SideColumn), current.Sections(domain.SideColumn), domain.SideColumn),
	}
}
