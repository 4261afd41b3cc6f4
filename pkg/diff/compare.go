package diff

import "github.com/aretw0/vitae/pkg/domain"

// ChangeType classifies an atomic text change.
type ChangeType string

const (
	Added    ChangeType = "added"
	Removed  ChangeType = "removed"
	Modified ChangeType = "modified"
)

// TextChange is one atomic change record, addressed by the path of the
// field (or array element) it annotates.
type TextChange struct {
	Type         ChangeType  `json:"type"`
	OriginalText string      `json:"originalText,omitempty"`
	NewText      string      `json:"newText,omitempty"`
	Path         domain.Path `json:"path"`
	// Similarity in [0,1] is set on modified records only. Zero means the
	// text was completely rewritten.
	Similarity *float64 `json:"similarity,omitempty"`
}

// CompareTextArrays walks both arrays by index. Index alignment is
// intentional: AI rewrites are expected to keep ordering, and the records
// only drive inline annotations.
func CompareTextArrays(original, current []string, base domain.Path) []TextChange {
	var changes []TextChange
	for i, o := range original {
		path := base.Append(domain.Index(i))
		if i >= len(current) {
			changes = append(changes, TextChange{Type: Removed, OriginalText: o, Path: path})
			continue
		}
		if c := current[i]; c != o {
			changes = append(changes, modified(o, c, path))
		}
	}
	for i := len(original); i < len(current); i++ {
		changes = append(changes, TextChange{
			Type:    Added,
			NewText: current[i],
			Path:    base.Append(domain.Index(i)),
		})
	}
	return changes
}

// CompareParagraphs compares paragraph bodies by index.
func CompareParagraphs(original, current []domain.Paragraph, base domain.Path) []TextChange {
	return CompareTextArrays(domain.ParagraphTexts(original), domain.ParagraphTexts(current), base)
}

// CompareBulletPoints compares bullet points by their text only.
func CompareBulletPoints(original, current []domain.BulletPoint, base domain.Path) []TextChange {
	return CompareTextArrays(domain.BulletTexts(original), domain.BulletTexts(current), base)
}

// CompareSections produces the inline change records for one section.
// Either side being nil yields no records.
func CompareSections(original, current *domain.Section, path domain.Path) []TextChange {
	if original == nil || current == nil {
		return nil
	}
	changes := compareFields(
		original.Title, current.Title,
		original.Subtitles, current.Subtitles,
		original.Paragraphs, current.Paragraphs,
		original.BulletPoints, current.BulletPoints,
		path,
	)

	subPath := path.Append(domain.Key("subSections"))
	for i := range original.SubSections {
		p := subPath.Append(domain.Index(i))
		if i >= len(current.SubSections) {
			changes = append(changes, TextChange{Type: Removed, OriginalText: original.SubSections[i].Title, Path: p})
			continue
		}
		changes = append(changes, CompareSubSections(&original.SubSections[i], &current.SubSections[i], p)...)
	}
	for i := len(original.SubSections); i < len(current.SubSections); i++ {
		changes = append(changes, TextChange{
			Type:    Added,
			NewText: current.SubSections[i].Title,
			Path:    subPath.Append(domain.Index(i)),
		})
	}
	return changes
}

// CompareSubSections produces the inline change records for one sub-section.
func CompareSubSections(original, current *domain.SubSection, path domain.Path) []TextChange {
	if original == nil || current == nil {
		return nil
	}
	return compareFields(
		original.Title, current.Title,
		original.Subtitles, current.Subtitles,
		original.Paragraphs, current.Paragraphs,
		original.BulletPoints, current.BulletPoints,
		path,
	)
}

func compareFields(
	oTitle, cTitle string,
	oSub, cSub *domain.Subtitles,
	oPar, cPar []domain.Paragraph,
	oBul, cBul []domain.BulletPoint,
	path domain.Path,
) []TextChange {
	var changes []TextChange
	if oTitle != cTitle {
		changes = append(changes, modified(oTitle, cTitle, path.Append(domain.Key("title"))))
	}

	var oLeft, oRight, cLeft, cRight string
	if oSub != nil {
		oLeft, oRight = oSub.Left, oSub.Right
	}
	if cSub != nil {
		cLeft, cRight = cSub.Left, cSub.Right
	}
	if oLeft != cLeft {
		changes = append(changes, modified(oLeft, cLeft, path.Append(domain.Key("subtitles"), domain.Key("left"))))
	}
	if oRight != cRight {
		changes = append(changes, modified(oRight, cRight, path.Append(domain.Key("subtitles"), domain.Key("right"))))
	}

	changes = append(changes, CompareParagraphs(oPar, cPar, path.Append(domain.Key("paragraphs")))...)
	changes = append(changes, CompareBulletPoints(oBul, cBul, path.Append(domain.Key("bulletPoints")))...)
	return changes
}

// CompareDocuments runs CompareSections over every section pair of both
// columns (by index) plus the top-level name and subtitle.
func CompareDocuments(original, current *domain.Document) []TextChange {
	if original == nil || current == nil {
		return nil
	}
	var changes []TextChange
	if original.Name != current.Name {
		changes = append(changes, modified(original.Name, current.Name, domain.NamePath()))
	}
	if original.Subtitle != current.Subtitle {
		changes = append(changes, modified(original.Subtitle, current.Subtitle, domain.SubtitlePath()))
	}

	for _, col := range domain.Columns {
		o, c := original.Sections(col), current.Sections(col)
		for i := range o {
			ref := domain.At(col, i)
			if i >= len(c) {
				changes = append(changes, TextChange{Type: Removed, OriginalText: o[i].Title, Path: ref.Path()})
				continue
			}
			changes = append(changes, CompareSections(&o[i], &c[i], ref.Path())...)
		}
		for i := len(o); i < len(c); i++ {
			changes = append(changes, TextChange{Type: Added, NewText: c[i].Title, Path: domain.At(col, i).Path()})
		}
	}
	return changes
}

// IsTextModified returns the change recorded for exactly this path, or nil.
func IsTextModified(changes []TextChange, path domain.Path) *TextChange {
	for i := range changes {
		if changes[i].Path.Equal(path) {
			return &changes[i]
		}
	}
	return nil
}

func modified(o, c string, path domain.Path) TextChange {
	sim := Similarity(o, c)
	return TextChange{
		Type:         Modified,
		OriginalText: o,
		NewText:      c,
		Path:         path,
		Similarity:   &sim,
	}
}
