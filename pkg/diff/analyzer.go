package diff

import (
	"encoding/json"
	"reflect"
	"sort"

	"github.com/aretw0/vitae/pkg/domain"
)

// KeySet is a set of node keys (IDs or positional fallback keys).
// It is serialized as a sorted JSON array.
type KeySet map[string]struct{}

// Add inserts a key.
func (s KeySet) Add(key string) { s[key] = struct{}{} }

// Has reports membership.
func (s KeySet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Sorted returns the keys in lexical order.
func (s KeySet) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON encodes the set as a sorted array.
func (s KeySet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes an array of keys.
func (s *KeySet) UnmarshalJSON(data []byte) error {
	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	*s = make(KeySet, len(keys))
	for _, k := range keys {
		s.Add(k)
	}
	return nil
}

// ChangeSet classifies every section and sub-section of a document against its baseline.
type ChangeSet struct {
	RemovedSections     KeySet `json:"removedSections"`
	ModifiedSections    KeySet `json:"modifiedSections"`
	RemovedSubSections  KeySet `json:"removedSubSections"`
	ModifiedSubSections KeySet `json:"modifiedSubSections"`
	// AddedSections and AddedSubSections hold current nodes no original node
	// corresponds to, keyed like their current position would be.
	AddedSections    KeySet `json:"addedSections"`
	AddedSubSections KeySet `json:"addedSubSections"`
	HasChanges       bool   `json:"hasChanges"`
}

func newChangeSet() ChangeSet {
	return ChangeSet{
		RemovedSections:     KeySet{},
		ModifiedSections:    KeySet{},
		RemovedSubSections:  KeySet{},
		ModifiedSubSections: KeySet{},
		AddedSections:       KeySet{},
		AddedSubSections:    KeySet{},
	}
}

// IsEmpty reports whether no node-level classification was made.
func (c ChangeSet) IsEmpty() bool {
	return len(c.RemovedSections) == 0 &&
		len(c.ModifiedSections) == 0 &&
		len(c.RemovedSubSections) == 0 &&
		len(c.ModifiedSubSections) == 0 &&
		len(c.AddedSections) == 0 &&
		len(c.AddedSubSections) == 0
}

// Analyze compares the frozen original snapshot with the live current document.
// A nil original means no baseline exists yet and yields an empty, unchanged result.
func Analyze(original, current *domain.Document) ChangeSet {
	cs := newChangeSet()
	if original == nil {
		return cs
	}
	if current == nil {
		current = &domain.Document{}
	}

	for _, col := range domain.Columns {
		analyzeColumn(&cs, col, original.Sections(col), current.Sections(col))
	}

	cs.HasChanges = !cs.IsEmpty() ||
		original.Name != current.Name ||
		original.Subtitle != current.Subtitle ||
		original.ProfilePicture != current.ProfilePicture
	return cs
}

func analyzeColumn(cs *ChangeSet, col domain.Column, original, current []domain.Section) {
	matches := MatchByIDOrIndex(original, current, string(col))
	for _, m := range matches {
		if !m.Matched() || !current[m.Current].HasContent() {
			cs.RemovedSections.Add(m.Key)
			continue
		}
		o, c := original[m.Original], current[m.Current]
		if !reflect.DeepEqual(stripSection(o), stripSection(c)) {
			cs.ModifiedSections.Add(m.Key)
		}
		analyzeSubSections(cs, m.Key, o.SubSections, c.SubSections)
	}
	for _, i := range Unmatched(matches, len(current)) {
		cs.AddedSections.Add(NodeKey(current[i], string(col), i))
	}
}

func analyzeSubSections(cs *ChangeSet, sectionKey string, original, current []domain.SubSection) {
	prefix := sectionKey + "-sub"
	matches := MatchByIDOrIndex(original, current, prefix)
	for _, m := range matches {
		if !m.Matched() || !current[m.Current].HasContent() {
			cs.RemovedSubSections.Add(m.Key)
			continue
		}
		if !reflect.DeepEqual(stripSubSection(original[m.Original]), stripSubSection(current[m.Current])) {
			cs.ModifiedSubSections.Add(m.Key)
		}
	}
	for _, i := range Unmatched(matches, len(current)) {
		cs.AddedSubSections.Add(NodeKey(current[i], prefix, i))
	}
}

// stripSection returns an ID-free, nil-normalized copy so that ID churn and
// empty-vs-absent slices never register as content changes.
func stripSection(s domain.Section) domain.Section {
	out := domain.Section{
		Title:        s.Title,
		Subtitles:    stripSubtitles(s.Subtitles),
		Paragraphs:   stripParagraphs(s.Paragraphs),
		BulletPoints: stripBullets(s.BulletPoints),
	}
	if len(s.SubSections) > 0 {
		out.SubSections = make([]domain.SubSection, len(s.SubSections))
		for i, sub := range s.SubSections {
			out.SubSections[i] = stripSubSection(sub)
		}
	}
	return out
}

func stripSubSection(s domain.SubSection) domain.SubSection {
	return domain.SubSection{
		Title:        s.Title,
		Subtitles:    stripSubtitles(s.Subtitles),
		Paragraphs:   stripParagraphs(s.Paragraphs),
		BulletPoints: stripBullets(s.BulletPoints),
	}
}

func stripSubtitles(s *domain.Subtitles) *domain.Subtitles {
	if s == nil || (s.Left == "" && s.Right == "") {
		return nil
	}
	c := *s
	return &c
}

func stripParagraphs(ps []domain.Paragraph) []domain.Paragraph {
	if len(ps) == 0 {
		return nil
	}
	out := make([]domain.Paragraph, len(ps))
	for i, p := range ps {
		out[i] = domain.Paragraph{Text: p.Text}
	}
	return out
}

func stripBullets(bs []domain.BulletPoint) []domain.BulletPoint {
	if len(bs) == 0 {
		return nil
	}
	out := make([]domain.BulletPoint, len(bs))
	for i, b := range bs {
		b.ID = ""
		out[i] = b
	}
	return out
}
