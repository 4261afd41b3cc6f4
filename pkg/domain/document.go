package domain

import (
	"encoding/json"
	"strings"
)

// Column names one of the two independent section sequences of a Document.
type Column string

const (
	MainColumn Column = "mainColumn"
	SideColumn Column = "sideColumn"
)

// Columns lists both columns in rendering order.
var Columns = []Column{MainColumn, SideColumn}

// Document is the root of a CV.
// MainColumn and SideColumn are ordered independently and never share Section values.
type Document struct {
	Name           string    `json:"name" yaml:"name"`
	Subtitle       string    `json:"subtitle" yaml:"subtitle"`
	ProfilePicture string    `json:"profilePicture,omitempty" yaml:"profilePicture,omitempty"`
	MainColumn     []Section `json:"mainColumn" yaml:"mainColumn"`
	SideColumn     []Section `json:"sideColumn" yaml:"sideColumn"`
}

// Subtitles is the optional left/right subtitle pair of a section.
type Subtitles struct {
	Left  string `json:"left,omitempty" yaml:"left,omitempty"`
	Right string `json:"right,omitempty" yaml:"right,omitempty"`
}

// Section is one labeled block of the document (e.g. "Work Experience").
// Absent fields mean "not applicable", not "empty".
type Section struct {
	ID           string        `json:"id,omitempty" yaml:"id,omitempty"`
	Title        string        `json:"title,omitempty" yaml:"title,omitempty"`
	Subtitles    *Subtitles    `json:"subtitles,omitempty" yaml:"subtitles,omitempty"`
	Paragraphs   []Paragraph   `json:"paragraphs,omitempty" yaml:"paragraphs,omitempty"`
	BulletPoints []BulletPoint `json:"bulletPoints,omitempty" yaml:"bulletPoints,omitempty"`
	SubSections  []SubSection  `json:"subSections,omitempty" yaml:"subSections,omitempty"`
}

// SubSection has the shape of a Section without further nesting.
type SubSection struct {
	ID           string        `json:"id,omitempty" yaml:"id,omitempty"`
	Title        string        `json:"title,omitempty" yaml:"title,omitempty"`
	Subtitles    *Subtitles    `json:"subtitles,omitempty" yaml:"subtitles,omitempty"`
	Paragraphs   []Paragraph   `json:"paragraphs,omitempty" yaml:"paragraphs,omitempty"`
	BulletPoints []BulletPoint `json:"bulletPoints,omitempty" yaml:"bulletPoints,omitempty"`
}

// Paragraph is a text body with a stable ID.
type Paragraph struct {
	ID   string `json:"id,omitempty" yaml:"id,omitempty"`
	Text string `json:"text" yaml:"text"`
}

// BulletPoint is a single list entry with a display icon and an optional link.
type BulletPoint struct {
	ID       string `json:"id,omitempty" yaml:"id,omitempty"`
	IconName string `json:"iconName,omitempty" yaml:"iconName,omitempty"`
	Text     string `json:"text" yaml:"text"`
	URL      string `json:"url,omitempty" yaml:"url,omitempty"`
}

// UnmarshalJSON accepts both the canonical {"id","text"} record and the legacy bare string.
func (p *Paragraph) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*p = Paragraph{Text: text}
		return nil
	}
	type plain Paragraph
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = Paragraph(v)
	return nil
}

// NodeID implements the matcher contract used by the diff package.
func (s Section) NodeID() string     { return s.ID }
func (s SubSection) NodeID() string  { return s.ID }
func (p Paragraph) NodeID() string   { return p.ID }
func (b BulletPoint) NodeID() string { return b.ID }

// Sections returns the sections of the given column.
func (d *Document) Sections(c Column) []Section {
	if d == nil {
		return nil
	}
	switch c {
	case MainColumn:
		return d.MainColumn
	case SideColumn:
		return d.SideColumn
	}
	return nil
}

// SetSections replaces the sections of the given column.
func (d *Document) SetSections(c Column, sections []Section) {
	switch c {
	case MainColumn:
		d.MainColumn = sections
	case SideColumn:
		d.SideColumn = sections
	}
}

// HasContent reports whether the section carries anything worth rendering.
// A section with no title, only blank paragraphs and bullets, and no
// sub-sections is treated as deleted by the diff analyzer.
func (s Section) HasContent() bool {
	return !blank(s.Title) ||
		anyParagraph(s.Paragraphs) ||
		anyBullet(s.BulletPoints) ||
		len(s.SubSections) > 0
}

// HasContent reports whether the sub-section carries anything worth rendering.
func (s SubSection) HasContent() bool {
	return !blank(s.Title) ||
		anyParagraph(s.Paragraphs) ||
		anyBullet(s.BulletPoints)
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

func anyParagraph(ps []Paragraph) bool {
	for _, p := range ps {
		if !blank(p.Text) {
			return true
		}
	}
	return false
}

func anyBullet(bs []BulletPoint) bool {
	for _, b := range bs {
		if !blank(b.Text) {
			return true
		}
	}
	return false
}

// ParagraphTexts extracts the text bodies in order.
func ParagraphTexts(ps []Paragraph) []string {
	if ps == nil {
		return nil
	}
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Text
	}
	return out
}

// BulletTexts extracts the bullet text bodies in order.
func BulletTexts(bs []BulletPoint) []string {
	if bs == nil {
		return nil
	}
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.Text
	}
	return out
}
