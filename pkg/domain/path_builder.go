package domain

// Typed accessors over Path. They only produce paths the document shape
// accepts, so editor code gets compile-time help while the store keeps
// accepting plain Paths at runtime.

// SectionRef addresses a Section.
type SectionRef struct{ base Path }

// SubSectionRef addresses a SubSection.
type SubSectionRef struct{ base Path }

// ParagraphRef addresses a Paragraph.
type ParagraphRef struct{ base Path }

// BulletRef addresses a BulletPoint.
type BulletRef struct{ base Path }

// NamePath addresses the document name.
func NamePath() Path { return Path{Key("name")} }

// SubtitlePath addresses the document subtitle.
func SubtitlePath() Path { return Path{Key("subtitle")} }

// ColumnPath addresses a whole column array.
func ColumnPath(c Column) Path { return Path{Key(string(c))} }

// At addresses the i-th section of a column.
func At(c Column, i int) SectionRef {
	return SectionRef{base: Path{Key(string(c)), Index(i)}}
}

func (r SectionRef) Path() Path          { return r.base }
func (r SectionRef) ID() Path            { return r.base.Append(Key("id")) }
func (r SectionRef) Title() Path         { return r.base.Append(Key("title")) }
func (r SectionRef) Subtitles() Path     { return r.base.Append(Key("subtitles")) }
func (r SectionRef) LeftSubtitle() Path  { return r.base.Append(Key("subtitles"), Key("left")) }
func (r SectionRef) RightSubtitle() Path { return r.base.Append(Key("subtitles"), Key("right")) }
func (r SectionRef) Paragraphs() Path    { return r.base.Append(Key("paragraphs")) }
func (r SectionRef) BulletPoints() Path  { return r.base.Append(Key("bulletPoints")) }
func (r SectionRef) SubSections() Path   { return r.base.Append(Key("subSections")) }
func (r SectionRef) Paragraph(i int) ParagraphRef {
	return ParagraphRef{r.Paragraphs().Append(Index(i))}
}
func (r SectionRef) BulletPoint(i int) BulletRef { return BulletRef{r.BulletPoints().Append(Index(i))} }
func (r SectionRef) SubSection(i int) SubSectionRef {
	return SubSectionRef{r.SubSections().Append(Index(i))}
}

func (r SubSectionRef) Path() Path          { return r.base }
func (r SubSectionRef) ID() Path            { return r.base.Append(Key("id")) }
func (r SubSectionRef) Title() Path         { return r.base.Append(Key("title")) }
func (r SubSectionRef) Subtitles() Path     { return r.base.Append(Key("subtitles")) }
func (r SubSectionRef) LeftSubtitle() Path  { return r.base.Append(Key("subtitles"), Key("left")) }
func (r SubSectionRef) RightSubtitle() Path { return r.base.Append(Key("subtitles"), Key("right")) }
func (r SubSectionRef) Paragraphs() Path    { return r.base.Append(Key("paragraphs")) }
func (r SubSectionRef) BulletPoints() Path  { return r.base.Append(Key("bulletPoints")) }
func (r SubSectionRef) Paragraph(i int) ParagraphRef {
	return ParagraphRef{r.Paragraphs().Append(Index(i))}
}
func (r SubSectionRef) BulletPoint(i int) BulletRef {
	return BulletRef{r.BulletPoints().Append(Index(i))}
}

func (r ParagraphRef) Path() Path { return r.base }
func (r ParagraphRef) Text() Path { return r.base.Append(Key("text")) }

func (r BulletRef) Path() Path     { return r.base }
func (r BulletRef) Text() Path     { return r.base.Append(Key("text")) }
func (r BulletRef) IconName() Path { return r.base.Append(Key("iconName")) }
func (r BulletRef) URL() Path      { return r.base.Append(Key("url")) }
