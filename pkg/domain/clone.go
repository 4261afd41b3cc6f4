package domain

// Clone returns a deep copy of the document. A nil document clones to nil.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	out.MainColumn = cloneSections(d.MainColumn)
	out.SideColumn = cloneSections(d.SideColumn)
	return &out
}

// Clone returns a deep copy of the section.
func (s Section) Clone() Section {
	out := s
	out.Subtitles = cloneSubtitles(s.Subtitles)
	out.Paragraphs = cloneSlice(s.Paragraphs)
	out.BulletPoints = cloneSlice(s.BulletPoints)
	if s.SubSections != nil {
		out.SubSections = make([]SubSection, len(s.SubSections))
		for i, sub := range s.SubSections {
			out.SubSections[i] = sub.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the sub-section.
func (s SubSection) Clone() SubSection {
	out := s
	out.Subtitles = cloneSubtitles(s.Subtitles)
	out.Paragraphs = cloneSlice(s.Paragraphs)
	out.BulletPoints = cloneSlice(s.BulletPoints)
	return out
}

func cloneSections(in []Section) []Section {
	if in == nil {
		return nil
	}
	out := make([]Section, len(in))
	for i, s := range in {
		out[i] = s.Clone()
	}
	return out
}

func cloneSubtitles(s *Subtitles) *Subtitles {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// cloneSlice copies a slice of value types, preserving nil.
func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
