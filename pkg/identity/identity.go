// Package identity assigns and preserves the stable IDs every addressable
// document node must carry before it is diffed.
package identity

import (
	"github.com/aretw0/vitae/pkg/domain"
	"github.com/google/uuid"
)

// Generator produces a fresh opaque ID.
type Generator func() string

// UUID is the default generator.
func UUID() string { return uuid.NewString() }

// EnsureIDs stamps a fresh ID on every Section, SubSection, Paragraph and
// BulletPoint that lacks one. Existing IDs are preserved verbatim.
// The input is never mutated: when nothing is missing the same pointer is
// returned, otherwise a stamped deep copy.
func EnsureIDs(doc *domain.Document) *domain.Document {
	return EnsureIDsWith(doc, UUID)
}

// EnsureIDsWith is EnsureIDs with a custom generator.
// Generated IDs never collide with IDs already present in the document.
func EnsureIDsWith(doc *domain.Document, gen Generator) *domain.Document {
	if doc == nil || !missingAny(doc) {
		return doc
	}

	out := doc.Clone()
	s := &stamper{gen: gen, seen: Collect(doc)}
	for _, col := range domain.Columns {
		sections := out.Sections(col)
		for i := range sections {
			s.section(&sections[i])
		}
	}
	return out
}

type stamper struct {
	gen  Generator
	seen map[string]int
}

func (s *stamper) fresh(id *string) {
	if *id != "" {
		return
	}
	for {
		candidate := s.gen()
		if candidate != "" && s.seen[candidate] == 0 {
			s.seen[candidate] = 1
			*id = candidate
			return
		}
	}
}

func (s *stamper) section(sec *domain.Section) {
	s.fresh(&sec.ID)
	s.leaves(sec.Paragraphs, sec.BulletPoints)
	for i := range sec.SubSections {
		sub := &sec.SubSections[i]
		s.fresh(&sub.ID)
		s.leaves(sub.Paragraphs, sub.BulletPoints)
	}
}

func (s *stamper) leaves(ps []domain.Paragraph, bs []domain.BulletPoint) {
	for i := range ps {
		s.fresh(&ps[i].ID)
	}
	for i := range bs {
		s.fresh(&bs[i].ID)
	}
}

// Collect returns every ID present in the document with its occurrence count.
func Collect(doc *domain.Document) map[string]int {
	ids := make(map[string]int)
	Walk(doc, func(_ domain.Path, id string) {
		if id != "" {
			ids[id]++
		}
	})
	return ids
}

// Walk visits every addressable node in document order with its path and ID.
func Walk(doc *domain.Document, fn func(path domain.Path, id string)) {
	if doc == nil {
		return
	}
	for _, col := range domain.Columns {
		for i, sec := range doc.Sections(col) {
			ref := domain.At(col, i)
			fn(ref.Path(), sec.ID)
			for j, p := range sec.Paragraphs {
				fn(ref.Paragraph(j).Path(), p.ID)
			}
			for j, b := range sec.BulletPoints {
				fn(ref.BulletPoint(j).Path(), b.ID)
			}
			for k, sub := range sec.SubSections {
				subRef := ref.SubSection(k)
				fn(subRef.Path(), sub.ID)
				for j, p := range sub.Paragraphs {
					fn(subRef.Paragraph(j).Path(), p.ID)
				}
				for j, b := range sub.BulletPoints {
					fn(subRef.BulletPoint(j).Path(), b.ID)
				}
			}
		}
	}
}

func missingAny(doc *domain.Document) bool {
	missing := false
	Walk(doc, func(_ domain.Path, id string) {
		if id == "" {
			missing = true
		}
	})
	return missing
}
