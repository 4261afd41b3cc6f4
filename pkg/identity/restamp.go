package identity

import (
	"fmt"

	"github.com/aretw0/vitae/pkg/domain"
)

// Restamp copies IDs from pre (the document as it was before an AI rewrite)
// onto rewritten, node by node at the same structural position. Nodes the
// rewrite added beyond pre's shape get fresh IDs. rewritten is not mutated.
//
// Without this step a rewritten node whose text barely changed would be
// diffed as brand new against the original baseline.
func Restamp(pre, rewritten *domain.Document) *domain.Document {
	return RestampWith(pre, rewritten, UUID)
}

// RestampWith is Restamp with a custom generator for new nodes.
func RestampWith(pre, rewritten *domain.Document, gen Generator) *domain.Document {
	if rewritten == nil {
		return nil
	}
	out := rewritten.Clone()
	if pre != nil {
		for _, col := range domain.Columns {
			restampSections(pre.Sections(col), out.Sections(col))
		}
	}
	return EnsureIDsWith(out, gen)
}

func restampSections(pre, out []domain.Section) {
	for i := range out {
		if i >= len(pre) {
			out[i].ID = ""
			clearSection(&out[i])
			continue
		}
		src := pre[i]
		out[i].ID = src.ID
		restampParagraphs(src.Paragraphs, out[i].Paragraphs)
		restampBullets(src.BulletPoints, out[i].BulletPoints)
		for k := range out[i].SubSections {
			sub := &out[i].SubSections[k]
			if k >= len(src.SubSections) {
				sub.ID = ""
				restampParagraphs(nil, sub.Paragraphs)
				restampBullets(nil, sub.BulletPoints)
				continue
			}
			sub.ID = src.SubSections[k].ID
			restampParagraphs(src.SubSections[k].Paragraphs, sub.Paragraphs)
			restampBullets(src.SubSections[k].BulletPoints, sub.BulletPoints)
		}
	}
}

// clearSection drops every nested ID so EnsureIDs can issue fresh ones;
// a collaborator-invented ID must never alias a baseline node.
func clearSection(sec *domain.Section) {
	restampParagraphs(nil, sec.Paragraphs)
	restampBullets(nil, sec.BulletPoints)
	for k := range sec.SubSections {
		sec.SubSections[k].ID = ""
		restampParagraphs(nil, sec.SubSections[k].Paragraphs)
		restampBullets(nil, sec.SubSections[k].BulletPoints)
	}
}

func restampParagraphs(pre, out []domain.Paragraph) {
	for i := range out {
		if i < len(pre) {
			out[i].ID = pre[i].ID
		} else {
			out[i].ID = ""
		}
	}
}

func restampBullets(pre, out []domain.BulletPoint) {
	for i := range out {
		if i < len(pre) {
			out[i].ID = pre[i].ID
		} else {
			out[i].ID = ""
		}
	}
}

// WarningKind classifies a rewrite validation finding.
type WarningKind string

const (
	WarnMissingID   WarningKind = "missing_id"
	WarnDuplicateID WarningKind = "duplicate_id"
	WarnUnknownID   WarningKind = "unknown_id"
)

// Warning is a recoverable finding about a rewritten document. It never
// blocks the replacement; it only predicts a degraded diff.
type Warning struct {
	Kind WarningKind `json:"kind"`
	Path domain.Path `json:"path"`
	ID   string      `json:"id,omitempty"`
}

func (w Warning) String() string {
	if w.ID == "" {
		return fmt.Sprintf("%s at %s", w.Kind, w.Path)
	}
	return fmt.Sprintf("%s %q at %s", w.Kind, w.ID, w.Path)
}

// Validate reports nodes of rewritten whose IDs are missing, duplicated, or
// unknown to pre. Unknown IDs will be diffed as added nodes.
func Validate(pre, rewritten *domain.Document) []Warning {
	known := Collect(pre)
	counts := Collect(rewritten)
	reported := make(map[string]bool)

	var warnings []Warning
	Walk(rewritten, func(path domain.Path, id string) {
		switch {
		case id == "":
			warnings = append(warnings, Warning{Kind: WarnMissingID, Path: path})
		case counts[id] > 1 && !reported[id]:
			reported[id] = true
			warnings = append(warnings, Warning{Kind: WarnDuplicateID, Path: path, ID: id})
		case pre != nil && known[id] == 0:
			warnings = append(warnings, Warning{Kind: WarnUnknownID, Path: path, ID: id})
		}
	})
	return warnings
}
