// Package report turns a change set, a merged view and text changes into a
// human-readable Markdown change report for the terminal.
package report

import (
	"fmt"
	"strings"

	"github.com/aretw0/vitae/internal/presentation/tui"
	"github.com/aretw0/vitae/pkg/diff"
	"github.com/aretw0/vitae/pkg/domain"
)

// Status of a rendered node.
type Status string

const (
	StatusUnchanged Status = "unchanged"
	StatusModified  Status = "modified"
	StatusRemoved   Status = "removed"
	StatusAdded     Status = "added"
)

// Report bundles what the CLI prints.
type Report struct {
	Changes     diff.ChangeSet
	View        diff.View
	TextChanges []diff.TextChange
}

// SectionStatus classifies a section key of the merged view.
func SectionStatus(cs diff.ChangeSet, r diff.RenderedSection) Status {
	switch {
	case r.IsDeleted || cs.RemovedSections.Has(r.SectionID):
		return StatusRemoved
	case cs.AddedSections.Has(r.SectionID):
		return StatusAdded
	case cs.ModifiedSections.Has(r.SectionID):
		return StatusModified
	}
	return StatusUnchanged
}

// SubSectionStatus classifies a sub-section key.
func SubSectionStatus(cs diff.ChangeSet, r diff.RenderedSubSection) Status {
	switch {
	case r.IsDeleted || cs.RemovedSubSections.Has(r.SubSectionID):
		return StatusRemoved
	case cs.AddedSubSections.Has(r.SubSectionID):
		return StatusAdded
	case cs.ModifiedSubSections.Has(r.SubSectionID):
		return StatusModified
	}
	return StatusUnchanged
}

// Label returns a terminal-coloured status tag.
func Label(s Status) string {
	switch s {
	case StatusRemoved:
		return tui.Colorize("[removed]", tui.ColorRemoved)
	case StatusModified:
		return tui.Colorize("[modified]", tui.ColorModified)
	case StatusAdded:
		return tui.Colorize("[added]", tui.ColorAdded)
	}
	return tui.Colorize("[unchanged]", tui.ColorMuted)
}

var badges = map[Status]string{
	StatusUnchanged: "",
	StatusModified:  " _(modified)_",
	StatusRemoved:   " ~~removed~~",
	StatusAdded:     " **(new)**",
}

// Markdown renders the report. original supplies the baseline sub-sections
// so deleted sub-sections can be listed under their section.
func Markdown(r Report, original *domain.Document) string {
	var sb strings.Builder
	sb.WriteString("# Change report\n\n")

	if !r.Changes.HasChanges {
		sb.WriteString("No changes against the original.\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "| Set | Count |\n|---|---|\n")
	for _, row := range []struct {
		name string
		set  diff.KeySet
	}{
		{"Removed sections", r.Changes.RemovedSections},
		{"Modified sections", r.Changes.ModifiedSections},
		{"Added sections", r.Changes.AddedSections},
		{"Removed sub-sections", r.Changes.RemovedSubSections},
		{"Modified sub-sections", r.Changes.ModifiedSubSections},
		{"Added sub-sections", r.Changes.AddedSubSections},
	} {
		fmt.Fprintf(&sb, "| %s | %d |\n", row.name, len(row.set))
	}
	sb.WriteString("\n")

	writeColumn(&sb, domain.MainColumn, r.Changes, r.View.MainColumn, original.Sections(domain.MainColumn))
	writeColumn(&sb, domain.SideColumn, r.Changes, r.View.SideColumn, original.Sections(domain.SideColumn))

	if len(r.TextChanges) > 0 {
		sb.WriteString("## Text changes\n\n| Path | Change | Before | After |\n|---|---|---|---|\n")
		for _, c := range r.TextChanges {
			fmt.Fprintf(&sb, "| `%s` | %s | %s | %s |\n", c.Path, c.Type, cell(c.OriginalText), cell(c.NewText))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func writeColumn(sb *strings.Builder, column domain.Column, cs diff.ChangeSet, rendered []diff.RenderedSection, original []domain.Section) {
	if len(rendered) == 0 {
		return
	}
	title := "Main column"
	if column == domain.SideColumn {
		title = "Side column"
	}
	fmt.Fprintf(sb, "## %s\n\n", title)

	var current []domain.Section
	for _, rs := range rendered {
		if !rs.IsDeleted {
			current = append(current, rs.Section)
		}
	}
	// The change set is keyed by the original node, so surviving sections
	// are looked up through the same matcher the analyzer used.
	matched := make(map[int]diff.Match)
	for _, m := range diff.MatchByIDOrIndex(original, current, string(column)) {
		if m.Matched() {
			matched[m.Current] = m
		}
	}

	for i, rs := range rendered {
		var origSubs []domain.SubSection
		if m, ok := matched[i]; ok && !rs.IsDeleted {
			rs.SectionID = m.Key
			origSubs = original[m.Original].SubSections
		}

		status := SectionStatus(cs, rs)
		fmt.Fprintf(sb, "- %s%s\n", heading(rs.Section.Title, rs.SectionID), badges[status])
		if rs.IsDeleted {
			continue
		}
		for _, sub := range diff.MergeSubSections(origSubs, rs.Section.SubSections, rs.SectionID) {
			fmt.Fprintf(sb, "  - %s%s\n", heading(sub.SubSection.Title, sub.SubSectionID), badges[SubSectionStatus(cs, sub)])
		}
	}
	sb.WriteString("\n")
}

func heading(title, key string) string {
	if strings.TrimSpace(title) == "" {
		return "_untitled_ (`" + key + "`)"
	}
	return title
}

func cell(s string) string {
	if s == "" {
		return "–"
	}
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// Render formats markdown for the terminal with glamour.
func Render(markdown string) (string, error) {
	render, err := tui.NewRenderer()
	if err != nil {
		return "", err
	}
	return render(markdown)
}
