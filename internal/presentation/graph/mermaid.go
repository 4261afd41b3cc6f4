// Package graph renders the merged document view as a Mermaid flowchart.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/vitae/pkg/diff"
)

// Overlay marks nodes with change classes. A nil overlay renders structure only.
type Overlay struct {
	Changes diff.ChangeSet
}

// GenerateMermaid produces a Mermaid flowchart of the document: one cluster
// per column, sections as rectangles, sub-sections as rounded nodes.
// Deleted nodes are drawn with a dashed edge.
func GenerateMermaid(view diff.View, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	sb.WriteString("    doc((\"CV\"))\n")

	classes := map[string][]string{}
	mark := func(class, id string) {
		classes[class] = append(classes[class], id)
	}

	for _, col := range []struct {
		name     string
		sections []diff.RenderedSection
	}{
		{"mainColumn", view.MainColumn},
		{"sideColumn", view.SideColumn},
	} {
		colID := sanitizeMermaidID(col.name)
		fmt.Fprintf(&sb, "    doc --> %s[/\"%s\"/]\n", colID, col.name)

		for _, rs := range col.sections {
			secID := sanitizeMermaidID(col.name + "_" + rs.SectionID)
			arrow := "-->"
			if rs.IsDeleted {
				arrow = "-.->"
			}
			fmt.Fprintf(&sb, "    %s %s %s[\"%s\"]\n", colID, arrow, secID, label(rs.Section.Title, rs.SectionID))

			if overlay != nil {
				switch {
				case rs.IsDeleted || overlay.Changes.RemovedSections.Has(rs.SectionID):
					mark("removed", secID)
				case overlay.Changes.AddedSections.Has(rs.SectionID):
					mark("added", secID)
				case overlay.Changes.ModifiedSections.Has(rs.SectionID):
					mark("modified", secID)
				}
			}

			for _, sub := range rs.Section.SubSections {
				subID := sanitizeMermaidID(secID + "_" + sub.ID)
				fmt.Fprintf(&sb, "    %s --> %s(\"%s\")\n", secID, subID, label(sub.Title, sub.ID))
				if overlay != nil && sub.ID != "" {
					switch {
					case overlay.Changes.RemovedSubSections.Has(sub.ID):
						mark("removed", subID)
					case overlay.Changes.AddedSubSections.Has(sub.ID):
						mark("added", subID)
					case overlay.Changes.ModifiedSubSections.Has(sub.ID):
						mark("modified", subID)
					}
				}
			}
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Change Styles\n")
		// Force black text (color:#000) for contrast on any theme
		sb.WriteString("    classDef removed fill:#fee2e2,stroke:#b91c1c,stroke-dasharray: 4 2,color:#000;\n")
		sb.WriteString("    classDef modified fill:#fef3c7,stroke:#b45309,color:#000;\n")
		sb.WriteString("    classDef added fill:#d1fae5,stroke:#047857,stroke-width:2px,color:#000;\n")
		for _, class := range []string{"removed", "modified", "added"} {
			if ids := classes[class]; len(ids) > 0 {
				fmt.Fprintf(&sb, "    class %s %s;\n", strings.Join(ids, ","), class)
			}
		}
	}

	return sb.String()
}

func label(title, key string) string {
	if strings.TrimSpace(title) == "" {
		title = key
	}
	return strings.ReplaceAll(title, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_", ":", "_")
	return r.Replace(id)
}
