package diff

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// SegmentOp tells whether a segment survived, was inserted or was deleted.
type SegmentOp string

const (
	SegmentEqual  SegmentOp = "equal"
	SegmentInsert SegmentOp = "insert"
	SegmentDelete SegmentOp = "delete"
)

// Segment is a run of text sharing one operation.
type Segment struct {
	Op   SegmentOp `json:"op"`
	Text string    `json:"text"`
}

var dmp = diffmatchpatch.New()

// InlineDiff splits a modified field into equal/insert/delete runs for the
// "adjusted by AI" tooltip. Semantic cleanup keeps runs on word boundaries
// where possible.
func InlineDiff(original, current string) []Segment {
	if original == current {
		if original == "" {
			return nil
		}
		return []Segment{{Op: SegmentEqual, Text: original}}
	}

	diffs := dmp.DiffMain(original, current, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	segments := make([]Segment, 0, len(diffs))
	for _, d := range diffs {
		op := SegmentEqual
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = SegmentInsert
		case diffmatchpatch.DiffDelete:
			op = SegmentDelete
		}
		if n := len(segments); n > 0 && segments[n-1].Op == op {
			segments[n-1].Text += d.Text
			continue
		}
		segments = append(segments, Segment{Op: op, Text: d.Text})
	}
	return segments
}

// Similarity is 1 minus the normalized Levenshtein distance, over runes.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	if maxLen == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(maxLen)
}
