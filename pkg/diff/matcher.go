package diff

import "fmt"

// Identifiable is any document node that may carry a stable ID.
type Identifiable interface {
	NodeID() string
}

// Match pairs an original node with its counterpart in the current list.
// Current is -1 when the original node has no surviving counterpart.
type Match struct {
	Original int
	Current  int
	// Key is the node ID, or "<prefix>-<originalIndex>" when the node has none.
	Key string
	// ByID is true when the pair was found through the stable ID.
	ByID bool
}

// Matched reports whether the original node survived.
func (m Match) Matched() bool { return m.Current >= 0 }

// FallbackKey builds the positional key used for nodes without an ID.
func FallbackKey(prefix string, index int) string {
	return fmt.Sprintf("%s-%d", prefix, index)
}

// NodeKey returns the node's ID or its positional fallback key.
func NodeKey(n Identifiable, prefix string, index int) string {
	if id := n.NodeID(); id != "" {
		return id
	}
	return FallbackKey(prefix, index)
}

// MatchByIDOrIndex pairs every original node with at most one current node.
//
// Matching runs in two passes. First, every original node with an ID claims
// the current node carrying the same ID. Then each still-unmatched original
// node falls back to the current node at the same index, but only when that
// node was not claimed in the first pass. An ID match therefore always wins
// over a positional one, and a removal earlier in the list never drags a
// surviving sibling into the wrong slot.
//
// The diff analyzer and the merge builder both use this function so they
// never disagree about correspondence.
func MatchByIDOrIndex[T Identifiable](original, current []T, prefix string) []Match {
	byID := make(map[string]int, len(current))
	for i, c := range current {
		if id := c.NodeID(); id != "" {
			if _, dup := byID[id]; !dup {
				byID[id] = i
			}
		}
	}

	claimed := make([]bool, len(current))
	matches := make([]Match, len(original))

	for i, o := range original {
		matches[i] = Match{Original: i, Current: -1, Key: NodeKey(o, prefix, i)}
		id := o.NodeID()
		if id == "" {
			continue
		}
		if j, ok := byID[id]; ok && !claimed[j] {
			claimed[j] = true
			matches[i].Current = j
			matches[i].ByID = true
		}
	}

	for i := range matches {
		if matches[i].Matched() || i >= len(current) || claimed[i] {
			continue
		}
		claimed[i] = true
		matches[i].Current = i
	}

	return matches
}

// Unmatched returns the indices of current nodes no original node claimed.
func Unmatched(matches []Match, currentLen int) []int {
	claimed := make([]bool, currentLen)
	for _, m := range matches {
		if m.Matched() {
			claimed[m.Current] = true
		}
	}
	var out []int
	for i, c := range claimed {
		if !c {
			out = append(out, i)
		}
	}
	return out
}
