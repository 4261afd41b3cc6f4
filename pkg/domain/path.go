package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Step is one hop of a Path: either an object key or an array index.
type Step struct {
	key     string
	index   int
	isIndex bool
}

// Key builds a key step.
func Key(k string) Step { return Step{key: k} }

// Index builds an index step.
func Index(i int) Step { return Step{index: i, isIndex: true} }

// IsIndex reports whether the step addresses an array element.
func (s Step) IsIndex() bool { return s.isIndex }

// Key returns the object key of a key step ("" for index steps).
func (s Step) Key() string { return s.key }

// Index returns the array index of an index step (-1 for key steps).
func (s Step) Index() int {
	if !s.isIndex {
		return -1
	}
	return s.index
}

func (s Step) String() string {
	if s.isIndex {
		return strconv.Itoa(s.index)
	}
	return s.key
}

// MarshalJSON encodes the step as a JSON string or number.
func (s Step) MarshalJSON() ([]byte, error) {
	if s.isIndex {
		return json.Marshal(s.index)
	}
	return json.Marshal(s.key)
}

// UnmarshalJSON decodes a JSON string or number into a step.
func (s *Step) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	step, err := stepOf(raw)
	if err != nil {
		return err
	}
	*s = step
	return nil
}

// Path addresses a field of a Document from its root,
// e.g. ["mainColumn", 0, "subSections", 1, "title"].
type Path []Step

// NewPath builds a path from raw string/int steps without vocabulary checks.
// It panics on other step types; use ParsePath for untrusted input.
func NewPath(steps ...any) Path {
	p := make(Path, 0, len(steps))
	for _, raw := range steps {
		step, err := stepOf(raw)
		if err != nil {
			panic(err)
		}
		p = append(p, step)
	}
	return p
}

// Append returns a new path with the steps added; p is left untouched.
func (p Path) Append(steps ...Step) Path {
	out := make(Path, 0, len(p)+len(steps))
	out = append(out, p...)
	return append(out, steps...)
}

// Parent returns all but the last step.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1]
}

// Last returns the final step and false when the path is empty.
func (p Path) Last() (Step, bool) {
	if len(p) == 0 {
		return Step{}, false
	}
	return p[len(p)-1], true
}

// Equal reports step-by-step equality.
func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// String renders the path as "mainColumn[0].subSections[1].title".
func (p Path) String() string {
	var sb strings.Builder
	for i, s := range p {
		if s.isIndex {
			fmt.Fprintf(&sb, "[%d]", s.index)
			continue
		}
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(s.key)
	}
	return sb.String()
}

// vocabulary holds every key a Document path may use.
var vocabulary = map[string]bool{
	"name":           true,
	"subtitle":       true,
	"profilePicture": true,
	"mainColumn":     true,
	"sideColumn":     true,
	"id":             true,
	"title":          true,
	"subtitles":      true,
	"left":           true,
	"right":          true,
	"paragraphs":     true,
	"bulletPoints":   true,
	"subSections":    true,
	"text":           true,
	"iconName":       true,
	"url":            true,
}

// MaxIndex is the largest index ParsePath accepts. Setting a value pads the
// array up to its index, so untrusted paths must not reach arbitrarily far.
const MaxIndex = 1024

// ParsePath converts untrusted raw steps (as decoded from JSON) into a Path.
// Keys must belong to the document vocabulary and indices must be integers
// in [0, MaxIndex]. Paths built in-process with NewPath are not bounded.
func ParsePath(raw []any) (Path, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	p := make(Path, 0, len(raw))
	for i, r := range raw {
		step, err := stepOf(r)
		if err != nil {
			return nil, fmt.Errorf("%w: step %d: %v", ErrInvalidPath, i, err)
		}
		if !step.isIndex && !vocabulary[step.key] {
			return nil, fmt.Errorf("%w: step %d: unknown key %q", ErrInvalidPath, i, step.key)
		}
		if step.isIndex && step.index < 0 {
			return nil, fmt.Errorf("%w: step %d: negative index %d", ErrInvalidPath, i, step.index)
		}
		if step.isIndex && step.index > MaxIndex {
			return nil, fmt.Errorf("%w: step %d: index %d exceeds %d", ErrInvalidPath, i, step.index, MaxIndex)
		}
		p = append(p, step)
	}
	return p, nil
}

func stepOf(raw any) (Step, error) {
	switch v := raw.(type) {
	case Step:
		return v, nil
	case string:
		return Key(v), nil
	case int:
		return Index(v), nil
	case int64:
		return Index(int(v)), nil
	case float64:
		if v != math.Trunc(v) {
			return Step{}, fmt.Errorf("non-integer index %v", v)
		}
		return Index(int(v)), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return Step{}, fmt.Errorf("non-integer index %s", v)
		}
		return Index(int(n)), nil
	}
	return Step{}, fmt.Errorf("unsupported step type %T", raw)
}
