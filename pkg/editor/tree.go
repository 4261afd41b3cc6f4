package editor

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/vitae/pkg/domain"
)

// The store mutates a loosely typed copy of the document (maps, slices and
// scalars, as JSON would decode it) and decodes it back into the typed model.
// This keeps path handling uniform for every field of every node type.

func toTree(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode value: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode value: %w", err)
	}
	return out, nil
}

func fromTree(tree any) (*domain.Document, error) {
	doc, err := domain.DecodeDocument(tree)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidValue, err)
	}
	return doc, nil
}

// setIn writes value at path below node and returns the (possibly new) node.
// Missing intermediates are created: an array when the next step is an index,
// an object otherwise. Arrays are padded with empty objects up to the index.
func setIn(node any, path domain.Path, value any) any {
	if len(path) == 0 {
		return value
	}
	step, rest := path[0], path[1:]

	if step.IsIndex() {
		idx := step.Index()
		if idx < 0 {
			return node
		}
		arr, _ := node.([]any)
		for len(arr) <= idx {
			arr = append(arr, map[string]any{})
		}
		arr[idx] = setIn(arr[idx], rest, value)
		return arr
	}

	obj, ok := node.(map[string]any)
	if !ok {
		obj = map[string]any{}
	}
	obj[step.Key()] = setIn(obj[step.Key()], rest, value)
	return obj
}

// getIn resolves path below node without creating anything.
func getIn(node any, path domain.Path) (any, bool) {
	cur := node
	for _, step := range path {
		if step.IsIndex() {
			arr, ok := cur.([]any)
			if !ok || step.Index() < 0 || step.Index() >= len(arr) {
				return nil, false
			}
			cur = arr[step.Index()]
			continue
		}
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[step.Key()]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// removeIn deletes the array element addressed by path. It reports false,
// leaving node untouched, when the path does not resolve to an element.
func removeIn(node any, path domain.Path) (any, bool) {
	last, ok := path.Last()
	if !ok || !last.IsIndex() {
		return node, false
	}
	parent, ok := getIn(node, path.Parent())
	if !ok {
		return node, false
	}
	arr, ok := parent.([]any)
	if !ok || last.Index() < 0 || last.Index() >= len(arr) {
		return node, false
	}
	shrunk := make([]any, 0, len(arr)-1)
	shrunk = append(shrunk, arr[:last.Index()]...)
	shrunk = append(shrunk, arr[last.Index()+1:]...)
	return setIn(node, path.Parent(), shrunk), true
}

// deleteKeyIn removes the object key addressed by path, if present.
func deleteKeyIn(node any, path domain.Path) (any, bool) {
	last, ok := path.Last()
	if !ok || last.IsIndex() {
		return node, false
	}
	parent, ok := getIn(node, path.Parent())
	if !ok {
		return node, false
	}
	obj, ok := parent.(map[string]any)
	if !ok {
		return node, false
	}
	if _, exists := obj[last.Key()]; !exists {
		return node, false
	}
	delete(obj, last.Key())
	return node, true
}
