// Package doctree edits generic JSON trees the way a realtime document database does:
// writes create intermediate objects, nil deletes, and emptied objects disappear.
package doctree

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Get returns the value at segments, or nil when any step is missing.
func Get(node any, segments []string) any {
	for _, key := range segments {
		switch typed := node.(type) {
		case map[string]any:
			node = typed[key]
		case []any:
			idx, ok := arrayIndex(key)
			if !ok || idx >= len(typed) {
				return nil
			}
			node = typed[idx]
		default:
			return nil
		}
	}
	return node
}

// Set places value at segments and returns the new root. A nil value deletes.
// Deleting an array element leaves a nil hole so later indexes keep their keys.
func Set(node any, segments []string, value any) any {
	if len(segments) == 0 {
		return value
	}
	key, rest := segments[0], segments[1:]
	switch typed := node.(type) {
	case map[string]any:
		child := Set(typed[key], rest, value)
		if child == nil {
			delete(typed, key)
		} else {
			typed[key] = child
		}
		if len(typed) == 0 {
			return nil
		}
		return typed
	case []any:
		idx, ok := arrayIndex(key)
		if !ok {
			return Set(arrayToMap(typed), segments, value)
		}
		if idx >= len(typed) {
			if value == nil {
				return typed
			}
			typed = append(typed, make([]any, idx-len(typed)+1)...)
		}
		typed[idx] = Set(typed[idx], rest, value)
		return typed
	default:
		child := Set(nil, rest, value)
		if child == nil {
			return node
		}
		return map[string]any{key: child}
	}
}

// Delete removes the value at segments and returns the new root.
func Delete(node any, segments []string) any {
	return Set(node, segments, nil)
}

// Normalize converts value into its generic JSON form.
func Normalize(value any) (any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SplitPath splits a slash-separated path, ignoring empty segments.
func SplitPath(path string) []string {
	parts := strings.Split(path, "/")
	out := parts[:0]
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func arrayIndex(key string) (int, bool) {
	idx, err := strconv.Atoi(key)
	if err != nil || idx < 0 || strconv.Itoa(idx) != key {
		return 0, false
	}
	return idx, true
}

func arrayToMap(list []any) map[string]any {
	out := make(map[string]any, len(list))
	for i, v := range list {
		if v != nil {
			out[strconv.Itoa(i)] = v
		}
	}
	return out
}
