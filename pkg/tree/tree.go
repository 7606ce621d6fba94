package tree

import "strings"

// Get resolves a dot-separated path against root and returns the value at
// that path. The second return value reports whether the full path resolved.
// A missing key or a non-map intermediate value resolves to (nil, false).
// The empty path returns the root map itself.
func Get(root map[string]any, path string) (any, bool) {
	if path == "" {
		return root, true
	}

	var current any = root
	for _, key := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Has reports whether the full path resolves to a value.
func Has(root map[string]any, path string) bool {
	_, ok := Get(root, path)
	return ok
}

// Set writes value at the dot-separated path, creating intermediate maps as
// needed. An intermediate value that exists but is not a map is replaced by a
// fresh map so the write always lands. The empty path is unaddressable and
// is ignored.
func Set(root map[string]any, path string, value any) {
	if path == "" {
		return
	}

	keys := strings.Split(path, ".")
	current := root
	for _, key := range keys[:len(keys)-1] {
		next, ok := current[key].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[key] = next
		}
		current = next
	}
	current[keys[len(keys)-1]] = value
}

// Delete removes the value at the dot-separated path and reports whether
// anything was removed. A missing path or a non-map intermediate is a
// silent no-op, as is the empty path.
func Delete(root map[string]any, path string) bool {
	if path == "" {
		return false
	}

	keys := strings.Split(path, ".")
	current := root
	for _, key := range keys[:len(keys)-1] {
		next, ok := current[key].(map[string]any)
		if !ok {
			return false
		}
		current = next
	}
	last := keys[len(keys)-1]
	if _, ok := current[last]; !ok {
		return false
	}
	delete(current, last)
	return true
}

// Move relocates the value at from to the path to: get, set, then delete
// the old path. When from does not resolve, nothing happens. Empty source
// or destination paths are unaddressable and make Move a no-op. It
// reports whether a value was moved.
func Move(root map[string]any, from, to string) bool {
	if from == "" || to == "" {
		return false
	}
	value, ok := Get(root, from)
	if !ok {
		return false
	}
	Set(root, to, value)
	Delete(root, from)
	return true
}
