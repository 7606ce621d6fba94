package expr

import (
	"fmt"
	"strconv"
	"strings"

	"mercator-hq/ganymede/pkg/tree"
)

// builtin is one registry function. call returns the result and an empty
// message, or a non-empty message describing the failure.
type builtin struct {
	minArgs int
	maxArgs int
	call    func(args []any) (any, string)
}

// registry is the fixed set of callable functions. There is no way to
// register more from rule files; new functions are added here.
var registry = map[string]builtin{
	"get": {minArgs: 2, maxArgs: 3, call: builtinGet},
	"upper": {minArgs: 1, maxArgs: 1, call: func(args []any) (any, string) {
		s, ok := args[0].(string)
		if !ok {
			return nil, "expects a string, got " + typeName(args[0])
		}
		return strings.ToUpper(s), ""
	}},
	"lower": {minArgs: 1, maxArgs: 1, call: func(args []any) (any, string) {
		s, ok := args[0].(string)
		if !ok {
			return nil, "expects a string, got " + typeName(args[0])
		}
		return strings.ToLower(s), ""
	}},
	"replace": {minArgs: 3, maxArgs: 3, call: builtinReplace},
	"split":   {minArgs: 2, maxArgs: 2, call: builtinSplit},
	"str": {minArgs: 1, maxArgs: 1, call: func(args []any) (any, string) {
		return Stringify(args[0]), ""
	}},
	"int":   {minArgs: 1, maxArgs: 1, call: builtinInt},
	"float": {minArgs: 1, maxArgs: 1, call: builtinFloat},
	"len":   {minArgs: 1, maxArgs: 1, call: builtinLen},
}

// builtinGet looks up a dot path inside a map and never fails: a missing
// path, or a non-map receiver, yields the default (third argument, or null).
func builtinGet(args []any) (any, string) {
	var fallback any
	if len(args) == 3 {
		fallback = args[2]
	}
	path, ok := args[1].(string)
	if !ok {
		return nil, "path must be a string, got " + typeName(args[1])
	}
	m, ok := args[0].(map[string]any)
	if !ok {
		return fallback, ""
	}
	v, ok := tree.Get(m, path)
	if !ok {
		return fallback, ""
	}
	return v, ""
}

func builtinReplace(args []any) (any, string) {
	s, ok := args[0].(string)
	if !ok {
		return nil, "expects a string, got " + typeName(args[0])
	}
	old, ok := args[1].(string)
	if !ok {
		return nil, "search value must be a string, got " + typeName(args[1])
	}
	repl, ok := args[2].(string)
	if !ok {
		return nil, "replacement must be a string, got " + typeName(args[2])
	}
	return strings.ReplaceAll(s, old, repl), ""
}

func builtinSplit(args []any) (any, string) {
	s, ok := args[0].(string)
	if !ok {
		return nil, "expects a string, got " + typeName(args[0])
	}
	sep, ok := args[1].(string)
	if !ok {
		return nil, "separator must be a string, got " + typeName(args[1])
	}
	if sep == "" {
		return nil, "separator must not be empty"
	}
	parts := strings.Split(s, sep)
	out := make([]any, len(parts))
	for i, p := range parts {
		out[i] = p
	}
	return out, ""
}

func builtinInt(args []any) (any, string) {
	switch t := args[0].(type) {
	case bool:
		if t {
			return int64(1), ""
		}
		return int64(0), ""
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return nil, fmt.Sprintf("cannot convert %q to int", t)
		}
		return i, ""
	}
	if i, ok := asInt(args[0]); ok {
		return i, ""
	}
	if f, ok := asFloat(args[0]); ok {
		return int64(f), ""
	}
	return nil, "cannot convert " + typeName(args[0]) + " to int"
}

func builtinFloat(args []any) (any, string) {
	switch t := args[0].(type) {
	case bool:
		if t {
			return float64(1), ""
		}
		return float64(0), ""
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return nil, fmt.Sprintf("cannot convert %q to float", t)
		}
		return f, ""
	}
	if f, ok := asFloat(args[0]); ok {
		return f, ""
	}
	return nil, "cannot convert " + typeName(args[0]) + " to float"
}

func builtinLen(args []any) (any, string) {
	switch t := args[0].(type) {
	case string:
		return runeLen(t), ""
	case []any:
		return int64(len(t)), ""
	case map[string]any:
		return int64(len(t)), ""
	}
	return nil, "expects a string, list or map, got " + typeName(args[0])
}
