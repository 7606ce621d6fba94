package engine

import (
	"strings"

	"gopkg.in/yaml.v3"

	"mercator-hq/ganymede/pkg/expr"
)

// placeholders is the ordered substitution table for one entry pass:
// content_id and content_type first, then every context variable in
// declaration order. Order matters because one value may itself contain
// a brace pattern.
type placeholders struct {
	names  []string
	values []string
}

func (p *placeholders) add(name string, value any) {
	p.names = append(p.names, name)
	p.values = append(p.values, expr.Stringify(value))
}

// apply replaces every {name} occurrence in s.
func (p *placeholders) apply(s string) string {
	if !strings.Contains(s, "{") {
		return s
	}
	for i, name := range p.names {
		s = strings.ReplaceAll(s, "{"+name+"}", p.values[i])
	}
	return s
}

// substitutePath substitutes placeholders in a path or pattern string.
// The result stays a string.
func (p *placeholders) substitutePath(s string) string {
	return p.apply(s)
}

// substituteValue substitutes placeholders recursively through a literal
// value. Strings that change are re-read as YAML so "{level}" can become
// the number it names; strings that fail to re-read stay strings. Maps
// get fresh copies with substituted keys and values, lists fresh copies
// with substituted elements; the rule file's literals are never mutated.
func (p *placeholders) substituteValue(v any) any {
	switch t := v.(type) {
	case string:
		ns := p.apply(t)
		if ns == t {
			return t
		}
		return reparse(ns)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = p.substituteValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[p.apply(k)] = p.substituteValue(e)
		}
		return out
	}
	return v
}

// reparse reads a substituted string as a YAML value. "5" becomes an
// int, "true" a bool, "a: b" a map. Unparseable strings are returned
// verbatim.
func reparse(s string) any {
	var v any
	if err := yaml.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}
