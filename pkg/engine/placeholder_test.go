package engine

import (
	"reflect"
	"testing"
)

func TestPlaceholdersApply(t *testing.T) {
	ph := &placeholders{}
	ph.add("content_id", "sword")
	ph.add("tier", 3)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "no braces passes through",
			in:   "plain.path",
			want: "plain.path",
		},
		{
			name: "single token",
			in:   "items.{content_id}",
			want: "items.sword",
		},
		{
			name: "numeric value stringified",
			in:   "tier_{tier}",
			want: "tier_3",
		},
		{
			name: "multiple tokens",
			in:   "{content_id}-{tier}",
			want: "sword-3",
		},
		{
			name: "unknown token left alone",
			in:   "x.{unknown}",
			want: "x.{unknown}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ph.apply(tt.in); got != tt.want {
				t.Errorf("apply(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPlaceholdersSubstituteOrder(t *testing.T) {
	// content_id is registered first, so a context variable whose value
	// contains "{content_id}" is expanded before its own token is used.
	ph := &placeholders{}
	ph.add("content_id", "sword")
	ph.add("label", "{content_id}_x")

	if got := ph.apply("{label}"); got != "{content_id}_x" {
		t.Errorf("apply({label}) = %q, earlier entries must not rewrite later values", got)
	}
	// The table substitutes in registration order over the input string.
	if got := ph.apply("{content_id}/{label}"); got != "sword/{content_id}_x" {
		t.Errorf("apply = %q", got)
	}
}

func TestSubstituteValueReparse(t *testing.T) {
	ph := &placeholders{}
	ph.add("level", 7)
	ph.add("flag", true)
	ph.add("name", "iron sword")

	tests := []struct {
		name string
		in   any
		want any
	}{
		{
			name: "pure numeric token becomes a number",
			in:   "{level}",
			want: 7,
		},
		{
			name: "boolean token becomes a bool",
			in:   "{flag}",
			want: true,
		},
		{
			name: "embedded token stays a string",
			in:   "lv{level}",
			want: "lv7",
		},
		{
			name: "plain string token stays a string",
			in:   "{name}",
			want: "iron sword",
		},
		{
			name: "unchanged string is returned as-is",
			in:   "static",
			want: "static",
		},
		{
			name: "non-string passes through",
			in:   42,
			want: 42,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ph.substituteValue(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("substituteValue(%v) = %v (%T), want %v (%T)", tt.in, got, got, tt.want, tt.want)
			}
		})
	}
}

func TestSubstituteValueRecurses(t *testing.T) {
	ph := &placeholders{}
	ph.add("tier", "gold")

	in := map[string]any{
		"label_{tier}": "tier is {tier}",
		"nested": []any{
			"{tier}",
			map[string]any{"deep": "{tier}_badge"},
		},
	}
	got := ph.substituteValue(in)

	want := map[string]any{
		"label_gold": "tier is gold",
		"nested": []any{
			"gold",
			map[string]any{"deep": "gold_badge"},
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("substituteValue = %v, want %v", got, want)
	}

	// The rule file's literal must survive untouched for the next entry.
	if _, ok := in["label_{tier}"]; !ok {
		t.Error("input map was mutated")
	}
	if in["nested"].([]any)[0] != "{tier}" {
		t.Error("input list was mutated")
	}
}
