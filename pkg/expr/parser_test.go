package expr

import (
	"strings"
	"testing"
)

// TestCompileErrors tests that malformed expressions are rejected at
// compile time with a useful message.
func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			name:   "empty source",
			source: "",
			want:   "unexpected end of expression",
		},
		{
			name:   "dangling operator",
			source: "1 +",
			want:   "unexpected end of expression",
		},
		{
			name:   "single equals",
			source: "level = 1",
			want:   "single '=' is not an operator",
		},
		{
			name:   "bare bang",
			source: "!level",
			want:   "unexpected '!'",
		},
		{
			name:   "chained comparison",
			source: "1 < x < 10",
			want:   "chained comparisons are not supported",
		},
		{
			name:   "unterminated string",
			source: "'oops",
			want:   "unterminated string literal",
		},
		{
			name:   "unknown escape",
			source: `'\q'`,
			want:   "unknown escape sequence",
		},
		{
			name:   "unbalanced paren",
			source: "(1 + 2",
			want:   "expected ')'",
		},
		{
			name:   "trailing garbage",
			source: "1 + 2 3",
			want:   `unexpected "3" after expression`,
		},
		{
			name:   "call on non-identifier",
			source: "(1 + 2)(3)",
			want:   "only registry functions can be called",
		},
		{
			name:   "conditional missing else",
			source: "1 if x",
			want:   "expected 'else'",
		},
		{
			name:   "empty f-string interpolation",
			source: "f'{}'",
			want:   "empty interpolation",
		},
		{
			name:   "unclosed f-string brace",
			source: "f'{name'",
			want:   "unclosed '{' in f-string",
		},
		{
			name:   "stray closing brace",
			source: "f'a}b'",
			want:   "single '}' in f-string",
		},
		{
			name:   "bad expression inside f-string",
			source: "f'{1 +}'",
			want:   "in f-string interpolation",
		},
		{
			name:   "missing subscript close",
			source: "tags[1",
			want:   "':' or ']' in subscript",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.source)
			if err == nil {
				t.Fatalf("Compile(%q) succeeded, want error containing %q", tt.source, tt.want)
			}
			if _, ok := err.(*EvalError); !ok {
				t.Errorf("Compile(%q) error type = %T, want *EvalError", tt.source, err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Compile(%q) error = %q, want substring %q", tt.source, err.Error(), tt.want)
			}
		})
	}
}

// TestCompileAccepts tests that well-formed expressions compile.
func TestCompileAccepts(t *testing.T) {
	sources := []string{
		"1",
		"1.5e3",
		".5",
		"-x + +y",
		`'it\'s'`,
		`"double" + 'single'`,
		"a and not b or c",
		"'yes' if count > 0 else 'no'",
		"data.damage.min",
		"tags[0][1:2]",
		"get(data, 'a.b', 0)",
		"name.upper().lower()",
		"f''",
		"f'{{}}'",
		"f'{a}{b}'",
		"True and False or None",
		"none == null",
	}
	for _, source := range sources {
		if _, err := Compile(source); err != nil {
			t.Errorf("Compile(%q) unexpected error: %v", source, err)
		}
	}
}

// TestNumberLiterals tests lexing and typing of numeric literals.
func TestNumberLiterals(t *testing.T) {
	tests := []struct {
		source string
		want   any
	}{
		{"0", int64(0)},
		{"42", int64(42)},
		{"3.5", 3.5},
		{".25", 0.25},
		{"1e3", 1000.0},
		{"2.5e-1", 0.25},
		{"9223372036854775807", int64(9223372036854775807)},
		{"9223372036854775808", 9.223372036854776e18},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			got, err := Eval(tt.source, MapScope{})
			if err != nil {
				t.Fatalf("Eval(%q) unexpected error: %v", tt.source, err)
			}
			if got != tt.want {
				t.Errorf("Eval(%q) got = %v (%T), want %v (%T)", tt.source, got, got, tt.want, tt.want)
			}
		})
	}
}
