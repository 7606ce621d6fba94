package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"
)

// stringerResult mimics a command result with a custom text rendering.
type stringerResult struct {
	File  string `json:"file"`
	Valid bool   `json:"valid"`
}

func (r stringerResult) String() string {
	return fmt.Sprintf("%s: valid=%t", r.File, r.Valid)
}

func TestTextFormatter(t *testing.T) {
	formatter := &TextFormatter{}
	buf := &bytes.Buffer{}

	if err := formatter.FormatTo(buf, "converted 3 files"); err != nil {
		t.Fatalf("text format: %v", err)
	}
	if got, want := buf.String(), "converted 3 files\n"; got != want {
		t.Errorf("text output = %q, want %q", got, want)
	}
}

func TestTextFormatter_Stringer(t *testing.T) {
	formatter := &TextFormatter{}
	buf := &bytes.Buffer{}

	result := stringerResult{File: "rules.yml", Valid: true}
	if err := formatter.FormatTo(buf, result); err != nil {
		t.Fatalf("text format: %v", err)
	}
	if got, want := buf.String(), "rules.yml: valid=true\n"; got != want {
		t.Errorf("text output = %q, want %q", got, want)
	}
}

func TestJSONFormatter(t *testing.T) {
	tests := []struct {
		name   string
		data   any
		indent bool
	}{
		{name: "plain string", data: "done", indent: false},
		{name: "indented map", data: map[string]string{"status": "converted"}, indent: true},
		{name: "tagged struct", data: stringerResult{File: "rules.yml", Valid: false}, indent: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &JSONFormatter{Indent: tt.indent}

			if err := formatter.FormatTo(buf, tt.data); err != nil {
				t.Fatalf("json format: %v", err)
			}
			var decoded any
			if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
				t.Errorf("output is not valid JSON: %v\n%s", err, buf.String())
			}
		})
	}
}

func TestJSONFormatter_JSONTagsWin(t *testing.T) {
	// JSON output uses the struct tags, not the String method.
	formatter := &JSONFormatter{Indent: false}
	buf := &bytes.Buffer{}

	if err := formatter.FormatTo(buf, stringerResult{File: "rules.yml", Valid: true}); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if decoded["file"] != "rules.yml" {
		t.Errorf("Expected file field, got %v", decoded)
	}
}

func TestNewFormatter(t *testing.T) {
	if _, ok := NewFormatter(FormatJSON).(*JSONFormatter); !ok {
		t.Error("expected a JSON formatter for FormatJSON")
	}
	if _, ok := NewFormatter(FormatText).(*TextFormatter); !ok {
		t.Error("expected a text formatter for FormatText")
	}
	// Unrecognized formats fall back to text.
	if _, ok := NewFormatter("bogus").(*TextFormatter); !ok {
		t.Error("expected the text formatter as fallback")
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    OutputFormat
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"json", FormatJSON, false},
		{"csv", "", true},
		{"yaml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseOutputFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseOutputFormat(%q) error = %v, wantErr %v",
					tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseOutputFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
