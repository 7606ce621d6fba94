package ast

import "fmt"

// Location is the source position of a node in the original rule file.
// Line and column numbering starts at 1.
type Location struct {
	File   string
	Line   int
	Column int
}

// String returns the location as "file:line:column".
func (l Location) String() string {
	if l.File == "" {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// IsValid reports whether the location carries usable file and line
// information.
func (l Location) IsValid() bool {
	return l.File != "" && l.Line > 0
}
