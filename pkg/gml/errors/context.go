package errors

import (
	"fmt"
	"os"
	"strings"

	"mercator-hq/ganymede/pkg/gml/ast"
)

// ExtractContext reads the rule file and renders the lines around the
// location, marking the offending line. Returns "" when the file cannot
// be read, so callers can attach context opportunistically.
func ExtractContext(location ast.Location, around int) string {
	if !location.IsValid() {
		return ""
	}
	data, err := os.ReadFile(location.File)
	if err != nil {
		return ""
	}
	lines := strings.Split(string(data), "\n")

	errLine := location.Line - 1
	if errLine < 0 || errLine >= len(lines) {
		return ""
	}
	start := max(errLine-around, 0)
	end := min(errLine+around, len(lines)-1)

	width := len(fmt.Sprintf("%d", end+1))
	var sb strings.Builder
	for i := start; i <= end; i++ {
		marker := "  "
		if i == errLine {
			marker = "->"
		}
		fmt.Fprintf(&sb, "  %s %*d | %s\n", marker, width, i+1, lines[i])
		if i == errLine && location.Column > 0 {
			fmt.Fprintf(&sb, "     %*s | %s^\n", width, "", strings.Repeat(" ", location.Column-1))
		}
	}
	return sb.String()
}

// AddContext enriches the error with surrounding source lines.
func AddContext(err *Error) *Error {
	if err.Location.IsValid() && err.Context == "" {
		err.Context = ExtractContext(err.Location, 2)
	}
	return err
}
