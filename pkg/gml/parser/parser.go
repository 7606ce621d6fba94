package parser

import (
	"fmt"
	"os"

	"mercator-hq/ganymede/pkg/gml/ast"
	gmlErrors "mercator-hq/ganymede/pkg/gml/errors"
)

// Parser reads GML rule files into ASTs.
type Parser struct {
	maxFileSize int64 // refuse files larger than this
	strict      bool  // unknown keys become errors
}

// NewParser creates a parser with default configuration.
func NewParser() *Parser {
	return &Parser{
		maxFileSize: 10 * 1024 * 1024,
	}
}

// WithMaxFileSize sets the maximum rule file size in bytes.
func (p *Parser) WithMaxFileSize(size int64) *Parser {
	p.maxFileSize = size
	return p
}

// WithStrictMode makes the parser reject unknown keys instead of
// ignoring them.
func (p *Parser) WithStrictMode(strict bool) *Parser {
	p.strict = strict
	return p
}

// Parse parses the rule file at path. Structural problems are returned
// as an *errors.ErrorList covering everything wrong with the file.
func (p *Parser) Parse(path string) (*ast.RuleFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &gmlErrors.Error{
			Type:     gmlErrors.ErrorTypeIO,
			Message:  fmt.Sprintf("cannot access rule file: %v", err),
			Location: ast.Location{File: path},
		}
	}
	if info.Size() > p.maxFileSize {
		return nil, &gmlErrors.Error{
			Type:     gmlErrors.ErrorTypeIO,
			Message:  fmt.Sprintf("rule file is %d bytes, limit is %d", info.Size(), p.maxFileSize),
			Location: ast.Location{File: path},
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &gmlErrors.Error{
			Type:     gmlErrors.ErrorTypeIO,
			Message:  fmt.Sprintf("cannot read rule file: %v", err),
			Location: ast.Location{File: path},
		}
	}
	return p.ParseBytes(data, path)
}

// ParseBytes parses rule YAML from memory. sourcePath is used for error
// locations only.
func (p *Parser) ParseBytes(data []byte, sourcePath string) (*ast.RuleFile, error) {
	if int64(len(data)) > p.maxFileSize {
		return nil, &gmlErrors.Error{
			Type:     gmlErrors.ErrorTypeIO,
			Message:  fmt.Sprintf("rule data is %d bytes, limit is %d", len(data), p.maxFileSize),
			Location: ast.Location{File: sourcePath},
		}
	}

	root, err := loadYAML(data)
	if err != nil {
		return nil, &gmlErrors.Error{
			Type:       gmlErrors.ErrorTypeSyntax,
			Message:    fmt.Sprintf("YAML parsing failed: %v", err),
			Location:   ast.Location{File: sourcePath, Line: 1, Column: 1},
			Suggestion: "check YAML syntax (indentation, colons, quotes)",
		}
	}

	b := newBuilder(sourcePath, p.strict)
	file, err := b.buildFile(root)
	if err != nil {
		if errList, ok := err.(*gmlErrors.ErrorList); ok {
			for _, e := range errList.Errors {
				gmlErrors.AddContext(e)
			}
		}
		return nil, err
	}
	return file, nil
}
