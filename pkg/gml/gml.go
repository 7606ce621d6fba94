package gml

import (
	"mercator-hq/ganymede/pkg/gml/ast"
	"mercator-hq/ganymede/pkg/gml/parser"
	"mercator-hq/ganymede/pkg/gml/validator"
)

// ParseAndValidate parses and validates a rule file in one call. Most
// callers want this; the engine only accepts files that validate.
func ParseAndValidate(path string) (*ast.RuleFile, error) {
	p := parser.NewParser()
	file, err := p.Parse(path)
	if err != nil {
		return nil, err
	}

	v := validator.NewValidator()
	if err := v.Validate(file); err != nil {
		return nil, err
	}

	return file, nil
}

// ParseAndValidateBytes is ParseAndValidate for in-memory rule YAML.
// sourcePath only labels locations in error messages.
func ParseAndValidateBytes(data []byte, sourcePath string) (*ast.RuleFile, error) {
	p := parser.NewParser()
	file, err := p.ParseBytes(data, sourcePath)
	if err != nil {
		return nil, err
	}

	v := validator.NewValidator()
	if err := v.Validate(file); err != nil {
		return nil, err
	}

	return file, nil
}

// Parse parses a rule file without validating it, for tools that want
// the raw AST.
func Parse(path string) (*ast.RuleFile, error) {
	p := parser.NewParser()
	return p.Parse(path)
}

// Validate validates a parsed rule file.
func Validate(file *ast.RuleFile) error {
	v := validator.NewValidator()
	return v.Validate(file)
}
