package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"mercator-hq/ganymede/pkg/cli"
	gmlErrors "mercator-hq/ganymede/pkg/gml/errors"
	"mercator-hq/ganymede/pkg/gml/parser"
	"mercator-hq/ganymede/pkg/gml/validator"
)

var validateFlags struct {
	file   string
	dir    string
	strict bool
	format string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate GML rule files",
	Long: `Check GML rule files without converting anything.

Each file is parsed and validated the same way convert would: YAML
syntax, rule structure (required fields, action shapes), semantics
(dependency references, cycles, duplicate names) and every embedded
expression. Findings that only degrade at run time are warnings;
--strict turns them into failures.

Examples:
  # One file
  ganymede validate --file rules.yml

  # Every .yml/.yaml file in a directory
  ganymede validate --dir rules/

  # Fail on warnings too
  ganymede validate --file rules.yml --strict

  # Machine-readable results
  ganymede validate --file rules.yml --format json`,
	RunE: validateRules,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateFlags.file, "file", "f", "", "rule file to validate")
	validateCmd.Flags().StringVarP(&validateFlags.dir, "dir", "d", "", "directory of rule files")
	validateCmd.Flags().BoolVar(&validateFlags.strict, "strict", false, "treat warnings as errors")
	validateCmd.Flags().StringVar(&validateFlags.format, "format", "text", "output format: text, json")
}

func validateRules(cmd *cobra.Command, args []string) error {
	if validateFlags.file == "" && validateFlags.dir == "" {
		return fmt.Errorf("one of --file or --dir is required")
	}

	var files []string

	if validateFlags.file != "" {
		files = append(files, validateFlags.file)
	}

	if validateFlags.dir != "" {
		for _, pattern := range []string{"*.yaml", "*.yml"} {
			matches, err := filepath.Glob(filepath.Join(validateFlags.dir, pattern))
			if err != nil {
				return fmt.Errorf("list rule files: %w", err)
			}
			files = append(files, matches...)
		}
	}

	if len(files) == 0 {
		return fmt.Errorf("no rule files found")
	}

	results := make([]ValidationResult, 0, len(files))

	for _, file := range files {
		results = append(results, validateRuleFile(file))
	}

	if validateFlags.format == "json" {
		return outputJSON(results)
	}
	return outputText(results, validateFlags.strict)
}

// ValidationResult is the per-file outcome. Warnings do not clear the
// Valid flag; --strict is applied when rendering.
type ValidationResult struct {
	File     string            `json:"file"`
	Valid    bool              `json:"valid"`
	Errors   []ValidationError `json:"errors,omitempty"`
	Warnings []ValidationError `json:"warnings,omitempty"`
}

// ValidationError is one finding, error or warning.
type ValidationError struct {
	Line       int    `json:"line,omitempty"`
	Column     int    `json:"column,omitempty"`
	Message    string `json:"message"`
	Severity   string `json:"severity"`
	Type       string `json:"type,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func validateRuleFile(path string) ValidationResult {
	result := ValidationResult{
		File:  path,
		Valid: true,
	}

	p := parser.NewParser()
	if validateFlags.strict {
		p.WithStrictMode(true)
	}

	file, err := p.Parse(path)
	if err != nil {
		result.Valid = false
		collectFindings(&result, err)
		return result
	}

	// Strict handling stays at the output stage so warnings render as
	// warnings even when they fail the run.
	v := validator.NewValidator()
	if err := v.Validate(file); err != nil {
		result.Valid = false
		collectFindings(&result, err)
	}

	for _, w := range v.Warnings() {
		result.Warnings = append(result.Warnings, ValidationError{
			Line:       w.Location.Line,
			Column:     w.Location.Column,
			Message:    w.Message,
			Severity:   "warning",
			Type:       string(w.Type),
			Suggestion: w.Suggestion,
		})
	}

	return result
}

// collectFindings flattens parser and validator errors into the result.
// Both stages report either one *gmlErrors.Error or a whole ErrorList.
func collectFindings(result *ValidationResult, err error) {
	switch e := err.(type) {
	case *gmlErrors.ErrorList:
		for _, item := range e.Errors {
			result.Errors = append(result.Errors, toValidationError(item))
		}
	case *gmlErrors.Error:
		result.Errors = append(result.Errors, toValidationError(e))
	default:
		result.Errors = append(result.Errors, ValidationError{
			Message:  err.Error(),
			Severity: "error",
		})
	}
}

func toValidationError(e *gmlErrors.Error) ValidationError {
	return ValidationError{
		Line:       e.Location.Line,
		Column:     e.Location.Column,
		Message:    e.Message,
		Severity:   "error",
		Type:       string(e.Type),
		Suggestion: e.Suggestion,
	}
}

func outputText(results []ValidationResult, strict bool) error {
	totalErrors := 0
	totalWarnings := 0

	for _, result := range results {
		switch {
		case len(result.Errors) == 0 && len(result.Warnings) == 0:
			fmt.Printf("%s: valid\n", result.File)
		case len(result.Errors) == 0:
			fmt.Printf("%s: valid, %s\n", result.File, count(len(result.Warnings), "warning"))
		default:
			fmt.Printf("%s: %s, %s\n", result.File,
				count(len(result.Errors), "error"), count(len(result.Warnings), "warning"))
		}

		for _, e := range result.Errors {
			printFinding("error", e)
			totalErrors++
		}
		for _, w := range result.Warnings {
			printFinding("warning", w)
			totalWarnings++
		}
	}

	fmt.Printf("\nchecked %s: %s, %s\n", count(len(results), "file"),
		count(totalErrors, "error"), count(totalWarnings, "warning"))

	if totalErrors > 0 || (strict && totalWarnings > 0) {
		if totalErrors == 0 {
			fmt.Println("strict mode: warnings fail validation")
		}
		return cli.NewCommandError("validate", fmt.Errorf("validation failed"))
	}

	return nil
}

// printFinding renders one finding indented under its file's status line.
func printFinding(severity string, f ValidationError) {
	fmt.Printf("  %s", severity)
	if f.Type != "" {
		fmt.Printf("[%s]", f.Type)
	}
	fmt.Printf(": %s", f.Message)
	if f.Line > 0 {
		if f.Column > 0 {
			fmt.Printf(" (line %d, col %d)", f.Line, f.Column)
		} else {
			fmt.Printf(" (line %d)", f.Line)
		}
	}
	fmt.Println()
	if f.Suggestion != "" {
		fmt.Printf("      suggestion: %s\n", f.Suggestion)
	}
}

func count(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func outputJSON(results []ValidationResult) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(results)
}
