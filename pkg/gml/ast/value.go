package ast

import "mercator-hq/ganymede/pkg/expr"

// ValueSpec is a literal value or a compiled expression with an optional
// default. Literal strings may carry placeholder tokens which are
// substituted per entry; expressions are evaluated against the entry
// scope.
type ValueSpec struct {
	// Literal carries the literal form payload. Unused when IsExpr.
	Literal any

	IsExpr     bool
	ExprSource string
	Program    *expr.Program // nil when the expression failed to compile
	CompileErr error         // retained compile failure, surfaces at evaluation

	Default    any
	HasDefault bool

	Location Location
}

// LiteralSpec builds a literal ValueSpec, mainly for tests and
// programmatic rule construction.
func LiteralSpec(v any) *ValueSpec {
	return &ValueSpec{Literal: v}
}

// ExprSpec builds an expression ValueSpec from source, compiling it
// immediately. A compile failure is retained, not returned.
func ExprSpec(source string) *ValueSpec {
	spec := &ValueSpec{IsExpr: true, ExprSource: source}
	prog, err := expr.Compile(source)
	if err != nil {
		spec.CompileErr = err
	} else {
		spec.Program = prog
	}
	return spec
}

// WithDefault sets the fallback used when evaluation fails.
func (v *ValueSpec) WithDefault(d any) *ValueSpec {
	v.Default = d
	v.HasDefault = true
	return v
}
