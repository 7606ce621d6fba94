package validator

import (
	"mercator-hq/ganymede/pkg/gml/ast"
	gmlErrors "mercator-hq/ganymede/pkg/gml/errors"
)

// Validator runs the structural and semantic passes over a rule file.
// The semantic pass only runs when the structure is sound, so its checks
// can assume required fields are present.
type Validator struct {
	structural *StructuralValidator
	semantic   *SemanticValidator
	strict     bool
}

// NewValidator creates a validator with default settings.
func NewValidator() *Validator {
	return &Validator{
		structural: NewStructuralValidator(),
		semantic:   NewSemanticValidator(),
	}
}

// WithStrictMode promotes warnings to errors.
func (v *Validator) WithStrictMode(strict bool) *Validator {
	v.strict = strict
	return v
}

// Validate checks the rule file and returns an ErrorList describing
// every problem found, or nil when the file is usable.
func (v *Validator) Validate(file *ast.RuleFile) error {
	all := gmlErrors.NewErrorList()

	if err := v.structural.Validate(file); err != nil {
		if list, ok := err.(*gmlErrors.ErrorList); ok {
			all.Merge(list)
		} else {
			all.Add(&gmlErrors.Error{Type: gmlErrors.ErrorTypeStructural, Message: err.Error()})
		}
	}

	// Semantic checks dereference fields the structural pass guards, so
	// they are skipped when the structure is broken.
	if !all.HasErrorType(gmlErrors.ErrorTypeStructural) {
		if err := v.semantic.Validate(file); err != nil {
			if list, ok := err.(*gmlErrors.ErrorList); ok {
				all.Merge(list)
			} else {
				all.Add(&gmlErrors.Error{Type: gmlErrors.ErrorTypeSemantic, Message: err.Error()})
			}
		}
	}

	if v.strict {
		for _, w := range v.Warnings() {
			all.Add(w)
		}
	}
	return all.ToError()
}

// Warnings returns the non-fatal findings from the last Validate call.
// In strict mode the same findings are also folded into the error list.
func (v *Validator) Warnings() []*gmlErrors.Error {
	out := make([]*gmlErrors.Error, 0, len(v.structural.Warnings())+len(v.semantic.Warnings()))
	out = append(out, v.structural.Warnings()...)
	return append(out, v.semantic.Warnings()...)
}
