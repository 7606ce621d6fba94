package validator

import (
	"fmt"
	"regexp"
	"strings"

	"mercator-hq/ganymede/pkg/gml/ast"
	gmlErrors "mercator-hq/ganymede/pkg/gml/errors"
)

// StructuralValidator checks that a rule file has the shape the engine
// requires. The parser already enforces most of this for files read from
// disk; this pass covers ASTs built in code and collects shape problems
// that the parser deliberately leaves to validation.
type StructuralValidator struct {
	errors   *gmlErrors.ErrorList
	warnings *gmlErrors.ErrorList
}

// NewStructuralValidator creates a structural validator.
func NewStructuralValidator() *StructuralValidator {
	return &StructuralValidator{
		errors:   gmlErrors.NewErrorList(),
		warnings: gmlErrors.NewErrorList(),
	}
}

// Validate checks the rule file structure. It returns an ErrorList if
// any structural errors were found.
func (v *StructuralValidator) Validate(file *ast.RuleFile) error {
	v.errors = gmlErrors.NewErrorList()
	v.warnings = gmlErrors.NewErrorList()

	if file == nil {
		v.errors.AddError(gmlErrors.ErrorTypeStructural, "rule file is nil", ast.Location{})
		return v.errors.ToError()
	}
	if len(file.RuleSets) == 0 {
		v.warnings.AddError(gmlErrors.ErrorTypeStructural, "rule file defines no rulesets; it will never change anything", file.Location)
	}
	for _, rs := range file.RuleSets {
		v.validateRuleSet(rs)
	}
	return v.errors.ToError()
}

// Warnings returns non-fatal findings from the last Validate call.
func (v *StructuralValidator) Warnings() []*gmlErrors.Error {
	return v.warnings.Errors
}

func (v *StructuralValidator) validateRuleSet(rs *ast.RuleSet) {
	if rs.Content == "" {
		v.errors.AddErrorWithSuggestion(
			gmlErrors.ErrorTypeStructural,
			fmt.Sprintf("ruleset %q is missing the required 'content' field", rs.DisplayName()),
			rs.Location,
			"add 'content: <record kind>' so the ruleset can be matched to documents",
		)
	}
	if len(rs.Rules) == 0 {
		v.warnings.AddError(
			gmlErrors.ErrorTypeStructural,
			fmt.Sprintf("ruleset %q defines no rules", rs.DisplayName()),
			rs.Location,
		)
	}
	for _, cv := range rs.Context {
		if cv.Name == "" {
			v.errors.AddError(gmlErrors.ErrorTypeStructural, "context variable is missing a name", rs.Location)
		}
	}
	for _, r := range rs.Rules {
		v.validateRule(rs, r)
	}
}

func (v *StructuralValidator) validateRule(rs *ast.RuleSet, r *ast.Rule) {
	if r.Actions == nil {
		v.errors.AddErrorWithSuggestion(
			gmlErrors.ErrorTypeStructural,
			fmt.Sprintf("rule %q in ruleset %q has no actions", r.DisplayName(), rs.DisplayName()),
			r.Location,
			"add an 'actions' block; a rule without actions cannot do anything",
		)
	}
	for _, c := range r.Conditions {
		v.validateCondition(rs, r, c)
	}
	if r.Actions == nil {
		return
	}
	for _, seq := range r.Actions.Sequences {
		if seq.Spec.Step == 0 {
			v.warnings.AddError(
				gmlErrors.ErrorTypeStructural,
				fmt.Sprintf("sequence on rule %q has step 0 and will assign the same value to every record", r.DisplayName()),
				seq.Spec.Location,
			)
		}
	}
	for _, rn := range r.Actions.Renames {
		if rn.From == "" || rn.To == "" {
			v.errors.AddError(
				gmlErrors.ErrorTypeStructural,
				fmt.Sprintf("rename in rule %q needs both an old and a new path", r.DisplayName()),
				r.Actions.Location,
			)
		}
	}
}

func (v *StructuralValidator) validateCondition(rs *ast.RuleSet, r *ast.Rule, c *ast.Condition) {
	switch c.Kind {
	case ast.ConditionExpression:
		return
	case ast.ConditionStructured:
		if c.Path == "" {
			v.warnings.AddError(
				gmlErrors.ErrorTypeStructural,
				fmt.Sprintf("condition in rule %q has no 'path' and will never hold; the rule is skipped", r.DisplayName()),
				c.Location,
			)
			return
		}
		if c.Min != nil && c.Max != nil && *c.Min > *c.Max {
			v.warnings.AddError(
				gmlErrors.ErrorTypeStructural,
				fmt.Sprintf("condition on %q in rule %q has min %v greater than max %v and can never hold", c.Path, r.DisplayName(), *c.Min, *c.Max),
				c.Location,
			)
		}
		if c.HasRegex && !strings.Contains(c.Regex, "{") {
			// Patterns with placeholders are rewritten per record and can
			// only be checked at run time.
			if _, err := regexp.Compile(c.Regex); err != nil {
				v.warnings.AddError(
					gmlErrors.ErrorTypeStructural,
					fmt.Sprintf("condition on %q in rule %q has an invalid regex: %v; the condition will never hold", c.Path, r.DisplayName(), err),
					c.Location,
				)
			}
		}
	}
}
