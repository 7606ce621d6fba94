package validator

import (
	"fmt"
	"strings"

	"mercator-hq/ganymede/pkg/gml/ast"
	gmlErrors "mercator-hq/ganymede/pkg/gml/errors"
)

// SemanticValidator checks cross-references inside a rule file: rule and
// ruleset dependency graphs, duplicate names and expressions that failed
// to compile. Dependency cycles are errors because the engine cannot
// order the work; everything else degrades to a skipped rule or a
// default value at run time and is reported as a warning.
type SemanticValidator struct {
	errors   *gmlErrors.ErrorList
	warnings *gmlErrors.ErrorList
}

// NewSemanticValidator creates a semantic validator.
func NewSemanticValidator() *SemanticValidator {
	return &SemanticValidator{
		errors:   gmlErrors.NewErrorList(),
		warnings: gmlErrors.NewErrorList(),
	}
}

// Validate checks rule and ruleset relationships. It returns an
// ErrorList if any fatal problems were found.
func (v *SemanticValidator) Validate(file *ast.RuleFile) error {
	v.errors = gmlErrors.NewErrorList()
	v.warnings = gmlErrors.NewErrorList()

	if file == nil {
		return nil
	}
	for _, rs := range file.RuleSets {
		v.validateRuleSet(rs)
	}
	v.validateRuleSetDependencies(file)
	return v.errors.ToError()
}

// Warnings returns non-fatal findings from the last Validate call.
func (v *SemanticValidator) Warnings() []*gmlErrors.Error {
	return v.warnings.Errors
}

func (v *SemanticValidator) validateRuleSet(rs *ast.RuleSet) {
	index := make(map[string]int)
	for i, r := range rs.Rules {
		if r.Name == "" {
			continue
		}
		if prev, ok := index[r.Name]; ok {
			v.warnings.AddError(
				gmlErrors.ErrorTypeSemantic,
				fmt.Sprintf("ruleset %q defines rule %q more than once (first at position %d); dependencies resolve to the first", rs.DisplayName(), r.Name, prev+1),
				r.Location,
			)
			continue
		}
		index[r.Name] = i
	}

	for i, r := range rs.Rules {
		for _, dep := range r.DependsOn {
			at, ok := index[dep]
			switch {
			case !ok:
				v.warnings.AddErrorWithSuggestion(
					gmlErrors.ErrorTypeSemantic,
					fmt.Sprintf("rule %q depends on %q which is not defined in ruleset %q; the rule will never run", r.DisplayName(), dep, rs.DisplayName()),
					r.Location,
					gmlErrors.SuggestKey(dep, ruleNames(rs)),
				)
			case at > i:
				// at == i is a self-dependency, reported as a cycle.
				v.warnings.AddError(
					gmlErrors.ErrorTypeSemantic,
					fmt.Sprintf("rule %q depends on %q which runs later in ruleset %q; the dependency can never be satisfied", r.DisplayName(), dep, rs.DisplayName()),
					r.Location,
				)
			}
		}
		v.validateRuleExpressions(rs, r)
		if r.Actions == nil {
			continue
		}
		for _, seq := range r.Actions.Sequences {
			if seq.Spec.ID == "" && r.Name == "" {
				v.warnings.AddError(
					gmlErrors.ErrorTypeSemantic,
					fmt.Sprintf("independent sequence in an unnamed rule of ruleset %q is skipped at run time; name the rule or give the sequence an 'id'", rs.DisplayName()),
					seq.Spec.Location,
				)
			}
		}
	}

	v.checkRuleCycles(rs, index)
	v.validateContext(rs)
}

// checkRuleCycles walks the rule dependency graph with a DFS, tracking
// nodes on the current path so a back edge identifies the cycle.
func (v *SemanticValidator) checkRuleCycles(rs *ast.RuleSet, index map[string]int) {
	graph := make(map[string][]string)
	for _, r := range rs.Rules {
		if r.Name == "" {
			continue
		}
		for _, dep := range r.DependsOn {
			if _, ok := index[dep]; ok {
				graph[r.Name] = append(graph[r.Name], dep)
			}
		}
	}

	visited := make(map[string]bool)
	inProgress := make(map[string]bool)
	for _, r := range rs.Rules {
		if r.Name == "" || visited[r.Name] {
			continue
		}
		if cycle := findCycle(r.Name, graph, visited, inProgress, nil); cycle != nil {
			v.errors.AddErrorWithSuggestion(
				gmlErrors.ErrorTypeSemantic,
				fmt.Sprintf("dependency cycle among rules in ruleset %q: %s", rs.DisplayName(), strings.Join(cycle, " -> ")),
				r.Location,
				"break the cycle by removing one of the depends_on entries",
			)
		}
	}
}

func (v *SemanticValidator) validateRuleSetDependencies(file *ast.RuleFile) {
	index := make(map[string]int)
	for i, rs := range file.RuleSets {
		name := rs.DisplayName()
		if prev, ok := index[name]; ok {
			v.warnings.AddError(
				gmlErrors.ErrorTypeSemantic,
				fmt.Sprintf("rule file defines ruleset %q more than once (first at position %d); dependencies resolve to the first", name, prev+1),
				rs.Location,
			)
			continue
		}
		index[name] = i
	}

	names := make([]string, 0, len(file.RuleSets))
	for _, rs := range file.RuleSets {
		names = append(names, rs.DisplayName())
	}

	graph := make(map[string][]string)
	for i, rs := range file.RuleSets {
		for _, dep := range rs.DependsOn {
			at, ok := index[dep]
			switch {
			case !ok:
				v.warnings.AddErrorWithSuggestion(
					gmlErrors.ErrorTypeSemantic,
					fmt.Sprintf("ruleset %q depends on %q which is not defined; the ruleset will be skipped for every document", rs.DisplayName(), dep),
					rs.Location,
					gmlErrors.SuggestKey(dep, names),
				)
			case at > i:
				v.warnings.AddError(
					gmlErrors.ErrorTypeSemantic,
					fmt.Sprintf("ruleset %q depends on %q which is processed later; the dependency can never be satisfied", rs.DisplayName(), dep),
					rs.Location,
				)
				graph[rs.DisplayName()] = append(graph[rs.DisplayName()], dep)
			default:
				graph[rs.DisplayName()] = append(graph[rs.DisplayName()], dep)
			}
		}
	}

	visited := make(map[string]bool)
	inProgress := make(map[string]bool)
	for _, rs := range file.RuleSets {
		name := rs.DisplayName()
		if visited[name] {
			continue
		}
		if cycle := findCycle(name, graph, visited, inProgress, nil); cycle != nil {
			v.errors.AddErrorWithSuggestion(
				gmlErrors.ErrorTypeSemantic,
				fmt.Sprintf("dependency cycle among rulesets: %s", strings.Join(cycle, " -> ")),
				rs.Location,
				"break the cycle by removing one of the depends_on entries",
			)
		}
	}
}

func (v *SemanticValidator) validateContext(rs *ast.RuleSet) {
	seen := make(map[string]bool)
	for _, cv := range rs.Context {
		if seen[cv.Name] {
			v.warnings.AddError(
				gmlErrors.ErrorTypeSemantic,
				fmt.Sprintf("context variable %q in ruleset %q is defined more than once; the later definition wins", cv.Name, rs.DisplayName()),
				cv.Location,
			)
		}
		seen[cv.Name] = true
		v.checkSpec(cv.Value, fmt.Sprintf("context variable %q in ruleset %q", cv.Name, rs.DisplayName()), "evaluates to its default or is left unset")
	}
}

func (v *SemanticValidator) validateRuleExpressions(rs *ast.RuleSet, r *ast.Rule) {
	where := fmt.Sprintf("rule %q in ruleset %q", r.DisplayName(), rs.DisplayName())
	for _, c := range r.Conditions {
		if c.Kind == ast.ConditionExpression {
			v.checkSpec(c.Expr, "condition of "+where, "is treated as false")
		}
	}
	if r.Actions == nil {
		return
	}
	for _, a := range r.Actions.Sets {
		v.checkSpec(a.Value, "set action of "+where, "leaves the field unchanged")
	}
	for _, ins := range r.Actions.Appends {
		for _, spec := range ins.Values {
			v.checkSpec(spec, "append action of "+where, "inserts nothing")
		}
	}
	for _, ins := range r.Actions.Prepends {
		for _, spec := range ins.Values {
			v.checkSpec(spec, "prepend action of "+where, "inserts nothing")
		}
	}
}

// checkSpec reports a retained compile failure on an expression-backed
// value. outcome describes what the engine does instead when it hits the
// broken expression.
func (v *SemanticValidator) checkSpec(spec *ast.ValueSpec, where, outcome string) {
	if spec == nil || !spec.IsExpr || spec.CompileErr == nil {
		return
	}
	v.warnings.AddError(
		gmlErrors.ErrorTypeSemantic,
		fmt.Sprintf("expression in %s does not compile: %v; it %s", where, spec.CompileErr, outcome),
		spec.Location,
	)
}

func ruleNames(rs *ast.RuleSet) []string {
	var out []string
	for _, r := range rs.Rules {
		if r.Name != "" {
			out = append(out, r.Name)
		}
	}
	return out
}

// findCycle performs the DFS step. It returns the cycle path when node
// reaches a vertex already on the current path, nil otherwise.
func findCycle(node string, graph map[string][]string, visited, inProgress map[string]bool, path []string) []string {
	visited[node] = true
	inProgress[node] = true
	path = append(path, node)

	for _, dep := range graph[node] {
		if inProgress[dep] {
			return append(path, dep)
		}
		if !visited[dep] {
			if cycle := findCycle(dep, graph, visited, inProgress, path); cycle != nil {
				return cycle
			}
		}
	}

	inProgress[node] = false
	return nil
}
