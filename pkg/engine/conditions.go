package engine

import (
	"regexp"
	"sync"

	"mercator-hq/ganymede/pkg/expr"
	"mercator-hq/ganymede/pkg/gml/ast"
	"mercator-hq/ganymede/pkg/tree"
)

// regexCache compiles condition patterns once per distinct pattern text.
// Patterns are cached after placeholder substitution, so a pattern like
// "{prefix}_.*" occupies one slot per distinct prefix seen.
type regexCache struct {
	mu       sync.Mutex
	compiled map[string]*regexp.Regexp
	failed   map[string]error
}

func newRegexCache() *regexCache {
	return &regexCache{
		compiled: make(map[string]*regexp.Regexp),
		failed:   make(map[string]error),
	}
}

// get returns the pattern compiled to match from the start of the
// subject, the usual match-versus-search distinction.
func (c *regexCache) get(pattern string) (*regexp.Regexp, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if re, ok := c.compiled[pattern]; ok {
		return re, nil
	}
	if err, ok := c.failed[pattern]; ok {
		return nil, err
	}
	re, err := regexp.Compile("^(?:" + pattern + ")")
	if err != nil {
		c.failed[pattern] = err
		return nil, err
	}
	c.compiled[pattern] = re
	return re, nil
}

// evalConditions reports whether every condition of the rule holds.
// An empty list always holds.
func (p *pass) evalConditions(rule *ast.Rule) bool {
	for _, cond := range rule.Conditions {
		if !p.evalCondition(rule, cond) {
			return false
		}
	}
	return true
}

func (p *pass) evalCondition(rule *ast.Rule, cond *ast.Condition) bool {
	if cond.Kind == ast.ConditionExpression {
		return p.evalExpressionCondition(rule, cond)
	}
	return p.evalStructuredCondition(rule, cond)
}

// evalExpressionCondition coerces the expression result by truthiness.
// Any failure counts as false so the rule just does not fire.
func (p *pass) evalExpressionCondition(rule *ast.Rule, cond *ast.Condition) bool {
	spec := cond.Expr
	if spec == nil || spec.CompileErr != nil {
		p.diag("condition", "", "rule %q: condition expression does not compile: %v", rule.DisplayName(), compileErr(spec))
		return false
	}
	result, err := spec.Program.Eval(p.scope)
	if err != nil {
		p.diag("condition", "", "rule %q: condition expression failed: %v", rule.DisplayName(), err)
		return false
	}
	return expr.Truthy(result)
}

// evalStructuredCondition checks the optional keys of one structured
// condition, combined by AND. exists compares key presence; the value,
// regex and range checks all fail on an absent path. A condition with a
// path and no checks holds vacuously.
func (p *pass) evalStructuredCondition(rule *ast.Rule, cond *ast.Condition) bool {
	if cond.Path == "" {
		p.diag("condition", "", "rule %q: condition has no 'path'", rule.DisplayName())
		return false
	}
	path := p.ph.substitutePath(cond.Path)
	actual, present := tree.Get(p.body, path)

	if cond.Exists != nil && *cond.Exists != present {
		return false
	}
	if !present && (cond.HasValue || cond.HasRegex || cond.Min != nil || cond.Max != nil) {
		return false
	}

	if cond.HasValue {
		expected := p.ph.substituteValue(cond.Value)
		if !expr.Equal(actual, expected) {
			return false
		}
	}

	if cond.HasRegex {
		s, ok := actual.(string)
		if !ok {
			return false
		}
		pattern := p.ph.substitutePath(cond.Regex)
		re, err := p.eng.regexes.get(pattern)
		if err != nil {
			p.diag("condition", path, "rule %q: bad regex %q: %v", rule.DisplayName(), pattern, err)
			return false
		}
		if !re.MatchString(s) {
			return false
		}
	}

	if cond.Min != nil || cond.Max != nil {
		f, ok := toFloat(actual)
		if !ok {
			return false
		}
		if cond.Min != nil && f < *cond.Min {
			return false
		}
		if cond.Max != nil && f > *cond.Max {
			return false
		}
	}

	return true
}

func compileErr(spec *ast.ValueSpec) error {
	if spec == nil {
		return nil
	}
	return spec.CompileErr
}

// toFloat widens the YAML numeric types. Booleans are not numbers here.
func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint64:
		return float64(t), true
	case float64:
		return t, true
	case float32:
		return float64(t), true
	}
	return 0, false
}
