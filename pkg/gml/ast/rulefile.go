package ast

// RuleFile is the root of a parsed GML file: an ordered list of rulesets.
// The order is the file order and drives execution order.
type RuleFile struct {
	Name        string // optional metadata, used in logs
	Version     string
	Description string

	RuleSets   []*RuleSet
	SourceFile string
	Location   Location
}

// RuleSet returns the ruleset with the given name, or nil. Rulesets
// without an explicit name are matched by their content category.
func (f *RuleFile) RuleSet(name string) *RuleSet {
	for _, rs := range f.RuleSets {
		if rs.DisplayName() == name {
			return rs
		}
	}
	return nil
}

// RuleSet groups the rules for one content category. Context variables
// are evaluated in declaration order before any rule runs; rules run in
// declaration order per entry.
type RuleSet struct {
	Name      string // optional label for logs and depends_on references
	Content   string // content category, matches pluralized top-level keys
	DependsOn []string
	Context   []*ContextVar
	Rules     []*Rule
	Location  Location
}

// DisplayName returns the name used in logs and dependency references:
// the explicit name if set, otherwise the content category.
func (rs *RuleSet) DisplayName() string {
	if rs.Name != "" {
		return rs.Name
	}
	if rs.Content != "" {
		return rs.Content
	}
	return "unnamed ruleset"
}

// Rule returns the first rule with the given name, or nil.
func (rs *RuleSet) Rule(name string) *Rule {
	for _, r := range rs.Rules {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// ContextVar is one ordered context declaration. Later declarations in
// the same ruleset may reference earlier ones by name; forward references
// fail at evaluation.
type ContextVar struct {
	Name     string
	Value    *ValueSpec
	Location Location
}
