package ast

// Rule is one migration rule: optional dependency gate, conditions
// (AND semantics, empty means always true) and an action bundle.
// A name is only required when the rule owns an independent sequence.
type Rule struct {
	Name       string
	DependsOn  []string
	Conditions []*Condition
	Actions    *ActionBundle
	Location   Location
}

// DisplayName returns the rule name for logs, or a stable placeholder
// when the rule is unnamed.
func (r *Rule) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return "unnamed rule"
}

// ConditionKind discriminates the two condition forms.
type ConditionKind string

const (
	// ConditionStructured is a path-based check with optional exists,
	// value, regex_match, min and max constraints combined by AND.
	ConditionStructured ConditionKind = "structured"
	// ConditionExpression is a free-form expression whose truthiness
	// decides the condition.
	ConditionExpression ConditionKind = "expression"
)

// Condition is one element of a rule's condition list.
//
// For the structured kind only the fields whose presence flag (or
// pointer) is set take part in the check. Regex patterns stay as source
// strings because placeholder substitution can change them per entry;
// the engine compiles and caches the substituted form.
type Condition struct {
	Kind ConditionKind

	// Structured form
	Path     string
	Exists   *bool
	Value    any
	HasValue bool
	Regex    string
	HasRegex bool
	Min      *float64
	Max      *float64

	// Expression form
	Expr *ValueSpec

	Location Location
}
