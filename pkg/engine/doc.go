// Package engine applies a parsed rule file to decoded documents.
//
// The pipeline is strictly ordered: rulesets in file order, matched
// sections in document order, records in section order, rules in
// ruleset order. Within one action bundle the execution order is fixed
// regardless of how the YAML spelled it: skip, delete, rename, set,
// append/prepend, sequence. The only state shared across entries and
// documents is the sequence registry, so re-running the same inputs
// yields identical output.
//
// Failures below the rule-file level never stop a run. A failed
// expression falls back to its default or leaves the field alone, a
// failed condition skips its rule, a mistyped append target skips that
// action; every such decision is logged and traced as a diagnostic.
package engine
