// Package ast defines the typed node structures for GML rule files.
//
// A rule file decodes into a RuleFile holding an ordered list of RuleSets.
// Each RuleSet binds one content category and carries ordered context
// variable declarations and rules. Nodes keep their source Location so
// errors and diagnostics can point back into the file.
//
// Expressions inside value specs, context variables and conditions are
// compiled at parse time; a node whose expression failed to compile keeps
// the error and fails the same way at evaluation time.
package ast
