// Ganymede is a rule-driven schema migration tool for keyed YAML data.
//
// It reads GML rule files and applies them to id-keyed YAML documents,
// providing:
//   - Declarative per-entry transformations (set, rename, delete, append)
//   - Conditional rules with an embedded expression language
//   - Deterministic sequence allocation across batch conversions
//   - Persistent trace records for auditing every rule decision
//   - Watch mode that reconverts whenever rules or inputs change
//
// Usage:
//
//	# Convert a single file with a rule file
//	ganymede convert --rules rules.yml --input items.yml
//
//	# Convert a directory tree in batch mode
//	ganymede convert --rules rules.yml --input data/ --output converted/
//
//	# Watch rules and inputs, reconverting on change
//	ganymede convert --rules rules.yml --input items.yml --watch
//
//	# Validate a rule file
//	ganymede validate --file rules.yml
//
//	# Inspect trace records from past runs
//	ganymede trace list --run <run-id>
//
// For complete documentation, see: https://github.com/mercator-hq/ganymede
package main

func main() {
	Execute()
}
