// Package gml provides parsing and validation for the Ganymede Migration Language (GML).
//
// GML is a declarative YAML-based rule language for migrating keyed
// record collections between schema versions. Content teams describe
// renames, value rewrites, list edits and sequential numbering as data
// instead of writing one-off scripts.
//
// # Architecture
//
// Four subpackages split the work:
//
// - ast: node types for parsed rule files, each with its source location
// - parser: turns YAML into the AST, compiling expressions as it goes
// - validator: structural and semantic checks over a parsed file
// - errors: positioned errors with suggestions and source excerpts
//
// # Basic Usage
//
// Parse a rule file, then validate it before handing it to the engine:
//
//	import (
//	    "mercator-hq/ganymede/pkg/gml/parser"
//	    "mercator-hq/ganymede/pkg/gml/validator"
//	)
//
//	p := parser.NewParser()
//	file, err := p.Parse("rules/items.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	v := validator.NewValidator()
//	if err := v.Validate(file); err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Rule file:", file.Name)
//	fmt.Println("Rulesets:", len(file.RuleSets))
//
// # Rule File Structure
//
// A GML rule file consists of:
//
//	name: "item-migration"
//	version: "1.0.0"
//	description: "2.x item schema"
//
//	rulesets:
//	  - name: "weapon-upgrade"
//	    content: "item"
//	    context:
//	      - name: "base_damage"
//	        value:
//	          expression: "get(data, 'stats.damage', 0)"
//	    rules:
//	      - name: "scale-damage"
//	        conditions:
//	          - path: "stats.damage"
//	            min: 1
//	        actions:
//	          set:
//	            stats.damage:
//	              expression: "stats.damage * 1.5"
//
// # Validation
//
// The validator performs two types of checks:
//
// 1. Structural: required fields, empty rulesets, static regexes, step sanity
// 2. Semantic: dependency graphs, duplicate names, retained compile failures
//
// Dependency cycles are errors; constructs that only degrade at run time
// (unknown depends_on targets, broken expressions) are warnings unless
// strict mode is enabled.
//
// # Error Handling
//
// Both the parser and the validator report every problem they find, not
// just the first one:
//
//	if err := validator.Validate(file); err != nil {
//	    if list, ok := err.(*errors.ErrorList); ok {
//	        for _, e := range list.Errors {
//	            fmt.Println(e.Error())
//	        }
//	    }
//	}
//
// Error format:
//
//	[semantic] rule "finalize" depends on "clean" which is not defined in ruleset "weapon-upgrade"; the rule will never run
//	  --> rules/items.yaml:22:9
//	  |
//	  22 |         depends_on: clean
//	     |         ^
//	  |
//	  = suggestion: did you mean "cleanup"?
//
// # Performance
//
// The parser is built for batch runs over many rule files:
// - Parse <100ms for typical rule files (<1000 lines)
// - Expressions compile once at parse time and are reused per record
// - A Parser is safe for concurrent use
package gml
