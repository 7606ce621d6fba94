// Package expr implements the sandboxed expression language embedded in GML
// rule files.
//
// Expressions are compiled once at rule load time into a small typed AST and
// evaluated per entry against a Scope. The language is deliberately closed:
// no I/O, no loops, no user-defined functions, no access to anything outside
// the scope and the fixed call registry. Evaluation never panics; every
// failure is reported as an *EvalError and the caller decides the fallback.
//
// # Language
//
//   - Arithmetic: + - * / (int and float; / always yields float; + also
//     concatenates strings and lists; * repeats a string by an int count)
//   - Comparisons: == != < <= > >= (numeric comparison is int/float
//     tolerant; ordering works on numbers and on strings)
//   - Logic: and, or, not (and/or short-circuit and return their operands)
//   - Conditional: A if C else B
//   - Strings: 'single' or "double" quoted; an f prefix enables embedded
//     interpolation, e.g. f"{id}_migrated"
//   - Member access m.key on maps, indexing x[i] on lists, strings and
//     maps, slicing x[i:j] on lists and strings with negative and omitted
//     bounds
//   - Calls restricted to the registry below; recv.fn(args) is sugar for
//     fn(recv, args)
//
// # Call Registry
//
//	get(obj, path, default?)  nested lookup by dot path, never raises
//	upper(s), lower(s)        case conversion
//	replace(s, old, new)      substring replacement
//	split(s, sep)             split into a list of strings
//	str(x), int(x), float(x)  conversions
//	len(x)                    length of string, list or map
//
// # Scope
//
// Bare identifiers resolve through a caller-provided Scope. The engine wires
// the documented order: context variables first, then the entry tree (the
// name data and the entry's top-level fields), then content_id and
// content_type. MapScope is provided for library and test use.
//
// # Errors
//
// Unknown identifiers, missing keys on direct access, type mismatches,
// division by zero, bad calls and syntax errors all surface as *EvalError
// carrying the source text and offset. get() with a default is the escape
// hatch for optional data.
package expr
