// Package parser reads GML rule files into the AST.
//
// Parsing walks the yaml.v3 node tree instead of decoding into structs:
// context variables, renames, set targets and sequence targets are
// order-sensitive, and only the node tree preserves mapping order and
// per-node line information. Problems are accumulated into an ErrorList
// so a single parse reports everything that is wrong with the file.
package parser
