// Package codec reads and writes keyed record documents.
//
// A document is a YAML mapping of content keys (items, monsters) to
// record collections, each collection a mapping of record id to record
// body. Go maps do not keep order, so the codec models the document as
// ordered section and record lists and only the bodies as plain
// map[string]any trees for the engine to mutate. Sections whose value
// is not a mapping, and records whose body is not a string-keyed
// mapping, are carried through untouched.
//
// Re-encoding preserves section order and record order. Body keys are
// written in yaml.v3's stable sorted order, so repeated runs over the
// same input produce identical bytes.
package codec
