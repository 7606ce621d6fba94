// Package errors provides the error types shared by the GML parser and
// validator. Errors carry a category, a source location and an optional
// suggestion; an ErrorList accumulates them so one parse reports every
// problem instead of stopping at the first.
package errors
