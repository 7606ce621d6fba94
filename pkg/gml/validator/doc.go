// Package validator checks parsed rule files beyond what the parser can
// see. The structural pass re-checks required fields on programmatically
// built ASTs; the semantic pass finds dependency cycles, dead references
// and constructs that would silently never fire at run time.
//
// Findings split into errors, which make the file unusable, and
// warnings, which flag rules that will be skipped or fall back at run
// time. Strict mode promotes warnings to errors.
package validator
