package engine

import (
	"mercator-hq/ganymede/pkg/gml/ast"
)

// entryScope resolves bare identifiers for one entry pass: context
// variables first, then the reserved names. data is the whole entry
// tree; nested fields are reached through it (data.stats.damage) or via
// get().
type entryScope struct {
	vars        map[string]any
	body        map[string]any
	entryID     string
	contentType string
}

func (s *entryScope) Resolve(name string) (any, bool) {
	if v, ok := s.vars[name]; ok {
		return v, true
	}
	switch name {
	case "data":
		return s.body, true
	case "content_id":
		return s.entryID, true
	case "content_type":
		return s.contentType, true
	}
	return nil, false
}

// buildContext evaluates the ruleset's context variables in declaration
// order into the pass scope. Each resolved variable is visible to the
// next, so forward references fail as unresolved names. A failed
// expression falls back to its default value; without one the variable
// stays absent from the scope and from placeholder substitution.
func (p *pass) buildContext(vars []*ast.ContextVar) {
	p.scope = &entryScope{
		vars:        make(map[string]any, len(vars)),
		body:        p.body,
		entryID:     p.entryID,
		contentType: p.contentType,
	}
	p.ph = &placeholders{}
	p.ph.add("content_id", p.entryID)
	p.ph.add("content_type", p.contentType)

	for _, cv := range vars {
		value, ok := p.resolveContextVar(cv)
		if !ok {
			continue
		}
		p.scope.vars[cv.Name] = value
		p.ph.add(cv.Name, value)
	}
}

func (p *pass) resolveContextVar(cv *ast.ContextVar) (any, bool) {
	spec := cv.Value
	if spec == nil {
		return nil, false
	}
	if !spec.IsExpr {
		// Literal specs are inserted verbatim.
		return spec.Literal, true
	}
	if spec.CompileErr != nil {
		return p.contextFallback(cv, spec, spec.CompileErr)
	}
	value, err := spec.Program.Eval(p.scope)
	if err != nil {
		return p.contextFallback(cv, spec, err)
	}
	return value, true
}

func (p *pass) contextFallback(cv *ast.ContextVar, spec *ast.ValueSpec, cause error) (any, bool) {
	if spec.HasDefault {
		p.diag("context", "", "context variable %q failed (%v); using default value", cv.Name, cause)
		return spec.Default, true
	}
	p.diag("context", "", "context variable %q failed (%v); variable left unset", cv.Name, cause)
	return nil, false
}
