package engine

import (
	"fmt"

	"mercator-hq/ganymede/pkg/gml/ast"
	"mercator-hq/ganymede/pkg/tree"
)

// applyActions runs one rule's action bundle against the entry in
// canonical order: skip, delete, rename, set, append/prepend, sequence.
// Deletions and renames establish the post-migration shape before
// derived values are computed from it; generated identifiers come last
// so they reflect the final shape. The YAML's key order is irrelevant.
// It reports whether the skip flag ended the bundle before any mutation.
func (p *pass) applyActions(rule *ast.Rule) (skipped bool) {
	a := rule.Actions
	if a == nil {
		return false
	}
	if a.Skip {
		return true
	}

	p.applyDeletes(a.Delete)
	p.applyRenames(a.Renames)
	p.applySets(rule, a.Sets)
	p.applyInserts(rule, a.Appends, false)
	p.applyInserts(rule, a.Prepends, true)
	p.applySequences(rule, a.Sequences)
	return false
}

func (p *pass) applyDeletes(paths []string) {
	for _, raw := range paths {
		path := p.ph.substitutePath(raw)
		removed := tree.Delete(p.body, path)
		if removed {
			p.applied("delete", path, "removed")
		} else {
			p.noop("delete", path)
		}
	}
}

func (p *pass) applyRenames(renames []*ast.Rename) {
	for _, rn := range renames {
		from := p.ph.substitutePath(rn.From)
		to := p.ph.substitutePath(rn.To)
		if tree.Move(p.body, from, to) {
			p.applied("rename", from, "moved to "+to)
		} else {
			p.noop("rename", from)
		}
	}
}

func (p *pass) applySets(rule *ast.Rule, assigns []*ast.Assign) {
	for _, as := range assigns {
		path := p.ph.substitutePath(as.Path)
		value, ok := p.resolveValue(rule, "set", path, as.Value)
		if !ok {
			continue
		}
		tree.Set(p.body, path, value)
		p.applied("set", path, "")
	}
}

// applyInserts handles append and prepend. A single-value spec whose
// resolved value is a list spreads into the target, matching the way a
// substituted "{tags}" placeholder yields a whole list; an explicit
// list of specs inserts one element per spec. An absent target becomes
// a new list; a present non-list skips the whole action for that path.
func (p *pass) applyInserts(rule *ast.Rule, inserts []*ast.ListInsert, prepend bool) {
	name := "append"
	if prepend {
		name = "prepend"
	}
	for _, ins := range inserts {
		path := p.ph.substitutePath(ins.Path)

		var existing []any
		current, present := tree.Get(p.body, path)
		if present {
			list, ok := current.([]any)
			if !ok {
				p.diag(name, path, "target is %T, not a list; action skipped", current)
				continue
			}
			existing = list
		}

		add := p.resolveInsertValues(rule, name, path, ins)
		if len(add) == 0 && present {
			continue
		}

		var out []any
		if prepend {
			out = append(append(make([]any, 0, len(add)+len(existing)), add...), existing...)
		} else {
			out = append(append(make([]any, 0, len(existing)+len(add)), existing...), add...)
		}
		tree.Set(p.body, path, out)
		p.applied(name, path, fmt.Sprintf("%d element(s)", len(add)))
	}
}

func (p *pass) resolveInsertValues(rule *ast.Rule, name, path string, ins *ast.ListInsert) []any {
	if ins.Single {
		value, ok := p.resolveValue(rule, name, path, ins.Values[0])
		if !ok {
			return nil
		}
		if list, isList := value.([]any); isList {
			return list
		}
		return []any{value}
	}

	add := make([]any, 0, len(ins.Values))
	for _, spec := range ins.Values {
		if value, ok := p.resolveValue(rule, name, path, spec); ok {
			add = append(add, value)
		}
	}
	return add
}

func (p *pass) applySequences(rule *ast.Rule, seqs []*ast.SequenceAssign) {
	for _, sa := range seqs {
		path := p.ph.substitutePath(sa.Path)
		spec := ast.SequenceSpec{
			ID:     p.ph.substitutePath(sa.Spec.ID),
			Start:  sa.Spec.Start,
			Step:   sa.Spec.Step,
			Format: p.ph.substitutePath(sa.Spec.Format),
		}

		value, ok := p.eng.registry.Next(&spec, rule.Name, path)
		if !ok {
			p.diag("sequence", path, "independent sequence needs a named rule or an 'id'; action skipped")
			continue
		}
		tree.Set(p.body, path, FormatValue(value, spec.Format))
		p.applied("sequence", path, fmt.Sprintf("assigned %d", value))
	}
}

// resolveValue resolves one ValueSpec: literals get placeholder
// substitution, expressions evaluate against the pass scope with the
// spec's default_value as fallback. ok=false means leave the field
// alone.
func (p *pass) resolveValue(rule *ast.Rule, action, path string, spec *ast.ValueSpec) (any, bool) {
	if spec == nil {
		return nil, false
	}
	if !spec.IsExpr {
		return p.ph.substituteValue(spec.Literal), true
	}

	var cause error
	if spec.CompileErr != nil {
		cause = spec.CompileErr
	} else {
		value, err := spec.Program.Eval(p.scope)
		if err == nil {
			return value, true
		}
		cause = err
	}

	if spec.HasDefault {
		p.diag(action, path, "rule %q: expression failed (%v); using default value", rule.DisplayName(), cause)
		return spec.Default, true
	}
	p.diag(action, path, "rule %q: expression failed (%v); field left unchanged", rule.DisplayName(), cause)
	return nil, false
}
