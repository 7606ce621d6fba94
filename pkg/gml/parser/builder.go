package parser

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"mercator-hq/ganymede/pkg/gml/ast"
	gmlErrors "mercator-hq/ganymede/pkg/gml/errors"
)

// builder constructs AST nodes from the yaml node tree. It accumulates
// problems instead of stopping at the first so one parse reports every
// structural defect in the file.
type builder struct {
	sourcePath string
	strict     bool
	errors     *gmlErrors.ErrorList
}

func newBuilder(sourcePath string, strict bool) *builder {
	return &builder{
		sourcePath: sourcePath,
		strict:     strict,
		errors:     gmlErrors.NewErrorList(),
	}
}

func (b *builder) location(n *yaml.Node) ast.Location {
	if n == nil {
		return ast.Location{File: b.sourcePath, Line: 1, Column: 1}
	}
	return ast.Location{File: b.sourcePath, Line: n.Line, Column: n.Column}
}

func (b *builder) structuralf(n *yaml.Node, format string, args ...any) {
	b.errors.AddError(gmlErrors.ErrorTypeStructural, fmt.Sprintf(format, args...), b.location(n))
}

// unknownKey reports an unrecognized mapping key in strict mode.
// Outside strict mode unknown keys are ignored for forward compatibility.
func (b *builder) unknownKey(p pair, where string, known ...string) {
	if !b.strict {
		return
	}
	b.errors.AddErrorWithSuggestion(gmlErrors.ErrorTypeStructural,
		fmt.Sprintf("unknown key %q in %s", p.key, where),
		b.location(p.keyNode),
		gmlErrors.SuggestKey(p.key, known))
}

func kindName(n *yaml.Node) string {
	if n == nil {
		return "nothing"
	}
	switch n.Kind {
	case yaml.MappingNode:
		return "a mapping"
	case yaml.SequenceNode:
		return "a list"
	case yaml.ScalarNode:
		return "a scalar"
	case yaml.AliasNode:
		return "an alias"
	case yaml.DocumentNode:
		return "a document"
	}
	return "an unknown node"
}

// buildFile transforms the document root into a RuleFile. The top-level
// ruleset list may be spelled 'rulesets' or 'rules'.
func (b *builder) buildFile(root *yaml.Node) (*ast.RuleFile, error) {
	file := &ast.RuleFile{
		SourceFile: b.sourcePath,
		Location:   ast.Location{File: b.sourcePath, Line: 1, Column: 1},
	}

	top := deref(documentRoot(root))
	if top == nil || top.Kind != yaml.MappingNode {
		b.errors.AddErrorWithSuggestion(gmlErrors.ErrorTypeStructural,
			fmt.Sprintf("rule file must be a mapping, got %s", kindName(top)),
			b.location(top),
			"wrap the rulesets in a top-level 'rulesets:' list")
		return nil, b.errors
	}

	var listNode *yaml.Node
	for _, p := range mapPairs(top) {
		switch p.key {
		case "rulesets", "rules":
			listNode = p.value
		case "name":
			file.Name, _ = stringValue(p.value)
		case "version":
			file.Version, _ = stringValue(p.value)
		case "description":
			file.Description, _ = stringValue(p.value)
		default:
			b.unknownKey(p, "rule file", "rulesets", "rules", "name", "version", "description")
		}
	}

	if listNode == nil {
		b.errors.AddErrorWithSuggestion(gmlErrors.ErrorTypeStructural,
			"missing required key 'rulesets'",
			b.location(top),
			gmlErrors.SuggestMissingField("rulesets", "[{content: item, rules: [...]}]"))
		return nil, b.errors
	}

	seq := deref(listNode)
	if seq == nil || seq.Kind != yaml.SequenceNode {
		b.structuralf(listNode, "'rulesets' must be a list, got %s", kindName(seq))
		return nil, b.errors
	}
	if len(seq.Content) == 0 {
		b.structuralf(listNode, "rule file defines no rulesets")
		return nil, b.errors
	}

	for i, rsNode := range seq.Content {
		if rs := b.buildRuleSet(rsNode, i); rs != nil {
			file.RuleSets = append(file.RuleSets, rs)
		}
	}

	if b.errors.HasErrors() {
		return nil, b.errors
	}
	return file, nil
}

func (b *builder) buildRuleSet(n *yaml.Node, index int) *ast.RuleSet {
	node := deref(n)
	if node == nil || node.Kind != yaml.MappingNode {
		b.structuralf(n, "ruleset at index %d must be a mapping, got %s", index, kindName(node))
		return nil
	}

	rs := &ast.RuleSet{Location: b.location(node)}
	for _, p := range mapPairs(node) {
		switch p.key {
		case "name":
			s, ok := stringValue(p.value)
			if !ok {
				b.structuralf(p.value, "ruleset 'name' must be a string")
				continue
			}
			rs.Name = s
		case "content":
			s, ok := stringValue(p.value)
			if !ok || s == "" {
				b.structuralf(p.value, "ruleset 'content' must be a non-empty string")
				continue
			}
			rs.Content = s
		case "depends_on":
			deps, ok := stringOrList(p.value)
			if !ok {
				b.structuralf(p.value, "ruleset 'depends_on' must be a name or list of names")
				continue
			}
			rs.DependsOn = deps
		case "context":
			rs.Context = b.buildContext(p.value)
		case "rules":
			rs.Rules = b.buildRules(p.value)
		default:
			b.unknownKey(p, fmt.Sprintf("ruleset at index %d", index),
				"name", "content", "depends_on", "context", "rules")
		}
	}

	if rs.Content == "" {
		b.errors.AddErrorWithSuggestion(gmlErrors.ErrorTypeStructural,
			fmt.Sprintf("ruleset at index %d missing required field 'content'", index),
			rs.Location,
			gmlErrors.SuggestMissingField("content", "item"))
	}
	return rs
}

// buildContext accepts both ruleset context forms: a mapping of name to
// value spec (declaration order preserved) and a list of entries with an
// explicit 'name' field.
func (b *builder) buildContext(n *yaml.Node) []*ast.ContextVar {
	node := deref(n)
	if isNull(node) {
		return nil
	}
	switch node.Kind {
	case yaml.MappingNode:
		pairs := mapPairs(node)
		vars := make([]*ast.ContextVar, 0, len(pairs))
		for _, p := range pairs {
			vars = append(vars, &ast.ContextVar{
				Name:     p.key,
				Value:    b.buildValueSpec(p.value),
				Location: b.location(p.keyNode),
			})
		}
		return vars
	case yaml.SequenceNode:
		var vars []*ast.ContextVar
		for i, item := range node.Content {
			if cv := b.buildContextItem(item, i); cv != nil {
				vars = append(vars, cv)
			}
		}
		return vars
	}
	b.structuralf(node, "'context' must be a mapping or a list, got %s", kindName(node))
	return nil
}

func (b *builder) buildContextItem(n *yaml.Node, index int) *ast.ContextVar {
	node := deref(n)
	if node == nil || node.Kind != yaml.MappingNode {
		b.structuralf(n, "context entry at index %d must be a mapping", index)
		return nil
	}

	cv := &ast.ContextVar{Location: b.location(node)}
	var valueNode, exprNode, defaultNode *yaml.Node
	for _, p := range mapPairs(node) {
		switch p.key {
		case "name":
			cv.Name, _ = stringValue(p.value)
		case "value":
			valueNode = p.value
		case "expression":
			exprNode = p.value
		case "default_value":
			defaultNode = p.value
		default:
			b.unknownKey(p, "context entry", "name", "value", "expression", "default_value")
		}
	}

	if cv.Name == "" {
		b.structuralf(node, "context entry at index %d missing 'name'", index)
		return nil
	}
	switch {
	case exprNode != nil:
		cv.Value = b.buildExprSpec(exprNode, defaultNode)
	case valueNode != nil:
		cv.Value = b.literalSpec(valueNode)
	default:
		b.structuralf(node, "context variable %q needs a 'value' or 'expression'", cv.Name)
		return nil
	}
	return cv
}

// buildValueSpec handles any value position: a mapping carrying an
// 'expression' key is the expression form, everything else is a literal.
func (b *builder) buildValueSpec(n *yaml.Node) *ast.ValueSpec {
	node := deref(n)
	if node != nil && node.Kind == yaml.MappingNode {
		if exprNode := mapValue(node, "expression"); exprNode != nil {
			return b.buildExprSpec(exprNode, mapValue(node, "default_value"))
		}
	}
	return b.literalSpec(n)
}

func (b *builder) buildExprSpec(exprNode, defaultNode *yaml.Node) *ast.ValueSpec {
	source, ok := stringValue(exprNode)
	if !ok || source == "" {
		b.structuralf(exprNode, "'expression' must be a non-empty string")
		return &ast.ValueSpec{Location: b.location(deref(exprNode))}
	}
	spec := ast.ExprSpec(source)
	spec.Location = b.location(deref(exprNode))
	if defaultNode != nil {
		d, err := decodeAny(defaultNode)
		if err != nil {
			b.structuralf(defaultNode, "bad 'default_value': %v", err)
		} else {
			spec.WithDefault(d)
		}
	}
	return spec
}

func (b *builder) literalSpec(n *yaml.Node) *ast.ValueSpec {
	v, err := decodeAny(n)
	if err != nil {
		b.structuralf(n, "bad literal value: %v", err)
		v = nil
	}
	spec := ast.LiteralSpec(v)
	spec.Location = b.location(deref(n))
	return spec
}

func (b *builder) buildRules(n *yaml.Node) []*ast.Rule {
	node := deref(n)
	if isNull(node) {
		return nil
	}
	if node.Kind != yaml.SequenceNode {
		b.structuralf(n, "'rules' must be a list, got %s", kindName(node))
		return nil
	}
	rules := make([]*ast.Rule, 0, len(node.Content))
	for i, item := range node.Content {
		if r := b.buildRule(item, i); r != nil {
			rules = append(rules, r)
		}
	}
	return rules
}

func (b *builder) buildRule(n *yaml.Node, index int) *ast.Rule {
	node := deref(n)
	if node == nil || node.Kind != yaml.MappingNode {
		b.structuralf(n, "rule at index %d must be a mapping, got %s", index, kindName(node))
		return nil
	}

	rule := &ast.Rule{Location: b.location(node)}
	sawActions := false
	for _, p := range mapPairs(node) {
		switch p.key {
		case "name":
			s, ok := stringValue(p.value)
			if !ok {
				b.structuralf(p.value, "rule 'name' must be a string")
				continue
			}
			rule.Name = s
		case "depends_on":
			deps, ok := stringOrList(p.value)
			if !ok {
				b.structuralf(p.value, "rule 'depends_on' must be a name or list of names")
				continue
			}
			rule.DependsOn = deps
		case "conditions":
			rule.Conditions = b.buildConditions(p.value)
		case "actions":
			sawActions = true
			rule.Actions = b.buildActionBundle(p.value)
		default:
			b.unknownKey(p, fmt.Sprintf("rule at index %d", index),
				"name", "depends_on", "conditions", "actions")
		}
	}

	if !sawActions {
		b.errors.AddErrorWithSuggestion(gmlErrors.ErrorTypeStructural,
			fmt.Sprintf("rule %q missing required field 'actions'", rule.DisplayName()),
			rule.Location,
			gmlErrors.SuggestMissingField("actions", "{set: {field: value}}"))
		return nil
	}
	return rule
}

func (b *builder) buildConditions(n *yaml.Node) []*ast.Condition {
	node := deref(n)
	if isNull(node) {
		return nil
	}
	if node.Kind != yaml.SequenceNode {
		b.structuralf(n, "'conditions' must be a list, got %s", kindName(node))
		return nil
	}
	conds := make([]*ast.Condition, 0, len(node.Content))
	for i, item := range node.Content {
		if c := b.buildCondition(item, i); c != nil {
			conds = append(conds, c)
		}
	}
	return conds
}

func (b *builder) buildCondition(n *yaml.Node, index int) *ast.Condition {
	node := deref(n)
	if node == nil {
		b.structuralf(n, "condition at index %d is empty", index)
		return nil
	}

	if node.Kind == yaml.ScalarNode {
		source, ok := stringValue(node)
		if !ok || source == "" {
			b.structuralf(node, "condition at index %d must be a mapping or an expression string", index)
			return nil
		}
		spec := ast.ExprSpec(source)
		spec.Location = b.location(node)
		return &ast.Condition{
			Kind:     ast.ConditionExpression,
			Expr:     spec,
			Location: b.location(node),
		}
	}

	if node.Kind != yaml.MappingNode {
		b.structuralf(node, "condition at index %d must be a mapping or an expression string", index)
		return nil
	}

	cond := &ast.Condition{Kind: ast.ConditionStructured, Location: b.location(node)}
	for _, p := range mapPairs(node) {
		switch p.key {
		case "path":
			cond.Path, _ = stringValue(p.value)
		case "exists":
			v, ok := boolValue(p.value)
			if !ok {
				b.structuralf(p.value, "condition 'exists' must be a boolean")
				continue
			}
			cond.Exists = &v
		case "value":
			v, err := decodeAny(p.value)
			if err != nil {
				b.structuralf(p.value, "bad condition 'value': %v", err)
				continue
			}
			cond.Value = v
			cond.HasValue = true
		case "regex_match":
			s, ok := stringValue(p.value)
			if !ok {
				b.structuralf(p.value, "condition 'regex_match' must be a string pattern")
				continue
			}
			cond.Regex = s
			cond.HasRegex = true
		case "min":
			f, ok := numberValue(p.value)
			if !ok {
				b.structuralf(p.value, "condition 'min' must be a number")
				continue
			}
			cond.Min = &f
		case "max":
			f, ok := numberValue(p.value)
			if !ok {
				b.structuralf(p.value, "condition 'max' must be a number")
				continue
			}
			cond.Max = &f
		default:
			b.unknownKey(p, "condition", "path", "exists", "value", "regex_match", "min", "max")
		}
	}
	return cond
}

func (b *builder) buildActionBundle(n *yaml.Node) *ast.ActionBundle {
	node := deref(n)
	bundle := &ast.ActionBundle{Location: b.location(node)}
	if isNull(node) {
		return bundle
	}
	if node.Kind != yaml.MappingNode {
		b.structuralf(n, "'actions' must be a mapping, got %s", kindName(node))
		return bundle
	}

	for _, p := range mapPairs(node) {
		switch p.key {
		case "skip":
			v, ok := boolValue(p.value)
			if !ok {
				b.structuralf(p.value, "'skip' must be a boolean")
				continue
			}
			bundle.Skip = v
		case "delete":
			paths, ok := stringOrList(p.value)
			if !ok {
				b.structuralf(p.value, "'delete' must be a path or a list of paths")
				continue
			}
			bundle.Delete = paths
		case "rename":
			bundle.Renames = b.buildRenames(p.value)
		case "set":
			bundle.Sets = b.buildAssigns(p.value)
		case "append":
			bundle.Appends = b.buildListInserts(p.value, "append")
		case "prepend":
			bundle.Prepends = b.buildListInserts(p.value, "prepend")
		case "sequence":
			bundle.Sequences = b.buildSequences(p.value)
		default:
			b.unknownKey(p, "actions", "skip", "delete", "rename", "set", "append", "prepend", "sequence")
		}
	}
	return bundle
}

func (b *builder) buildRenames(n *yaml.Node) []*ast.Rename {
	node := deref(n)
	if node == nil || node.Kind != yaml.MappingNode {
		b.structuralf(n, "'rename' must be a mapping of old path to new path")
		return nil
	}
	pairs := mapPairs(node)
	renames := make([]*ast.Rename, 0, len(pairs))
	for _, p := range pairs {
		to, ok := stringValue(p.value)
		if !ok || to == "" {
			b.structuralf(p.value, "rename target for %q must be a non-empty path", p.key)
			continue
		}
		renames = append(renames, &ast.Rename{
			From:     p.key,
			To:       to,
			Location: b.location(p.keyNode),
		})
	}
	return renames
}

func (b *builder) buildAssigns(n *yaml.Node) []*ast.Assign {
	node := deref(n)
	if node == nil || node.Kind != yaml.MappingNode {
		b.structuralf(n, "'set' must be a mapping of path to value")
		return nil
	}
	pairs := mapPairs(node)
	assigns := make([]*ast.Assign, 0, len(pairs))
	for _, p := range pairs {
		assigns = append(assigns, &ast.Assign{
			Path:     p.key,
			Value:    b.buildValueSpec(p.value),
			Location: b.location(p.keyNode),
		})
	}
	return assigns
}

func (b *builder) buildListInserts(n *yaml.Node, what string) []*ast.ListInsert {
	node := deref(n)
	if node == nil || node.Kind != yaml.MappingNode {
		b.structuralf(n, "'%s' must be a mapping of path to value(s)", what)
		return nil
	}
	pairs := mapPairs(node)
	inserts := make([]*ast.ListInsert, 0, len(pairs))
	for _, p := range pairs {
		ins := &ast.ListInsert{Path: p.key, Location: b.location(p.keyNode)}
		if vnode := deref(p.value); vnode != nil && vnode.Kind == yaml.SequenceNode {
			ins.Values = make([]*ast.ValueSpec, 0, len(vnode.Content))
			for _, item := range vnode.Content {
				ins.Values = append(ins.Values, b.buildValueSpec(item))
			}
		} else {
			ins.Single = true
			ins.Values = []*ast.ValueSpec{b.buildValueSpec(p.value)}
		}
		inserts = append(inserts, ins)
	}
	return inserts
}

func (b *builder) buildSequences(n *yaml.Node) []*ast.SequenceAssign {
	node := deref(n)
	if node == nil || node.Kind != yaml.MappingNode {
		b.structuralf(n, "'sequence' must be a mapping of path to sequence spec")
		return nil
	}
	pairs := mapPairs(node)
	seqs := make([]*ast.SequenceAssign, 0, len(pairs))
	for _, p := range pairs {
		seqs = append(seqs, &ast.SequenceAssign{
			Path:     p.key,
			Spec:     b.buildSequenceSpec(p.value),
			Location: b.location(p.keyNode),
		})
	}
	return seqs
}

func (b *builder) buildSequenceSpec(n *yaml.Node) *ast.SequenceSpec {
	node := deref(n)
	spec := &ast.SequenceSpec{Start: 0, Step: 1, Location: b.location(node)}
	if isNull(node) {
		return spec
	}
	if node.Kind != yaml.MappingNode {
		b.structuralf(n, "sequence spec must be a mapping")
		return spec
	}
	for _, p := range mapPairs(node) {
		switch p.key {
		case "id":
			spec.ID, _ = stringValue(p.value)
		case "start":
			v, ok := intValue(p.value)
			if !ok {
				b.structuralf(p.value, "sequence 'start' must be an integer")
				continue
			}
			spec.Start = v
		case "step":
			v, ok := intValue(p.value)
			if !ok {
				b.structuralf(p.value, "sequence 'step' must be an integer")
				continue
			}
			spec.Step = v
		case "format":
			s, ok := stringValue(p.value)
			if !ok {
				b.structuralf(p.value, "sequence 'format' must be a string")
				continue
			}
			spec.Format = s
		default:
			b.unknownKey(p, "sequence spec", "id", "start", "step", "format")
		}
	}
	return spec
}
