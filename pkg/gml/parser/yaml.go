package parser

import (
	"gopkg.in/yaml.v3"
)

// pair is one mapping entry in file order.
type pair struct {
	key     string
	keyNode *yaml.Node
	value   *yaml.Node
}

// loadYAML parses raw bytes into a yaml node tree.
func loadYAML(data []byte) (*yaml.Node, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	return &root, nil
}

// documentRoot unwraps the document wrapper yaml.Unmarshal produces.
func documentRoot(n *yaml.Node) *yaml.Node {
	if n != nil && n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		return n.Content[0]
	}
	return n
}

// deref follows alias nodes to their anchored target.
func deref(n *yaml.Node) *yaml.Node {
	seen := 0
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
		if seen++; seen > 100 {
			return nil
		}
	}
	return n
}

// mapPairs returns the entries of a mapping node in file order. Non-string
// keys are skipped; YAML merge keys are not expanded.
func mapPairs(n *yaml.Node) []pair {
	n = deref(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	pairs := make([]pair, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		keyNode := deref(n.Content[i])
		if keyNode == nil || keyNode.Kind != yaml.ScalarNode {
			continue
		}
		pairs = append(pairs, pair{
			key:     keyNode.Value,
			keyNode: keyNode,
			value:   n.Content[i+1],
		})
	}
	return pairs
}

// mapValue returns the value node for key, or nil when absent.
func mapValue(n *yaml.Node, key string) *yaml.Node {
	for _, p := range mapPairs(n) {
		if p.key == key {
			return p.value
		}
	}
	return nil
}

// decodeAny decodes a node into plain Go values: map[string]any,
// []any and scalars.
func decodeAny(n *yaml.Node) (any, error) {
	if n = deref(n); n == nil {
		return nil, nil
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// isNull reports whether the node is an explicit or implicit YAML null.
func isNull(n *yaml.Node) bool {
	n = deref(n)
	return n == nil || (n.Kind == yaml.ScalarNode && (n.Tag == "!!null" || n.Value == ""))
}

// stringValue decodes a scalar node into its string form.
func stringValue(n *yaml.Node) (string, bool) {
	n = deref(n)
	if n == nil || n.Kind != yaml.ScalarNode {
		return "", false
	}
	return n.Value, true
}

// intValue decodes a scalar node into an int64.
func intValue(n *yaml.Node) (int64, bool) {
	v, err := decodeAny(n)
	if err != nil {
		return 0, false
	}
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int64:
		return t, true
	case uint64:
		return int64(t), true
	}
	return 0, false
}

// numberValue decodes a scalar node into a float64.
func numberValue(n *yaml.Node) (float64, bool) {
	if i, ok := intValue(n); ok {
		return float64(i), true
	}
	v, err := decodeAny(n)
	if err != nil {
		return 0, false
	}
	if f, ok := v.(float64); ok {
		return f, true
	}
	return 0, false
}

// boolValue decodes a scalar node into a bool.
func boolValue(n *yaml.Node) (bool, bool) {
	v, err := decodeAny(n)
	if err != nil {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// stringOrList accepts either a single scalar or a sequence of scalars,
// the shape used by depends_on and delete.
func stringOrList(n *yaml.Node) ([]string, bool) {
	n = deref(n)
	if n == nil {
		return nil, false
	}
	switch n.Kind {
	case yaml.ScalarNode:
		if isNull(n) {
			return nil, true
		}
		return []string{n.Value}, true
	case yaml.SequenceNode:
		out := make([]string, 0, len(n.Content))
		for _, item := range n.Content {
			s, ok := stringValue(item)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}
