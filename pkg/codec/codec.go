package codec

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Document is one decoded record file.
type Document struct {
	// Path is where the document was read from, for diagnostics.
	Path string
	// Sections holds the top-level keys in file order.
	Sections []*Section
}

// Section is one top-level key and its value. Keyed sections hold record
// collections; everything else is carried in Raw.
type Section struct {
	Key     string
	Keyed   bool
	Records []*Record
	Raw     any

	keyNode *yaml.Node
}

// Record is one id-keyed entry. Body is nil when the entry's value is
// not a string-keyed mapping; such entries pass through via Raw.
type Record struct {
	ID   string
	Body map[string]any
	Raw  any

	idNode *yaml.Node
}

// DecodeFile reads and decodes one document.
func DecodeFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Decode(data, path)
}

// Decode parses document bytes. Only the first YAML document in the
// input is read. An empty input decodes to a document with no sections.
func Decode(data []byte, path string) (*Document, error) {
	doc := &Document{Path: path}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	top := deref(documentRoot(&root))
	if top == nil || top.Kind == 0 || isNullNode(top) {
		return doc, nil
	}
	if top.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse %s: document root must be a mapping of content keys", path)
	}

	for i := 0; i+1 < len(top.Content); i += 2 {
		keyNode := deref(top.Content[i])
		valNode := deref(top.Content[i+1])
		if keyNode == nil || keyNode.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("parse %s: top-level key at line %d is not a scalar", path, lineOf(top.Content[i]))
		}
		sec, err := decodeSection(keyNode, valNode, path)
		if err != nil {
			return nil, err
		}
		doc.Sections = append(doc.Sections, sec)
	}
	return doc, nil
}

func decodeSection(keyNode, valNode *yaml.Node, path string) (*Section, error) {
	sec := &Section{Key: keyNode.Value, keyNode: keyNode}

	if valNode == nil || valNode.Kind != yaml.MappingNode || !scalarKeys(valNode) {
		raw, err := decodeAny(valNode)
		if err != nil {
			return nil, fmt.Errorf("parse %s: section %q: %w", path, sec.Key, err)
		}
		sec.Raw = raw
		return sec, nil
	}

	sec.Keyed = true
	for i := 0; i+1 < len(valNode.Content); i += 2 {
		idNode := deref(valNode.Content[i])
		rec := &Record{ID: idNode.Value, idNode: idNode}
		body, err := decodeAny(valNode.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("parse %s: record %q in %q: %w", path, rec.ID, sec.Key, err)
		}
		if m, ok := body.(map[string]any); ok {
			rec.Body = m
		} else {
			rec.Raw = body
		}
		sec.Records = append(sec.Records, rec)
	}
	return sec, nil
}

// Encode renders the document back to YAML.
func (d *Document) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.EncodeTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeTo renders the document to w with two-space indentation.
func (d *Document) EncodeTo(w io.Writer) error {
	root := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, sec := range d.Sections {
		valNode, err := sec.node()
		if err != nil {
			return fmt.Errorf("encode %s: section %q: %w", d.Path, sec.Key, err)
		}
		root.Content = append(root.Content, keyScalar(sec.Key, sec.keyNode), valNode)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return fmt.Errorf("encode %s: %w", d.Path, err)
	}
	return enc.Close()
}

// Empty reports whether the document has no sections at all.
func (d *Document) Empty() bool {
	return len(d.Sections) == 0
}

// Section returns the section for key, or nil.
func (d *Document) Section(key string) *Section {
	for _, sec := range d.Sections {
		if sec.Key == key {
			return sec
		}
	}
	return nil
}

// Keys returns the top-level keys in file order.
func (d *Document) Keys() []string {
	keys := make([]string, 0, len(d.Sections))
	for _, sec := range d.Sections {
		keys = append(keys, sec.Key)
	}
	return keys
}

// Record returns the record with the given id, or nil.
func (s *Section) Record(id string) *Record {
	for _, rec := range s.Records {
		if rec.ID == id {
			return rec
		}
	}
	return nil
}

func (s *Section) node() (*yaml.Node, error) {
	if !s.Keyed {
		return anyNode(s.Raw)
	}
	m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, rec := range s.Records {
		var body any
		if rec.Body != nil {
			body = rec.Body
		} else {
			body = rec.Raw
		}
		bodyNode, err := anyNode(body)
		if err != nil {
			return nil, fmt.Errorf("record %q: %w", rec.ID, err)
		}
		m.Content = append(m.Content, keyScalar(rec.ID, rec.idNode), bodyNode)
	}
	return m, nil
}

// keyScalar rebuilds a mapping key. The original node is reused when
// present so non-string keys (numeric ids) and quoting survive the
// round trip.
func keyScalar(value string, orig *yaml.Node) *yaml.Node {
	if orig != nil {
		return &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   orig.Tag,
			Value: orig.Value,
			Style: orig.Style,
		}
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

func anyNode(v any) (*yaml.Node, error) {
	if v == nil {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	}
	n := &yaml.Node{}
	if err := n.Encode(v); err != nil {
		return nil, err
	}
	return n, nil
}

// documentRoot unwraps the document wrapper node.
func documentRoot(n *yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	if n.Kind == yaml.DocumentNode {
		if len(n.Content) == 0 {
			return nil
		}
		return n.Content[0]
	}
	return n
}

// deref follows alias nodes. The chain cap guards against cyclic
// aliases in hostile input.
func deref(n *yaml.Node) *yaml.Node {
	for i := 0; n != nil && n.Kind == yaml.AliasNode && i < 100; i++ {
		n = n.Alias
	}
	return n
}

func isNullNode(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && (n.Tag == "!!null" || n.Value == "")
}

func scalarKeys(mapping *yaml.Node) bool {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		k := deref(mapping.Content[i])
		if k == nil || k.Kind != yaml.ScalarNode {
			return false
		}
	}
	return true
}

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

func lineOf(n *yaml.Node) int {
	if n == nil {
		return 0
	}
	return n.Line
}
