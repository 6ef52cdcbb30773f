package document

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Format parses and serializes a configuration text format.
type Format interface {
	// Name identifies the format (e.g. "yaml").
	Name() string

	// Parse returns the root mapping of data. Empty input yields an empty mapping.
	Parse(data []byte) (*Node, error)

	// Serialize renders root as text.
	Serialize(root *Node) ([]byte, error)
}

// SyntaxError is returned when text cannot be parsed by a Format.
type SyntaxError struct {
	Format string
	Err    error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Format, e.Err)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// YAML is the YAML format. Comments, quoting styles and explicit tags survive
// a parse/serialize cycle; anchors are expanded in place.
var YAML Format = yamlFormat{indent: 2}

type yamlFormat struct {
	indent int
}

func (yamlFormat) Name() string { return "yaml" }

func (f yamlFormat) Parse(data []byte) (*Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &SyntaxError{Format: "yaml", Err: err}
	}

	var root *Node
	switch {
	case len(doc.Content) == 0:
		root = NewMap()
	case doc.Content[0].Kind == yaml.MappingNode:
		root = fromYAML(doc.Content[0])
	case doc.Content[0].ShortTag() == "!!null":
		root = NewMap()
	default:
		return nil, &SyntaxError{
			Format: "yaml",
			Err:    fmt.Errorf("top-level value must be a mapping, got %s", fromYAML(doc.Content[0]).Kind),
		}
	}
	root.pres.docHead = doc.HeadComment
	root.pres.docFoot = doc.FootComment
	return root, nil
}

func (f yamlFormat) Serialize(root *Node) ([]byte, error) {
	if root == nil {
		root = NewMap()
	}
	doc := &yaml.Node{
		Kind:        yaml.DocumentNode,
		HeadComment: root.pres.docHead,
		FootComment: root.pres.docFoot,
		Content:     []*yaml.Node{toYAML(root)},
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(f.indent)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseScalar parses text as a single YAML value, the way a value written
// after "key: " would be read.
func ParseScalar(text string) (*Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, &SyntaxError{Format: "yaml", Err: err}
	}
	if len(doc.Content) == 0 {
		return String(text), nil
	}
	n := fromYAML(doc.Content[0])
	n.pres = presentation{}
	return n, nil
}

func fromYAML(y *yaml.Node) *Node {
	if y.Kind == yaml.AliasNode && y.Alias != nil {
		n := fromYAML(y.Alias)
		n.pres.head = y.HeadComment
		n.pres.line = y.LineComment
		n.pres.foot = y.FootComment
		return n
	}

	n := &Node{
		pres: presentation{
			rawTag: y.Tag,
			style:  y.Style,
			head:   y.HeadComment,
			line:   y.LineComment,
			foot:   y.FootComment,
		},
	}

	switch y.Kind {
	case yaml.SequenceNode:
		n.Kind = ListNode
		n.Items = make([]*Node, 0, len(y.Content))
		for _, c := range y.Content {
			n.Items = append(n.Items, fromYAML(c))
		}
	case yaml.MappingNode:
		n.Kind = MapNode
		n.Entries = make([]*Entry, 0, len(y.Content)/2)
		for i := 0; i+1 < len(y.Content); i += 2 {
			k, v := y.Content[i], y.Content[i+1]
			key := k.Value
			if k.Kind == yaml.AliasNode && k.Alias != nil {
				key = k.Alias.Value
			}
			n.Entries = append(n.Entries, &Entry{
				Key:        key,
				Value:      fromYAML(v),
				comment:    cleanComment(k.HeadComment),
				rawComment: k.HeadComment,
				keyPres: presentation{
					rawTag: k.Tag,
					style:  k.Style,
					line:   k.LineComment,
					foot:   k.FootComment,
				},
			})
		}
	default:
		n.Tag = tagFromYAML(y.ShortTag())
		n.Value = y.Value
		n.Kind = ScalarNode
		if n.Tag == TagNull {
			n.Kind = NullNode
		}
	}
	return n
}

func toYAML(n *Node) *yaml.Node {
	y := &yaml.Node{
		Tag:         n.pres.rawTag,
		Style:       n.pres.style,
		HeadComment: n.pres.head,
		LineComment: n.pres.line,
		FootComment: n.pres.foot,
	}

	switch n.Kind {
	case ListNode:
		y.Kind = yaml.SequenceNode
		if y.Tag == "" {
			y.Tag = "!!seq"
		}
		y.Content = make([]*yaml.Node, 0, len(n.Items))
		for _, it := range n.Items {
			y.Content = append(y.Content, toYAML(it))
		}
	case MapNode:
		y.Kind = yaml.MappingNode
		if y.Tag == "" {
			y.Tag = "!!map"
		}
		y.Content = make([]*yaml.Node, 0, 2*len(n.Entries))
		for _, e := range n.Entries {
			head := e.rawComment
			if head == "" {
				head = formatComment(e.comment)
			}
			keyTag := e.keyPres.rawTag
			if keyTag == "" {
				keyTag = "!!str"
			}
			k := &yaml.Node{
				Kind:        yaml.ScalarNode,
				Tag:         keyTag,
				Value:       e.Key,
				Style:       e.keyPres.style,
				HeadComment: head,
				LineComment: e.keyPres.line,
				FootComment: e.keyPres.foot,
			}
			y.Content = append(y.Content, k, toYAML(e.Value))
		}
	case NullNode:
		y.Kind = yaml.ScalarNode
		y.Value = n.Value
		if y.Tag == "" || tagFromYAML(shortTag(y.Tag)) != TagNull {
			y.Tag = "!!null"
			if y.Value == "" {
				y.Value = "null"
			}
		}
	default:
		y.Kind = yaml.ScalarNode
		y.Value = n.Value
		if y.Tag == "" || tagFromYAML(shortTag(y.Tag)) != n.Tag {
			y.Tag = yamlTag(n.Tag)
			y.Style &^= yaml.TaggedStyle
		}
	}
	return y
}

func tagFromYAML(short string) Tag {
	switch short {
	case "!!null":
		return TagNull
	case "!!int":
		return TagInt
	case "!!float":
		return TagFloat
	case "!!bool":
		return TagBool
	default:
		return TagString
	}
}

func yamlTag(t Tag) string {
	switch t {
	case TagNull:
		return "!!null"
	case TagInt:
		return "!!int"
	case TagFloat:
		return "!!float"
	case TagBool:
		return "!!bool"
	default:
		return "!!str"
	}
}

// shortTag normalizes the long tag form yaml.v3 accepts on input.
func shortTag(tag string) string {
	const prefix = "tag:yaml.org,2002:"
	if len(tag) > len(prefix) && tag[:len(prefix)] == prefix {
		return "!!" + tag[len(prefix):]
	}
	return tag
}
