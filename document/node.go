package document

import (
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind is the shape of a Node.
type Kind uint8

const (
	NullNode Kind = iota
	ScalarNode
	ListNode
	MapNode
)

func (k Kind) String() string {
	switch k {
	case NullNode:
		return "null"
	case ScalarNode:
		return "scalar"
	case ListNode:
		return "list"
	case MapNode:
		return "map"
	default:
		return "unknown"
	}
}

// Tag is the resolved type of a scalar.
type Tag uint8

const (
	TagNull Tag = iota
	TagString
	TagInt
	TagFloat
	TagBool
)

func (t Tag) String() string {
	switch t {
	case TagNull:
		return "null"
	case TagString:
		return "string"
	case TagInt:
		return "int"
	case TagFloat:
		return "float"
	case TagBool:
		return "bool"
	default:
		return "unknown"
	}
}

// presentation holds format-specific detail that has no meaning to the binder
// but must survive a parse/serialize cycle.
type presentation struct {
	rawTag string
	style  yaml.Style
	head   string
	line   string
	foot   string

	// docHead and docFoot are document-level comments, kept on the root.
	docHead string
	docFoot string
}

// Node is a generic document element.
type Node struct {
	Kind Kind

	// Tag and Value describe a scalar. Value is the textual form.
	Tag   Tag
	Value string

	// Items holds list elements in order.
	Items []*Node

	// Entries holds mapping entries in document order.
	Entries []*Entry

	pres presentation
}

// Entry is one key of a mapping node.
type Entry struct {
	Key   string
	Value *Node

	comment    string
	rawComment string
	keyPres    presentation
}

// Comment returns the documentation comment attached to the key, without markers.
func (e *Entry) Comment() string {
	return e.comment
}

// SetComment replaces the documentation comment attached to the key.
func (e *Entry) SetComment(text string) {
	if text == e.comment {
		return
	}
	e.comment = text
	e.rawComment = ""
}

// Null returns a null node.
func Null() *Node {
	return &Node{Kind: NullNode, Tag: TagNull, Value: "null"}
}

// Scalar returns a scalar node with the given tag and textual value.
func Scalar(tag Tag, value string) *Node {
	if tag == TagNull {
		return Null()
	}
	return &Node{Kind: ScalarNode, Tag: tag, Value: value}
}

// String returns a string scalar.
func String(s string) *Node {
	return Scalar(TagString, s)
}

// Int returns an integer scalar.
func Int(i int64) *Node {
	return Scalar(TagInt, strconv.FormatInt(i, 10))
}

// Uint returns an unsigned integer scalar.
func Uint(u uint64) *Node {
	return Scalar(TagInt, strconv.FormatUint(u, 10))
}

// Float returns a float scalar. Whole numbers keep a ".0" so they read back
// as floats; infinities and NaN use the YAML spellings.
func Float(f float64, bitSize int) *Node {
	switch {
	case math.IsInf(f, 1):
		return Scalar(TagFloat, ".inf")
	case math.IsInf(f, -1):
		return Scalar(TagFloat, "-.inf")
	case math.IsNaN(f):
		return Scalar(TagFloat, ".nan")
	}
	s := strconv.FormatFloat(f, 'g', -1, bitSize)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return Scalar(TagFloat, s)
}

// Bool returns a boolean scalar.
func Bool(b bool) *Node {
	return Scalar(TagBool, strconv.FormatBool(b))
}

// NewList returns a list node holding items.
func NewList(items ...*Node) *Node {
	return &Node{Kind: ListNode, Items: items}
}

// NewMap returns an empty mapping node.
func NewMap() *Node {
	return &Node{Kind: MapNode}
}

// IsNull reports whether n is nil or a null node.
func (n *Node) IsNull() bool {
	return n == nil || n.Kind == NullNode
}

// Len returns the number of items or entries.
func (n *Node) Len() int {
	switch n.Kind {
	case ListNode:
		return len(n.Items)
	case MapNode:
		return len(n.Entries)
	default:
		return 0
	}
}

// Keys returns mapping keys in document order.
func (n *Node) Keys() []string {
	keys := make([]string, 0, len(n.Entries))
	for _, e := range n.Entries {
		keys = append(keys, e.Key)
	}
	return keys
}

// Index returns the position of key in a mapping node, or -1.
func (n *Node) Index(key string) int {
	for i, e := range n.Entries {
		if e.Key == key {
			return i
		}
	}
	return -1
}

// Lookup returns the entry for key, or nil.
func (n *Node) Lookup(key string) *Entry {
	if i := n.Index(key); i >= 0 {
		return n.Entries[i]
	}
	return nil
}

// Get returns the value at key, or nil when the key is absent.
func (n *Node) Get(key string) *Node {
	if e := n.Lookup(key); e != nil {
		return e.Value
	}
	return nil
}

// Set stores v at key. An existing entry keeps its position and comment, and
// v inherits the replaced value's trailing comments unless it has its own.
// A missing key is appended.
func (n *Node) Set(key string, v *Node) *Entry {
	if e := n.Lookup(key); e != nil {
		v.adopt(e.Value)
		e.Value = v
		return e
	}
	return n.Insert(len(n.Entries), key, v)
}

// Insert adds a new entry at position i (clamped to the valid range).
func (n *Node) Insert(i int, key string, v *Node) *Entry {
	if i < 0 {
		i = 0
	}
	if i > len(n.Entries) {
		i = len(n.Entries)
	}
	e := &Entry{Key: key, Value: v}
	n.Entries = append(n.Entries, nil)
	copy(n.Entries[i+1:], n.Entries[i:])
	n.Entries[i] = e
	return e
}

// Delete removes key and reports whether it was present.
func (n *Node) Delete(key string) bool {
	i := n.Index(key)
	if i < 0 {
		return false
	}
	n.Entries = append(n.Entries[:i], n.Entries[i+1:]...)
	return true
}

// Comment returns the comment attached to key in a mapping node.
func (n *Node) Comment(key string) string {
	if e := n.Lookup(key); e != nil {
		return e.Comment()
	}
	return ""
}

// SetComment attaches text to key and reports whether the key exists.
func (n *Node) SetComment(key, text string) bool {
	e := n.Lookup(key)
	if e == nil {
		return false
	}
	e.SetComment(text)
	return true
}

// adopt copies trailing comments from old when n has none.
func (n *Node) adopt(old *Node) {
	if old == nil {
		return
	}
	if n.pres.line == "" {
		n.pres.line = old.pres.line
	}
	if n.pres.foot == "" {
		n.pres.foot = old.pres.foot
	}
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	if n.Items != nil {
		c.Items = make([]*Node, len(n.Items))
		for i, it := range n.Items {
			c.Items[i] = it.Clone()
		}
	}
	if n.Entries != nil {
		c.Entries = make([]*Entry, len(n.Entries))
		for i, e := range n.Entries {
			ce := *e
			ce.Value = e.Value.Clone()
			c.Entries[i] = &ce
		}
	}
	return &c
}

// Equal reports whether a and b hold the same data. Comments and
// presentation are ignored; mapping order is significant.
func Equal(a, b *Node) bool {
	if a.IsNull() || b.IsNull() {
		return a.IsNull() && b.IsNull()
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case ScalarNode:
		return a.Tag == b.Tag && a.Value == b.Value
	case ListNode:
		if len(a.Items) != len(b.Items) {
			return false
		}
		for i := range a.Items {
			if !Equal(a.Items[i], b.Items[i]) {
				return false
			}
		}
		return true
	case MapNode:
		if len(a.Entries) != len(b.Entries) {
			return false
		}
		for i := range a.Entries {
			if a.Entries[i].Key != b.Entries[i].Key || !Equal(a.Entries[i].Value, b.Entries[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

// cleanComment strips comment markers from a raw comment block.
func cleanComment(raw string) string {
	if raw == "" {
		return ""
	}
	lines := strings.Split(raw, "\n")
	for i, l := range lines {
		l = strings.TrimSpace(l)
		l = strings.TrimPrefix(l, "#")
		l = strings.TrimPrefix(l, " ")
		lines[i] = l
	}
	return strings.Join(lines, "\n")
}

// formatComment renders text as a block of comment lines.
func formatComment(text string) string {
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		if l == "" {
			lines[i] = "#"
			continue
		}
		lines[i] = "# " + l
	}
	return strings.Join(lines, "\n")
}
