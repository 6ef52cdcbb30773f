package document

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// TOML is the TOML format. It does not retain comments, and keys are
// written in sorted order.
var TOML Format = tomlFormat{}

type tomlFormat struct{}

func (tomlFormat) Name() string { return "toml" }

func (tomlFormat) Parse(data []byte) (*Node, error) {
	raw := make(map[string]any)
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, &SyntaxError{Format: "toml", Err: err}
	}
	return fromAny(raw), nil
}

func (tomlFormat) Serialize(root *Node) ([]byte, error) {
	if root == nil {
		root = NewMap()
	}
	v, err := toAny(root)
	if err != nil {
		return nil, fmt.Errorf("encode toml: %w", err)
	}
	m, _ := v.(map[string]any)
	if m == nil {
		m = make(map[string]any)
	}
	out, err := toml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode toml: %w", err)
	}
	return out, nil
}

func fromAny(v any) *Node {
	switch t := v.(type) {
	case nil:
		return Null()
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		n := NewMap()
		for _, k := range keys {
			n.Entries = append(n.Entries, &Entry{Key: k, Value: fromAny(t[k])})
		}
		return n
	case []any:
		n := NewList()
		for _, it := range t {
			n.Items = append(n.Items, fromAny(it))
		}
		return n
	case string:
		return String(t)
	case bool:
		return Bool(t)
	case int64:
		return Int(t)
	case float64:
		return Float(t, 64)
	case time.Time:
		return String(t.Format(time.RFC3339Nano))
	case fmt.Stringer:
		// LocalDate, LocalTime and LocalDateTime
		return String(t.String())
	default:
		return String(fmt.Sprint(t))
	}
}

func toAny(n *Node) (any, error) {
	switch n.Kind {
	case MapNode:
		m := make(map[string]any, len(n.Entries))
		for _, e := range n.Entries {
			if e.Value.IsNull() {
				continue
			}
			v, err := toAny(e.Value)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", e.Key, err)
			}
			m[e.Key] = v
		}
		return m, nil
	case ListNode:
		l := make([]any, 0, len(n.Items))
		for i, it := range n.Items {
			if it.IsNull() {
				return nil, fmt.Errorf("[%d]: null is not representable", i)
			}
			v, err := toAny(it)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			l = append(l, v)
		}
		return l, nil
	case NullNode:
		return nil, fmt.Errorf("null is not representable")
	}

	switch n.Tag {
	case TagInt:
		if i, err := strconv.ParseInt(n.Value, 0, 64); err == nil {
			return i, nil
		}
		u, err := strconv.ParseUint(n.Value, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", n.Value)
		}
		return u, nil
	case TagFloat:
		switch n.Value {
		case ".inf", "+.inf", ".Inf", ".INF":
			return math.Inf(1), nil
		case "-.inf", "-.Inf", "-.INF":
			return math.Inf(-1), nil
		case ".nan", ".NaN", ".NAN":
			return math.NaN(), nil
		}
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float %q", n.Value)
		}
		return f, nil
	case TagBool:
		b, err := strconv.ParseBool(n.Value)
		if err != nil {
			return nil, fmt.Errorf("invalid bool %q", n.Value)
		}
		return b, nil
	default:
		return n.Value, nil
	}
}
