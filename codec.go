package mooring

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/Azhovan/mooring/document"
	"github.com/Azhovan/mooring/internal/normalize"
)

// codec converts between document nodes and Go values of one Kind.
type codec interface {
	// toValue decodes n into dst, which is settable and of vt.typ.
	toValue(r *run, n *document.Node, vt *valueType, dst reflect.Value, path string) error

	// toNode encodes v as a fresh node.
	toNode(v reflect.Value, vt *valueType) (*document.Node, error)
}

func codecFor(k Kind) codec {
	switch k {
	case KindScalar:
		return scalarCodec{}
	case KindEnum:
		return enumCodec{}
	case KindList:
		return listCodec{}
	case KindMap:
		return mapCodec{}
	case KindObject:
		return objectCodec{}
	default:
		return customKindCodec{}
	}
}

func decodeValue(r *run, n *document.Node, vt *valueType, dst reflect.Value, path string) error {
	return codecFor(vt.kind).toValue(r, n, vt, dst, path)
}

func encodeValue(v reflect.Value, vt *valueType) (*document.Node, error) {
	return codecFor(vt.kind).toNode(v, vt)
}

func mismatch(path string, t reflect.Type, n *document.Node, err error) error {
	return &TypeMismatchError{Path: path, Expected: t.String(), Got: describeNode(n), Err: err}
}

func describeNode(n *document.Node) string {
	switch {
	case n.IsNull():
		return "null"
	case n.Kind == document.ScalarNode:
		return fmt.Sprintf("%s %q", n.Tag, n.Value)
	default:
		return n.Kind.String()
	}
}

type scalarCodec struct{}

func (scalarCodec) toValue(_ *run, n *document.Node, vt *valueType, dst reflect.Value, path string) error {
	t := vt.typ
	if t.Kind() == reflect.String {
		switch n.Kind {
		case document.NullNode:
			dst.SetString("")
		case document.ScalarNode:
			dst.SetString(n.Value)
		default:
			return mismatch(path, t, n, nil)
		}
		return nil
	}

	if n.Kind != document.ScalarNode {
		return mismatch(path, t, n, nil)
	}

	switch t.Kind() {
	case reflect.Bool:
		if n.Tag != document.TagBool && n.Tag != document.TagString {
			return mismatch(path, t, n, nil)
		}
		switch {
		case strings.EqualFold(n.Value, "true"):
			dst.SetBool(true)
		case strings.EqualFold(n.Value, "false"):
			dst.SetBool(false)
		default:
			return mismatch(path, t, n, nil)
		}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if n.Tag != document.TagInt && n.Tag != document.TagString {
			return mismatch(path, t, n, nil)
		}
		i, err := parseInt(strings.TrimSpace(n.Value), t.Bits())
		if err != nil {
			return mismatch(path, t, n, numError(err))
		}
		dst.SetInt(i)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if n.Tag != document.TagInt && n.Tag != document.TagString {
			return mismatch(path, t, n, nil)
		}
		u, err := parseUint(strings.TrimSpace(n.Value), t.Bits())
		if err != nil {
			return mismatch(path, t, n, numError(err))
		}
		dst.SetUint(u)

	case reflect.Float32, reflect.Float64:
		if n.Tag == document.TagBool {
			return mismatch(path, t, n, nil)
		}
		f, err := parseFloat(strings.TrimSpace(n.Value), t.Bits())
		if err != nil {
			return mismatch(path, t, n, numError(err))
		}
		dst.SetFloat(f)

	default:
		return mismatch(path, t, n, nil)
	}
	return nil
}

func (scalarCodec) toNode(v reflect.Value, vt *valueType) (*document.Node, error) {
	switch v.Kind() {
	case reflect.Bool:
		return document.Bool(v.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return document.Int(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return document.Uint(v.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return document.Float(v.Float(), vt.typ.Bits()), nil
	case reflect.String:
		return document.String(v.String()), nil
	}
	return nil, fmt.Errorf("cannot encode %s", vt.typ)
}

// parseInt reads decimal first so "0042" stays 42, then prefixed forms
// such as 0x1F and 0o17.
func parseInt(s string, bits int) (int64, error) {
	i, err := strconv.ParseInt(s, 10, bits)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		if j, perr := strconv.ParseInt(s, 0, bits); perr == nil {
			return j, nil
		}
	}
	return i, err
}

func parseUint(s string, bits int) (uint64, error) {
	u, err := strconv.ParseUint(s, 10, bits)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		if v, perr := strconv.ParseUint(s, 0, bits); perr == nil {
			return v, nil
		}
	}
	return u, err
}

// parseFloat accepts decimal and YAML spellings, then integer forms such as 0x1F.
func parseFloat(s string, bits int) (float64, error) {
	switch strings.ToLower(s) {
	case ".inf", "+.inf":
		return math.Inf(1), nil
	case "-.inf":
		return math.Inf(-1), nil
	case ".nan":
		return math.NaN(), nil
	}
	f, err := strconv.ParseFloat(s, bits)
	if err == nil {
		return f, nil
	}
	if i, ierr := strconv.ParseInt(s, 0, 64); ierr == nil {
		return float64(i), nil
	}
	return 0, err
}

// numError strips the strconv prefix, which repeats the input.
func numError(err error) error {
	if ne, ok := err.(*strconv.NumError); ok {
		return ne.Err
	}
	return err
}

type enumCodec struct{}

func (enumCodec) toValue(_ *run, n *document.Node, vt *valueType, dst reflect.Value, path string) error {
	if n.Kind != document.ScalarNode {
		return mismatch(path, vt.typ, n, nil)
	}
	for i, name := range vt.enum {
		if !strings.EqualFold(name, n.Value) {
			continue
		}
		switch vt.typ.Kind() {
		case reflect.String:
			dst.SetString(name)
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			dst.SetInt(int64(i))
		default:
			dst.SetUint(uint64(i))
		}
		return nil
	}
	return &InvalidEnumValueError{Path: path, Value: n.Value, Valid: vt.enum}
}

func (enumCodec) toNode(v reflect.Value, vt *valueType) (*document.Node, error) {
	name, ok := enumName(v, vt)
	if !ok {
		return nil, fmt.Errorf("%s value %q is not one of: %s", vt.typ, enumText(v), strings.Join(vt.enum, ", "))
	}
	return document.String(name), nil
}

// enumName returns the canonical name of an enum value. String kinds match
// case-insensitively; integer kinds index the name list.
func enumName(v reflect.Value, vt *valueType) (string, bool) {
	var i int
	switch v.Kind() {
	case reflect.String:
		for _, name := range vt.enum {
			if strings.EqualFold(name, v.String()) {
				return name, true
			}
		}
		return "", false
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if v.Int() < 0 || v.Int() >= int64(len(vt.enum)) {
			return "", false
		}
		i = int(v.Int())
	default:
		if v.Uint() >= uint64(len(vt.enum)) {
			return "", false
		}
		i = int(v.Uint())
	}
	return vt.enum[i], true
}

func enumText(v reflect.Value) string {
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	default:
		return strconv.FormatUint(v.Uint(), 10)
	}
}

type listCodec struct{}

func (listCodec) toValue(r *run, n *document.Node, vt *valueType, dst reflect.Value, path string) error {
	t := vt.typ
	if n.IsNull() {
		if t.Kind() == reflect.Slice {
			dst.Set(reflect.MakeSlice(t, 0, 0))
		} else {
			dst.Set(reflect.Zero(t))
		}
		return nil
	}
	if n.Kind != document.ListNode {
		return mismatch(path, t, n, nil)
	}

	var out reflect.Value
	if t.Kind() == reflect.Array {
		if len(n.Items) != t.Len() {
			return mismatch(path, t, n, fmt.Errorf("expected %d items, got %d", t.Len(), len(n.Items)))
		}
		out = reflect.New(t).Elem()
	} else {
		out = reflect.MakeSlice(t, len(n.Items), len(n.Items))
	}

	for i, item := range n.Items {
		if err := decodeValue(r, item, vt.elem, out.Index(i), normalize.IndexPath(path, i)); err != nil {
			return err
		}
	}
	dst.Set(out)
	return nil
}

func (listCodec) toNode(v reflect.Value, vt *valueType) (*document.Node, error) {
	list := document.NewList()
	for i := 0; i < v.Len(); i++ {
		item, err := encodeValue(v.Index(i), vt.elem)
		if err != nil {
			return nil, err
		}
		list.Items = append(list.Items, item)
	}
	return list, nil
}

type mapCodec struct{}

func (mapCodec) toValue(r *run, n *document.Node, vt *valueType, dst reflect.Value, path string) error {
	t := vt.typ
	if n.IsNull() {
		dst.Set(reflect.MakeMap(t))
		return nil
	}
	if n.Kind != document.MapNode {
		return mismatch(path, t, n, nil)
	}

	out := reflect.MakeMapWithSize(t, len(n.Entries))
	for _, e := range n.Entries {
		ev := reflect.New(t.Elem()).Elem()
		if err := decodeValue(r, e.Value, vt.elem, ev, normalize.JoinPath(path, e.Key)); err != nil {
			return err
		}
		out.SetMapIndex(mapKey(t, e.Key), ev)
	}
	dst.Set(out)
	return nil
}

func (mapCodec) toNode(v reflect.Value, vt *valueType) (*document.Node, error) {
	m := document.NewMap()
	for _, key := range sortedKeys(v) {
		n, err := encodeValue(v.MapIndex(mapKey(vt.typ, key)), vt.elem)
		if err != nil {
			return nil, err
		}
		m.Insert(len(m.Entries), key, n)
	}
	return m, nil
}

func mapKey(t reflect.Type, key string) reflect.Value {
	return reflect.ValueOf(key).Convert(t.Key())
}

func sortedKeys(v reflect.Value) []string {
	keys := make([]string, 0, v.Len())
	for _, k := range v.MapKeys() {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)
	return keys
}

// objectCodec handles structs reached through lists and maps. Fields of
// the top-level struct are bound by run.loadObject directly, so a bad leaf
// there falls back on its own; here any bad leaf fails the whole element.
type objectCodec struct{}

func (objectCodec) toValue(r *run, n *document.Node, vt *valueType, dst reflect.Value, path string) error {
	td := vt.object
	if n.IsNull() {
		dst.Set(deepCopy(td.defaults))
		return nil
	}
	if n.Kind != document.MapNode {
		return mismatch(path, vt.typ, n, nil)
	}

	dst.Set(deepCopy(td.defaults))
	sub := &run{strict: true}
	if err := sub.loadObject(n, td, dst, path, path); err != nil {
		if len(sub.errs) > 0 {
			return sub.errs[0].Err
		}
		return err
	}
	if r != nil {
		r.materialized = append(r.materialized, sub.materialized...)
	}
	return nil
}

func (objectCodec) toNode(v reflect.Value, vt *valueType) (*document.Node, error) {
	return dumpFresh(vt.object, v)
}

type customKindCodec struct{}

func (customKindCodec) toValue(_ *run, n *document.Node, vt *valueType, dst reflect.Value, path string) error {
	v, err := vt.custom.toValue(n)
	if err != nil {
		return mismatch(path, vt.typ, n, err)
	}
	dst.Set(v)
	return nil
}

func (customKindCodec) toNode(v reflect.Value, vt *valueType) (*document.Node, error) {
	n, err := vt.custom.toNode(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", vt.typ, err)
	}
	if n == nil {
		return document.Null(), nil
	}
	return n, nil
}
