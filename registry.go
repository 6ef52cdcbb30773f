package mooring

import (
	"encoding"
	"fmt"
	"reflect"
	"sync"

	"github.com/Azhovan/mooring/document"
	"github.com/Azhovan/mooring/internal/normalize"
)

var (
	enumType            = reflect.TypeOf((*Enum)(nil)).Elem()
	defaulterType       = reflect.TypeOf((*Defaulter)(nil)).Elem()
	textMarshalerType   = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// TypeDescriptor describes one configuration struct: its fields in
// declaration order and their defaults. Immutable once returned.
type TypeDescriptor struct {
	Type   reflect.Type
	Fields []*FieldDescriptor

	defaults reflect.Value
}

// New returns a pointer to a fresh instance holding every default.
func (td *TypeDescriptor) New() reflect.Value {
	v := reflect.New(td.Type)
	v.Elem().Set(deepCopy(td.defaults))
	return v
}

// Field returns the descriptor for a document key, or nil.
func (td *TypeDescriptor) Field(name string) *FieldDescriptor {
	for _, fd := range td.Fields {
		if fd.Name == name {
			return fd
		}
	}
	return nil
}

// FieldDescriptor describes one field of a configuration struct.
type FieldDescriptor struct {
	Name       string // Document key
	GoName     string // Struct field name
	Comment    string // Documentation written above the key
	Secret     bool   // Redacted by DumpEffective
	Constraint *Constraint

	index   int
	vt      *valueType
	def     reflect.Value
	defNode *document.Node
}

// Kind returns the field's value category.
func (fd *FieldDescriptor) Kind() Kind { return fd.vt.kind }

// Type returns the field's Go type.
func (fd *FieldDescriptor) Type() reflect.Type { return fd.vt.typ }

// Default returns a copy of the field's default value.
func (fd *FieldDescriptor) Default() any { return deepCopy(fd.def).Interface() }

// DefaultNode returns a copy of the field's default as a document node.
func (fd *FieldDescriptor) DefaultNode() *document.Node { return fd.defNode.Clone() }

// Object returns the nested struct descriptor for KindObject fields, or nil.
func (fd *FieldDescriptor) Object() *TypeDescriptor { return fd.vt.object }

// valueType describes how values of one Go type map to document nodes.
type valueType struct {
	kind   Kind
	typ    reflect.Type
	elem   *valueType      // KindList, KindMap
	object *TypeDescriptor // KindObject
	custom *customCodec    // KindCustom
	enum   []string        // KindEnum
}

// Registry discovers and caches TypeDescriptors and holds custom codecs.
// Safe for concurrent use.
type Registry struct {
	mu          sync.Mutex
	descriptors map[reflect.Type]*TypeDescriptor
	types       map[reflect.Type]*valueType
	codecs      map[reflect.Type]*customCodec
	describing  map[reflect.Type]bool
}

// NewRegistry creates a registry with the built-in codecs for
// time.Duration and time.Time.
func NewRegistry() *Registry {
	r := &Registry{
		descriptors: make(map[reflect.Type]*TypeDescriptor),
		types:       make(map[reflect.Type]*valueType),
		codecs:      make(map[reflect.Type]*customCodec),
		describing:  make(map[reflect.Type]bool),
	}
	registerBuiltins(r)
	return r
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the registry used when none is configured.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Describe returns the descriptor for struct type t (or pointer to struct),
// building and caching it on first use.
func (r *Registry) Describe(t reflect.Type) (*TypeDescriptor, error) {
	if t == nil {
		return nil, ErrNilConfig
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.describe(t, "")
}

// Describe returns the descriptor for T from the default registry.
func Describe[T any]() (*TypeDescriptor, error) {
	return defaultRegistry.Describe(reflect.TypeOf((*T)(nil)).Elem())
}

func (r *Registry) describe(t reflect.Type, goPath string) (*TypeDescriptor, error) {
	if td, ok := r.descriptors[t]; ok {
		return td, nil
	}
	if t.Kind() != reflect.Struct {
		return nil, &UnsupportedTypeError{Type: t, Field: goPath, Reason: "configuration type must be a struct"}
	}
	if r.describing[t] {
		return nil, &UnsupportedTypeError{Type: t, Field: goPath, Reason: "configuration type refers to itself"}
	}
	r.describing[t] = true
	defer delete(r.describing, t)

	td := &TypeDescriptor{Type: t}
	defaults := reflect.New(t).Elem()

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tags := parseTag(sf.Tag.Get("conf"))
		if tags.skip {
			continue
		}

		fieldPath := sf.Name
		if goPath != "" {
			fieldPath = goPath + "." + sf.Name
		}

		vt, err := r.classify(sf.Type, fieldPath)
		if err != nil {
			return nil, err
		}

		name := tags.name
		if name == "" {
			name = normalize.ToDashed(sf.Name)
		}
		if td.Field(name) != nil {
			return nil, &UnsupportedTypeError{Type: t, Field: fieldPath, Reason: fmt.Sprintf("duplicate document key %q", name)}
		}

		constraint, err := newConstraint(sf.Type, tags)
		if err != nil {
			return nil, &UnsupportedTypeError{Type: sf.Type, Field: fieldPath, Reason: err.Error()}
		}

		fd := &FieldDescriptor{
			Name:       name,
			GoName:     sf.Name,
			Comment:    sf.Tag.Get("comment"),
			Secret:     tags.secret,
			Constraint: constraint,
			index:      i,
			vt:         vt,
		}

		if vt.kind == KindObject {
			defaults.Field(i).Set(deepCopy(vt.object.defaults))
		}
		if tags.hasDefault {
			v, err := decodeLiteral(tags.defValue, vt, fieldPath)
			if err != nil {
				return nil, &MissingDefaultError{Type: t, Field: fieldPath, Err: err}
			}
			defaults.Field(i).Set(v)
		}

		td.Fields = append(td.Fields, fd)
	}

	if reflect.PointerTo(t).Implements(defaulterType) {
		defaults.Addr().Interface().(Defaulter).SetDefaults()
	}

	for _, fd := range td.Fields {
		fd.def = deepCopy(defaults.Field(fd.index))
		node, err := encodeValue(fd.def, fd.vt)
		if err != nil {
			return nil, &MissingDefaultError{Type: t, Field: fd.GoName, Err: err}
		}
		fd.defNode = node
	}
	td.defaults = defaults

	r.descriptors[t] = td
	return td, nil
}

// classify resolves the value category of t. Order matters: registered
// codecs win over everything, then enums, then text marshalers, then the
// structural kinds.
func (r *Registry) classify(t reflect.Type, goPath string) (*valueType, error) {
	if vt, ok := r.types[t]; ok {
		return vt, nil
	}

	vt := &valueType{typ: t}
	switch {
	case r.codecs[t] != nil:
		vt.kind = KindCustom
		vt.custom = r.codecs[t]

	case t.Implements(enumType) && isEnumKind(t.Kind()):
		names := reflect.Zero(t).Interface().(Enum).EnumNames()
		if len(names) == 0 {
			return nil, &UnsupportedTypeError{Type: t, Field: goPath, Reason: "enum declares no names"}
		}
		vt.kind = KindEnum
		vt.enum = append([]string(nil), names...)

	case t.Implements(textMarshalerType) && reflect.PointerTo(t).Implements(textUnmarshalerType):
		vt.kind = KindCustom
		vt.custom = textCodec(t)

	default:
		switch t.Kind() {
		case reflect.Bool, reflect.String,
			reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			vt.kind = KindScalar

		case reflect.Slice, reflect.Array:
			elem, err := r.classify(t.Elem(), goPath+"[]")
			if err != nil {
				return nil, err
			}
			vt.kind = KindList
			vt.elem = elem

		case reflect.Map:
			if t.Key().Kind() != reflect.String {
				return nil, &UnsupportedTypeError{Type: t, Field: goPath, Reason: "map keys must be strings"}
			}
			elem, err := r.classify(t.Elem(), goPath+"[]")
			if err != nil {
				return nil, err
			}
			vt.kind = KindMap
			vt.elem = elem

		case reflect.Struct:
			td, err := r.describe(t, goPath)
			if err != nil {
				return nil, err
			}
			vt.kind = KindObject
			vt.object = td

		case reflect.Interface:
			return nil, &UnsupportedTypeError{Type: t, Field: goPath, Reason: "interface values have no fixed shape; register a codec"}

		default:
			return nil, &UnsupportedTypeError{Type: t, Field: goPath, Reason: fmt.Sprintf("%s values cannot be represented", t.Kind())}
		}
	}

	r.types[t] = vt
	return vt, nil
}

func isEnumKind(k reflect.Kind) bool {
	switch k {
	case reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

// decodeLiteral converts a `default:` tag literal into a value of vt.
func decodeLiteral(literal string, vt *valueType, goPath string) (reflect.Value, error) {
	n, err := document.ParseScalar(literal)
	if err != nil {
		return reflect.Value{}, err
	}
	v := reflect.New(vt.typ).Elem()
	if err := decodeValue(&run{strict: true}, n, vt, v, goPath); err != nil {
		return reflect.Value{}, err
	}
	return v, nil
}
