package mooring

import (
	"fmt"
	"reflect"

	"github.com/Azhovan/mooring/document"
	"github.com/Azhovan/mooring/internal/normalize"
)

// Report describes what a load did besides producing a value.
type Report struct {
	// FieldErrors lists values that could not be used and were replaced
	// by their defaults.
	FieldErrors []FieldError

	// Materialized lists key paths that were absent (or null objects) and
	// were written into the document from defaults.
	Materialized []string

	// Fields records where every leaf value came from.
	Fields []FieldProvenance
}

// Err returns the field errors as a *ValidationError, or nil.
func (r *Report) Err() error {
	if r == nil || len(r.FieldErrors) == 0 {
		return nil
	}
	return &ValidationError{FieldErrors: append([]FieldError(nil), r.FieldErrors...)}
}

// Changed reports whether the load modified the document.
func (r *Report) Changed() bool {
	return r != nil && len(r.Materialized) > 0
}

// Binder converts between documents and configuration instances using
// TypeDescriptors. It holds no per-call state and is safe for concurrent use.
type Binder struct {
	strict bool
}

// NewBinder creates a binder. In strict mode the first invalid value aborts
// the load with a *ValidationError instead of falling back to its default.
func NewBinder(strict bool) *Binder {
	return &Binder{strict: strict}
}

// Load builds a new instance of td.Type from root and returns a pointer to
// it. Absent keys are inserted into root, with their comments, holding the
// default values; root is otherwise left untouched.
func (b *Binder) Load(root *document.Node, td *TypeDescriptor) (any, *Report, error) {
	if root == nil || root.Kind != document.MapNode {
		return nil, nil, &TypeMismatchError{Path: "(root)", Expected: td.Type.String(), Got: describeNode(root)}
	}

	r := &run{strict: b.strict}
	out := td.New()
	if err := r.loadObject(root, td, out.Elem(), "", ""); err != nil {
		return nil, nil, err
	}
	return out.Interface(), r.report(), nil
}

// Dump writes cfg into existing and returns it. Keys whose current document
// value already decodes to the field value are left alone, which keeps
// comments and formatting; others are replaced in place. Missing keys are
// inserted after their predecessor field. A nil existing yields a fresh
// document in declaration order with every field comment.
func (b *Binder) Dump(cfg any, td *TypeDescriptor, existing *document.Node) (*document.Node, error) {
	v := reflect.ValueOf(cfg)
	if !v.IsValid() || (v.Kind() == reflect.Pointer && v.IsNil()) {
		return nil, ErrNilConfig
	}
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if v.Type() != td.Type {
		return nil, fmt.Errorf("mooring: cannot dump %s with descriptor for %s", v.Type(), td.Type)
	}

	if existing == nil || existing.Kind != document.MapNode {
		return dumpFresh(td, v)
	}
	if err := mergeObject(existing, td, v, ""); err != nil {
		return nil, err
	}
	return existing, nil
}

// Check applies every declared constraint to cfg and returns a
// *ValidationError listing all violations.
func (b *Binder) Check(cfg any, td *TypeDescriptor) error {
	v := reflect.ValueOf(cfg)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return ErrNilConfig
		}
		v = v.Elem()
	}
	var errs []FieldError
	checkObject(td, v, "", &errs)
	if len(errs) > 0 {
		return &ValidationError{FieldErrors: errs}
	}
	return nil
}

func checkObject(td *TypeDescriptor, v reflect.Value, path string, errs *[]FieldError) {
	for _, fd := range td.Fields {
		fpath := normalize.JoinPath(path, fd.Name)
		fv := v.Field(fd.index)
		switch fd.vt.kind {
		case KindObject:
			checkObject(fd.vt.object, fv, fpath, errs)
		case KindEnum:
			if _, ok := enumName(fv, fd.vt); !ok {
				*errs = append(*errs, fieldErrorFrom(fpath, &InvalidEnumValueError{
					Path:  fpath,
					Value: enumText(fv),
					Valid: fd.vt.enum,
				}))
			}
		}
		if err := fd.Constraint.check(fv, fpath); err != nil {
			*errs = append(*errs, fieldErrorFrom(fpath, err))
		}
	}
}

// run carries the state of one Load call.
type run struct {
	strict       bool
	errs         []FieldError
	materialized []string
	fields       []FieldProvenance
}

func (r *run) report() *Report {
	return &Report{FieldErrors: r.errs, Materialized: r.materialized, Fields: r.fields}
}

// record notes the origin of a field. Objects are recorded leaf by leaf.
func (r *run) record(keyPath, goPath string, fd *FieldDescriptor, origin Origin) {
	if fd.vt.kind == KindObject {
		for _, sub := range fd.vt.object.Fields {
			r.record(normalize.JoinPath(keyPath, sub.Name), goPath+"."+sub.GoName, sub, origin)
		}
		return
	}
	r.fields = append(r.fields, FieldProvenance{
		FieldPath: goPath,
		KeyPath:   keyPath,
		Origin:    origin,
		Secret:    fd.Secret,
	})
}

// loadObject binds mapping m into the struct value dst, field by field in
// declaration order.
func (r *run) loadObject(m *document.Node, td *TypeDescriptor, dst reflect.Value, keyPath, goPath string) error {
	pos := 0
	for _, fd := range td.Fields {
		fkey := normalize.JoinPath(keyPath, fd.Name)
		fgo := fd.GoName
		if goPath != "" {
			fgo = goPath + "." + fd.GoName
		}
		fv := dst.Field(fd.index)

		idx := m.Index(fd.Name)
		if idx < 0 {
			fv.Set(deepCopy(fd.def))
			e := m.Insert(pos, fd.Name, fd.defNode.Clone())
			e.SetComment(fd.Comment)
			pos++
			r.materialized = append(r.materialized, fkey)
			r.record(fkey, fgo, fd, OriginDefault)
			continue
		}
		pos = idx + 1
		node := m.Entries[idx].Value

		if fd.vt.kind == KindObject {
			switch {
			case node.Kind == document.MapNode:
				if err := r.loadObject(node, fd.vt.object, fv, fkey, fgo); err != nil {
					return err
				}
				continue
			case node.IsNull():
				fv.Set(deepCopy(fd.def))
				m.Set(fd.Name, fd.defNode.Clone())
				r.materialized = append(r.materialized, fkey)
				r.record(fkey, fgo, fd, OriginDefault)
				continue
			}
		}

		tmp := reflect.New(fd.vt.typ).Elem()
		err := decodeValue(r, node, fd.vt, tmp, fkey)
		if err == nil {
			err = fd.Constraint.check(tmp, fkey)
		}
		if err != nil {
			fe := fieldErrorFrom(fkey, err)
			r.errs = append(r.errs, fe)
			if r.strict {
				return &ValidationError{FieldErrors: []FieldError{fe}}
			}
			fv.Set(deepCopy(fd.def))
			r.record(fkey, fgo, fd, OriginFallback)
			continue
		}
		fv.Set(tmp)
		r.record(fkey, fgo, fd, OriginDocument)
	}
	return nil
}

func dumpFresh(td *TypeDescriptor, v reflect.Value) (*document.Node, error) {
	m := document.NewMap()
	for _, fd := range td.Fields {
		n, err := encodeValue(v.Field(fd.index), fd.vt)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fd.Name, err)
		}
		e := m.Insert(len(m.Entries), fd.Name, n)
		e.SetComment(fd.Comment)
	}
	return m, nil
}

func mergeObject(m *document.Node, td *TypeDescriptor, v reflect.Value, path string) error {
	pos := 0
	for _, fd := range td.Fields {
		fpath := normalize.JoinPath(path, fd.Name)
		fv := v.Field(fd.index)

		idx := m.Index(fd.Name)
		if idx < 0 {
			n, err := encodeValue(fv, fd.vt)
			if err != nil {
				return fmt.Errorf("%s: %w", fpath, err)
			}
			e := m.Insert(pos, fd.Name, n)
			e.SetComment(fd.Comment)
			pos++
			continue
		}
		pos = idx + 1

		old := m.Entries[idx].Value
		n, err := mergeValue(old, fv, fd.vt, fpath)
		if err != nil {
			return err
		}
		if n != old {
			m.Set(fd.Name, n)
		}
	}
	return nil
}

// mergeValue returns existing when it already holds v (updating mappings in
// place), or a freshly encoded node otherwise.
func mergeValue(existing *document.Node, v reflect.Value, vt *valueType, path string) (*document.Node, error) {
	switch vt.kind {
	case KindObject:
		if existing.Kind == document.MapNode {
			return existing, mergeObject(existing, vt.object, v, path)
		}
	case KindMap:
		if existing.Kind == document.MapNode && !v.IsNil() {
			return existing, mergeMap(existing, v, vt, path)
		}
	default:
		if sameValue(existing, v, vt, path) {
			return existing, nil
		}
	}
	n, err := encodeValue(v, vt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}

// mergeMap keeps surviving keys in document order, drops removed ones and
// appends new ones in sorted order.
func mergeMap(m *document.Node, v reflect.Value, vt *valueType, path string) error {
	for _, key := range m.Keys() {
		if !v.MapIndex(mapKey(vt.typ, key)).IsValid() {
			m.Delete(key)
		}
	}
	for _, e := range m.Entries {
		n, err := mergeValue(e.Value, v.MapIndex(mapKey(vt.typ, e.Key)), vt.elem, normalize.JoinPath(path, e.Key))
		if err != nil {
			return err
		}
		if n != e.Value {
			m.Set(e.Key, n)
		}
	}
	for _, key := range sortedKeys(v) {
		if m.Index(key) >= 0 {
			continue
		}
		n, err := encodeValue(v.MapIndex(mapKey(vt.typ, key)), vt.elem)
		if err != nil {
			return fmt.Errorf("%s: %w", normalize.JoinPath(path, key), err)
		}
		m.Insert(len(m.Entries), key, n)
	}
	return nil
}

// sameValue reports whether existing already represents v. A node that
// decodes to an equal value is kept as written, so "8080" stays quoted.
func sameValue(existing *document.Node, v reflect.Value, vt *valueType, path string) bool {
	decoded := reflect.New(vt.typ).Elem()
	if err := decodeValue(&run{strict: true}, existing.Clone(), vt, decoded, path); err != nil {
		return false
	}
	if reflect.DeepEqual(decoded.Interface(), v.Interface()) {
		return true
	}
	// nil and empty collections, NaN
	a, errA := encodeValue(decoded, vt)
	b, errB := encodeValue(v, vt)
	return errA == nil && errB == nil && document.Equal(a, b)
}
