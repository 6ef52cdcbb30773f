package mooring

import "reflect"

// deepCopy returns an independent copy of v. Slices, maps and nested
// structs are duplicated; unexported fields are copied by value.
func deepCopy(v reflect.Value) reflect.Value {
	out := reflect.New(v.Type()).Elem()
	copyInto(out, v)
	return out
}

func copyInto(dst, src reflect.Value) {
	switch src.Kind() {
	case reflect.Slice:
		if src.IsNil() {
			dst.Set(reflect.Zero(src.Type()))
			return
		}
		s := reflect.MakeSlice(src.Type(), src.Len(), src.Len())
		for i := 0; i < src.Len(); i++ {
			copyInto(s.Index(i), src.Index(i))
		}
		dst.Set(s)

	case reflect.Array:
		for i := 0; i < src.Len(); i++ {
			copyInto(dst.Index(i), src.Index(i))
		}

	case reflect.Map:
		if src.IsNil() {
			dst.Set(reflect.Zero(src.Type()))
			return
		}
		m := reflect.MakeMapWithSize(src.Type(), src.Len())
		iter := src.MapRange()
		for iter.Next() {
			ev := reflect.New(src.Type().Elem()).Elem()
			copyInto(ev, iter.Value())
			m.SetMapIndex(iter.Key(), ev)
		}
		dst.Set(m)

	case reflect.Struct:
		dst.Set(src)
		t := src.Type()
		for i := 0; i < src.NumField(); i++ {
			if t.Field(i).IsExported() {
				copyInto(dst.Field(i), src.Field(i))
			}
		}

	default:
		dst.Set(src)
	}
}

// Clone returns a deep copy of cfg.
func Clone[T any](cfg *T) *T {
	if cfg == nil {
		return nil
	}
	return deepCopy(reflect.ValueOf(cfg).Elem()).Addr().Interface().(*T)
}
