package mooring

import (
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/Azhovan/mooring/document"
)

var (
	durationType = reflect.TypeOf(time.Duration(0))
	timeType     = reflect.TypeOf(time.Time{})
)

// timeLayouts are tried in order when reading a time.Time.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// customCodec converts one registered type. Both functions work on
// reflect.Values of exactly that type.
type customCodec struct {
	toValue func(n *document.Node) (reflect.Value, error)
	toNode  func(v reflect.Value) (*document.Node, error)
}

// RegisterCodec teaches r how to convert T. It must be called before any
// type using T is described; afterwards it fails with ErrRegistryFrozen.
// Registering an interface type makes fields of that type bindable.
func RegisterCodec[T any](r *Registry, toValue func(*document.Node) (T, error), toNode func(T) (*document.Node, error)) error {
	if toValue == nil || toNode == nil {
		return errors.New("mooring: codec functions must not be nil")
	}
	t := reflect.TypeOf((*T)(nil)).Elem()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.types[t]; ok {
		return fmt.Errorf("%w: %s", ErrRegistryFrozen, t)
	}
	r.codecs[t] = &customCodec{
		toValue: func(n *document.Node) (reflect.Value, error) {
			v, err := toValue(n)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(&v).Elem(), nil
		},
		toNode: func(v reflect.Value) (*document.Node, error) {
			typed, _ := v.Interface().(T)
			return toNode(typed)
		},
	}
	return nil
}

func registerBuiltins(r *Registry) {
	_ = RegisterCodec(r, decodeDuration, func(d time.Duration) (*document.Node, error) {
		return document.String(d.String()), nil
	})
	_ = RegisterCodec(r, decodeTime, func(t time.Time) (*document.Node, error) {
		return document.String(t.Format(time.RFC3339Nano)), nil
	})
}

func decodeDuration(n *document.Node) (time.Duration, error) {
	if n.Kind != document.ScalarNode || (n.Tag != document.TagString && n.Tag != document.TagInt) {
		return 0, errors.New("expected a duration such as \"30s\"")
	}
	if n.Tag == document.TagInt {
		ns, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil {
			return 0, errors.New("integer durations count nanoseconds and must fit in 64 bits")
		}
		return time.Duration(ns), nil
	}
	return time.ParseDuration(n.Value)
}

func decodeTime(n *document.Node) (time.Time, error) {
	if n.Kind != document.ScalarNode || n.Tag != document.TagString {
		return time.Time{}, errors.New("expected a timestamp string")
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, n.Value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format %q", n.Value)
}

// textCodec converts types implementing encoding.TextMarshaler and, through
// their pointer, encoding.TextUnmarshaler.
func textCodec(t reflect.Type) *customCodec {
	return &customCodec{
		toValue: func(n *document.Node) (reflect.Value, error) {
			if n.Kind != document.ScalarNode {
				return reflect.Value{}, fmt.Errorf("expected text, got %s", n.Kind)
			}
			p := reflect.New(t)
			if err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(n.Value)); err != nil {
				return reflect.Value{}, err
			}
			return p.Elem(), nil
		},
		toNode: func(v reflect.Value) (*document.Node, error) {
			text, err := v.Interface().(encoding.TextMarshaler).MarshalText()
			if err != nil {
				return nil, err
			}
			return document.String(string(text)), nil
		},
	}
}
