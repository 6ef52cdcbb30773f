package mooring

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Constraint is a field's declared validation rule, parsed from its tag.
type Constraint struct {
	Min   string
	Max   string
	OneOf []string

	measure bounds
}

// bounds holds Min and Max parsed for the field's type.
type bounds struct {
	minI, maxI int64
	minU, maxU uint64
	minF, maxF float64
	minN, maxN int // lengths
	hasMin     bool
	hasMax     bool
}

// newConstraint parses the min/max/oneof directives for a field of type t.
// It returns nil when the field declares none.
func newConstraint(t reflect.Type, tags tagConfig) (*Constraint, error) {
	if tags.min == "" && tags.max == "" && len(tags.oneof) == 0 {
		return nil, nil
	}
	c := &Constraint{Min: tags.min, Max: tags.max, OneOf: tags.oneof}

	parse := func(s string, lo bool) error {
		if s == "" {
			return nil
		}
		var err error
		switch t.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			var v int64
			if t == durationType {
				var d time.Duration
				d, err = time.ParseDuration(s)
				v = int64(d)
			} else {
				v, err = strconv.ParseInt(s, 10, 64)
			}
			if lo {
				c.measure.minI = v
			} else {
				c.measure.maxI = v
			}
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			var v uint64
			v, err = strconv.ParseUint(s, 10, 64)
			if lo {
				c.measure.minU = v
			} else {
				c.measure.maxU = v
			}
		case reflect.Float32, reflect.Float64:
			var v float64
			v, err = strconv.ParseFloat(s, 64)
			if lo {
				c.measure.minF = v
			} else {
				c.measure.maxF = v
			}
		case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
			var v int
			v, err = strconv.Atoi(s)
			if lo {
				c.measure.minN = v
			} else {
				c.measure.maxN = v
			}
		default:
			return fmt.Errorf("min/max not supported for %s", t.Kind())
		}
		if err != nil {
			return fmt.Errorf("invalid bound %q: %w", s, err)
		}
		if lo {
			c.measure.hasMin = true
		} else {
			c.measure.hasMax = true
		}
		return nil
	}

	if err := parse(tags.min, true); err != nil {
		return nil, err
	}
	if err := parse(tags.max, false); err != nil {
		return nil, err
	}
	if len(c.OneOf) > 0 {
		if _, ok := constraintText(reflect.Zero(t)); !ok {
			return nil, fmt.Errorf("oneof not supported for %s", t.Kind())
		}
	}
	return c, nil
}

// check validates v and returns a *ConstraintError on violation.
func (c *Constraint) check(v reflect.Value, path string) error {
	if c == nil {
		return nil
	}
	m := c.measure

	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		value := v.Int()
		if m.hasMin && value < m.minI {
			return violation(path, ErrCodeMin, "value %d is below minimum %d", value, m.minI)
		}
		if m.hasMax && value > m.maxI {
			return violation(path, ErrCodeMax, "value %d exceeds maximum %d", value, m.maxI)
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		value := v.Uint()
		if m.hasMin && value < m.minU {
			return violation(path, ErrCodeMin, "value %d is below minimum %d", value, m.minU)
		}
		if m.hasMax && value > m.maxU {
			return violation(path, ErrCodeMax, "value %d exceeds maximum %d", value, m.maxU)
		}
	case reflect.Float32, reflect.Float64:
		value := v.Float()
		if m.hasMin && value < m.minF {
			return violation(path, ErrCodeMin, "value %g is below minimum %g", value, m.minF)
		}
		if m.hasMax && value > m.maxF {
			return violation(path, ErrCodeMax, "value %g exceeds maximum %g", value, m.maxF)
		}
	case reflect.String:
		length := len(v.String())
		if m.hasMin && length < m.minN {
			return violation(path, ErrCodeMin, "string length %d is below minimum %d", length, m.minN)
		}
		if m.hasMax && length > m.maxN {
			return violation(path, ErrCodeMax, "string length %d exceeds maximum %d", length, m.maxN)
		}
	case reflect.Slice, reflect.Array, reflect.Map:
		length := v.Len()
		if m.hasMin && length < m.minN {
			return violation(path, ErrCodeMin, "length %d is below minimum %d", length, m.minN)
		}
		if m.hasMax && length > m.maxN {
			return violation(path, ErrCodeMax, "length %d exceeds maximum %d", length, m.maxN)
		}
	}

	if len(c.OneOf) > 0 {
		valueStr, _ := constraintText(v)
		for _, allowed := range c.OneOf {
			if valueStr == allowed {
				return nil
			}
		}
		return violation(path, ErrCodeOneOf, "value %q must be one of: %s", valueStr, strings.Join(c.OneOf, ", "))
	}
	return nil
}

func violation(path, code, format string, args ...any) error {
	return &ConstraintError{Path: path, Code: code, Message: fmt.Sprintf(format, args...)}
}

// constraintText renders a scalar for oneof comparison.
func constraintText(v reflect.Value) (string, bool) {
	switch v.Kind() {
	case reflect.String:
		return v.String(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(v.Uint(), 10), true
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, v.Type().Bits()), true
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), true
	default:
		return "", false
	}
}
