package mooring

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// Error codes for field-level failures.
const (
	ErrCodeTypeMismatch = "type_mismatch"
	ErrCodeInvalidEnum  = "invalid_enum"
	ErrCodeMin          = "min"
	ErrCodeMax          = "max"
	ErrCodeOneOf        = "oneof"
)

var (
	// ErrNilConfig is returned when a nil configuration is passed in.
	ErrNilConfig = errors.New("mooring: config is nil")

	// ErrRegistryFrozen is returned when a codec is registered for a type
	// that a Describe call has already classified.
	ErrRegistryFrozen = errors.New("mooring: type already described")
)

// ValidationError aggregates field-level failures.
type ValidationError struct {
	FieldErrors []FieldError
}

// Error formats validation errors as a multi-line message.
func (e *ValidationError) Error() string {
	if len(e.FieldErrors) == 0 {
		return "config validation failed: no errors"
	}

	var b strings.Builder
	if len(e.FieldErrors) == 1 {
		b.WriteString("config validation failed: 1 error\n")
	} else {
		fmt.Fprintf(&b, "config validation failed: %d errors\n", len(e.FieldErrors))
	}

	for _, fe := range e.FieldErrors {
		fmt.Fprintf(&b, "  - %s: %s (%s)\n", fe.FieldPath, fe.Code, fe.Message)
	}

	return strings.TrimRight(b.String(), "\n")
}

// Unwrap exposes the underlying causes to errors.Is and errors.As.
func (e *ValidationError) Unwrap() []error {
	var errs []error
	for _, fe := range e.FieldErrors {
		if fe.Err != nil {
			errs = append(errs, fe.Err)
		}
	}
	return errs
}

// FieldError represents a single field failure.
type FieldError struct {
	FieldPath string // Document key path (e.g., "database.host")
	Code      string // Error code (e.g., "type_mismatch", "min")
	Message   string // Human-readable description
	Err       error  // Underlying cause, if any
}

// UnsupportedTypeError reports a type that cannot be mapped to a document.
// It is returned when a type is described, never during load or save.
type UnsupportedTypeError struct {
	Type   reflect.Type
	Field  string // Go field path, empty for the top-level type
	Reason string
}

func (e *UnsupportedTypeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("mooring: unsupported type %s: %s", e.Type, e.Reason)
	}
	return fmt.Sprintf("mooring: field %s: unsupported type %s: %s", e.Field, e.Type, e.Reason)
}

// MissingDefaultError reports a field without a usable default value.
type MissingDefaultError struct {
	Type  reflect.Type
	Field string
	Err   error
}

func (e *MissingDefaultError) Error() string {
	return fmt.Sprintf("mooring: field %s of %s has no usable default: %v", e.Field, e.Type, e.Err)
}

func (e *MissingDefaultError) Unwrap() error {
	return e.Err
}

// TypeMismatchError reports a document value that cannot be converted to the field type.
type TypeMismatchError struct {
	Path     string
	Expected string // Go type
	Got      string // Description of the document value
	Err      error
}

func (e *TypeMismatchError) Error() string {
	return e.Path + ": " + e.detail()
}

func (e *TypeMismatchError) detail() string {
	msg := fmt.Sprintf("cannot use %s as %s", e.Got, e.Expected)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TypeMismatchError) Unwrap() error {
	return e.Err
}

// InvalidEnumValueError reports a value that matches none of the enum names.
type InvalidEnumValueError struct {
	Path  string
	Value string
	Valid []string
}

func (e *InvalidEnumValueError) Error() string {
	return fmt.Sprintf("%s: %q is not one of: %s", e.Path, e.Value, strings.Join(e.Valid, ", "))
}

// ConstraintError reports a value outside its declared min/max/oneof bounds.
type ConstraintError struct {
	Path    string
	Code    string
	Message string
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ParseError reports a configuration file that could not be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse config file %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IOError reports a storage failure.
type IOError struct {
	Op   string // "read" or "write"
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s config file %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// fieldErrorFrom classifies a load-time error into a FieldError. An error
// raised inside a list element or map value reports its own, deeper path.
func fieldErrorFrom(path string, err error) FieldError {
	fe := FieldError{FieldPath: path, Code: ErrCodeTypeMismatch, Message: err.Error(), Err: err}

	var mismatch *TypeMismatchError
	var enumErr *InvalidEnumValueError
	var constraintErr *ConstraintError
	switch {
	case errors.As(err, &mismatch):
		fe.FieldPath = deeper(path, mismatch.Path)
		fe.Message = mismatch.detail()
	case errors.As(err, &enumErr):
		fe.FieldPath = deeper(path, enumErr.Path)
		fe.Code = ErrCodeInvalidEnum
		fe.Message = fmt.Sprintf("%q is not one of: %s", enumErr.Value, strings.Join(enumErr.Valid, ", "))
	case errors.As(err, &constraintErr):
		fe.FieldPath = deeper(path, constraintErr.Path)
		fe.Code = constraintErr.Code
		fe.Message = constraintErr.Message
	}
	return fe
}

func deeper(path, inner string) string {
	if strings.HasPrefix(inner, path) {
		return inner
	}
	return path
}
