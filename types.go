package mooring

import "time"

// Kind is the value category a field maps to. The set is closed; each Kind
// has exactly one codec.
type Kind uint8

const (
	KindScalar Kind = iota // bool, integers, floats, string
	KindEnum               // named constants, see Enum
	KindList               // slices and arrays
	KindMap                // maps with string keys
	KindObject             // nested structs
	KindCustom             // registered codecs and text marshalers
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindEnum:
		return "enum"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindObject:
		return "object"
	case KindCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// Enum is implemented by string or integer types with a fixed set of names.
// For string types the names are the valid values; for integer types the
// value i is written as EnumNames()[i]. Document values match names
// case-insensitively.
type Enum interface {
	EnumNames() []string
}

// Defaulter lets a configuration struct set its own defaults. SetDefaults is
// called once per type, on a fresh instance, when the type is described.
type Defaulter interface {
	SetDefaults()
}

// Storage reads and writes configuration files.
type Storage interface {
	// Read returns the file contents. A missing file must yield an error matching fs.ErrNotExist.
	Read(path string) ([]byte, error)

	// WriteAtomic replaces the file contents so no partial write is ever visible.
	WriteAtomic(path string, data []byte) error
}

// Validator performs custom validation after binding.
// Use for cross-field, semantic, or external validation.
type Validator[T any] interface {
	// Validate checks configuration. Return *ValidationError for field-level errors.
	Validate(cfg *T) error
}

// ValidatorFunc is a function adapter for Validator interface.
type ValidatorFunc[T any] func(cfg *T) error

func (f ValidatorFunc[T]) Validate(cfg *T) error {
	return f(cfg)
}

// Snapshot is one published configuration version held by a Handle.
type Snapshot[T any] struct {
	Config   *T
	Version  int64 // Increments on every reload and save (starts at 1)
	LoadedAt time.Time
	Source   string // What produced it: "open", "reload", "save", "update"
}
