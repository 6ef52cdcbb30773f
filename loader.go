package mooring

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/Azhovan/mooring/document"
	"github.com/Azhovan/mooring/filestore"
)

// Loader configures how a Handle reads, binds and writes one configuration file.
// A Loader may be reused to open several files; it is not safe for
// concurrent configuration changes.
type Loader[T any] struct {
	storage    Storage
	format     document.Format
	registry   *Registry
	logger     *zap.Logger
	validators []Validator[T]
	defaultDoc []byte
	strict     bool
	saveOnLoad bool
}

// NewLoader creates a Loader backed by the local disk, lenient binding and
// the default registry. The format is chosen from the file extension.
func NewLoader[T any]() *Loader[T] {
	return &Loader[T]{
		storage:    filestore.NewDisk(filestore.Options{}),
		registry:   defaultRegistry,
		logger:     zap.NewNop(),
		validators: make([]Validator[T], 0),
	}
}

// WithStorage replaces the storage backend.
func (l *Loader[T]) WithStorage(s Storage) *Loader[T] {
	l.storage = s
	return l
}

// WithFormat forces a document format instead of detecting it from the path.
func (l *Loader[T]) WithFormat(f document.Format) *Loader[T] {
	l.format = f
	return l
}

// WithRegistry uses r to describe T, for custom codecs.
func (l *Loader[T]) WithRegistry(r *Registry) *Loader[T] {
	l.registry = r
	return l
}

// WithLogger sets the logger. Default: zap.NewNop().
func (l *Loader[T]) WithLogger(logger *zap.Logger) *Loader[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	l.logger = logger
	return l
}

// WithValidator adds a custom validator, run after every load and before
// every Update is saved.
func (l *Loader[T]) WithValidator(v Validator[T]) *Loader[T] {
	l.validators = append(l.validators, v)
	return l
}

// WithDefaultDocument supplies the bundled document written to the path when
// the file does not exist yet. Its comments and layout are kept.
func (l *Loader[T]) WithDefaultDocument(data []byte) *Loader[T] {
	l.defaultDoc = append([]byte(nil), data...)
	return l
}

// Strict makes invalid values fail the load instead of falling back to
// their defaults. Default: false.
func (l *Loader[T]) Strict(strict bool) *Loader[T] {
	l.strict = strict
	return l
}

// SaveOnLoad writes the file back whenever a load added missing keys or the
// file did not exist. Default: false.
func (l *Loader[T]) SaveOnLoad(save bool) *Loader[T] {
	l.saveOnLoad = save
	return l
}

// Open describes T, loads the file at path and returns a Handle holding the
// result.
func (l *Loader[T]) Open(path string) (*Handle[T], error) {
	td, err := l.registry.Describe(reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return nil, err
	}

	format := l.format
	if format == nil {
		format, err = document.FormatFor(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
	}

	h := &Handle[T]{
		path:       path,
		td:         td,
		binder:     NewBinder(l.strict),
		format:     format,
		storage:    l.storage,
		logger:     l.logger.With(zap.String("path", path), zap.String("format", format.Name())),
		validators: append([]Validator[T](nil), l.validators...),
		defaultDoc: l.defaultDoc,
		saveOnLoad: l.saveOnLoad,
	}
	if err := h.load("open"); err != nil {
		return nil, err
	}
	return h, nil
}

// Open loads path with the default Loader settings.
func Open[T any](path string) (*Handle[T], error) {
	return NewLoader[T]().Open(path)
}

// Decode binds root into a new T using the default registry. Absent keys are
// added to root.
func Decode[T any](root *document.Node, strict bool) (*T, *Report, error) {
	td, err := Describe[T]()
	if err != nil {
		return nil, nil, err
	}
	cfg, report, err := NewBinder(strict).Load(root, td)
	if err != nil {
		return nil, nil, err
	}
	return cfg.(*T), report, nil
}

// Encode writes cfg into existing, or into a fresh document when existing
// is nil, using the default registry.
func Encode[T any](cfg *T, existing *document.Node) (*document.Node, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	td, err := Describe[T]()
	if err != nil {
		return nil, err
	}
	return NewBinder(false).Dump(cfg, td, existing)
}
