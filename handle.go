package mooring

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Azhovan/mooring/document"
)

// Handle owns one configuration file and the instance bound from it.
//
// Get is lock-free and always returns a complete instance: loads and updates
// build a new instance and publish it atomically. Reload, Save and Update
// are serialized. The instance returned by Get must be treated as
// read-only; use Update to change values.
type Handle[T any] struct {
	path       string
	td         *TypeDescriptor
	binder     *Binder
	format     document.Format
	storage    Storage
	logger     *zap.Logger
	validators []Validator[T]
	defaultDoc []byte
	saveOnLoad bool

	mu    sync.Mutex // serializes Reload, Save and Update
	state atomic.Pointer[handleState[T]]
}

// handleState is one published version. Nothing in it is mutated after
// publication.
type handleState[T any] struct {
	snapshot Snapshot[T]
	doc      *document.Node
	report   *Report
}

// Get returns the current configuration instance.
func (h *Handle[T]) Get() *T {
	return h.state.Load().snapshot.Config
}

// Snapshot returns the current instance with its version metadata.
func (h *Handle[T]) Snapshot() Snapshot[T] {
	return h.state.Load().snapshot
}

// Report returns what the most recent load found.
func (h *Handle[T]) Report() Report {
	r := h.state.Load().report
	return Report{
		FieldErrors:  append([]FieldError(nil), r.FieldErrors...),
		Materialized: append([]string(nil), r.Materialized...),
		Fields:       append([]FieldProvenance(nil), r.Fields...),
	}
}

// Document returns a copy of the document tree backing the current instance.
func (h *Handle[T]) Document() *document.Node {
	return h.state.Load().doc.Clone()
}

// Path returns the file path.
func (h *Handle[T]) Path() string {
	return h.path
}

// Reload re-reads the file and publishes a fresh instance. On error the
// current instance stays in place.
func (h *Handle[T]) Reload() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.load("reload")
}

// Save writes the current instance to the file. Keys whose values did not
// change keep their formatting and comments, so saving twice in a row
// produces identical bytes.
func (h *Handle[T]) Save() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.save(h.state.Load().snapshot.Config, "save")
}

// Update applies fn to a copy of the current instance, validates and saves
// the result, and publishes it. If fn, validation or the write fails,
// nothing changes.
func (h *Handle[T]) Update(fn func(cfg *T) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	next := Clone(h.state.Load().snapshot.Config)
	if err := fn(next); err != nil {
		return err
	}
	if err := h.binder.Check(next, h.td); err != nil {
		return err
	}
	if err := h.validate(next); err != nil {
		return err
	}
	return h.save(next, "update")
}

// load reads, parses and binds the file. Callers hold h.mu, except Open.
func (h *Handle[T]) load(source string) error {
	start := time.Now()

	data, missing, err := h.read()
	if err != nil {
		return err
	}

	root, err := h.format.Parse(data)
	if err != nil {
		return &ParseError{Path: h.path, Err: err}
	}

	out, report, err := h.binder.Load(root, h.td)
	if err != nil {
		h.logger.Warn("config rejected", zap.Error(err))
		return err
	}
	cfg := out.(*T)

	for _, fe := range report.FieldErrors {
		h.logger.Warn("invalid config value, using default",
			zap.String("field", fe.FieldPath),
			zap.String("code", fe.Code),
			zap.String("reason", fe.Message),
		)
	}
	if len(report.Materialized) > 0 {
		h.logger.Info("added missing config keys", zap.Strings("keys", report.Materialized))
	}

	if err := h.validate(cfg); err != nil {
		return err
	}

	if h.saveOnLoad && (missing || report.Changed()) {
		if err := h.write(root); err != nil {
			return err
		}
	}

	h.publish(cfg, root, report, source)
	h.logger.Debug("config loaded",
		zap.String("source", source),
		zap.Int("fields", len(report.Fields)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// read returns the file contents. A missing file yields the default
// document, which is written out first, or an empty document.
func (h *Handle[T]) read() (data []byte, missing bool, err error) {
	data, err = h.storage.Read(h.path)
	switch {
	case err == nil:
		return data, false, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, false, &IOError{Op: "read", Path: h.path, Err: err}
	}

	if h.defaultDoc == nil {
		h.logger.Info("config file not found, using defaults")
		return nil, true, nil
	}
	if err := h.storage.WriteAtomic(h.path, h.defaultDoc); err != nil {
		return nil, true, &IOError{Op: "write", Path: h.path, Err: err}
	}
	h.logger.Info("created config file from default document")
	return h.defaultDoc, false, nil
}

func (h *Handle[T]) save(cfg *T, source string) error {
	cur := h.state.Load()

	doc, err := h.binder.Dump(cfg, h.td, cur.doc.Clone())
	if err != nil {
		return fmt.Errorf("dump config: %w", err)
	}
	if err := h.write(doc); err != nil {
		return err
	}

	h.publish(cfg, doc, cur.report, source)
	h.logger.Debug("config saved", zap.String("source", source), zap.Int64("version", h.Snapshot().Version))
	return nil
}

func (h *Handle[T]) write(doc *document.Node) error {
	data, err := h.format.Serialize(doc)
	if err != nil {
		return fmt.Errorf("serialize config %s: %w", h.path, err)
	}
	if err := h.storage.WriteAtomic(h.path, data); err != nil {
		return &IOError{Op: "write", Path: h.path, Err: err}
	}
	return nil
}

func (h *Handle[T]) validate(cfg *T) error {
	var fieldErrors []FieldError
	for i, v := range h.validators {
		if err := v.Validate(cfg); err != nil {
			var valErr *ValidationError
			if errors.As(err, &valErr) {
				fieldErrors = append(fieldErrors, valErr.FieldErrors...)
				continue
			}
			return fmt.Errorf("validator %d failed: %w", i, err)
		}
	}
	if len(fieldErrors) > 0 {
		return &ValidationError{FieldErrors: fieldErrors}
	}
	return nil
}

func (h *Handle[T]) publish(cfg *T, doc *document.Node, report *Report, source string) {
	var version int64 = 1
	prev := h.state.Load()
	if prev != nil {
		version = prev.snapshot.Version + 1
	}

	if prev != nil && prev.snapshot.Config != cfg {
		deleteProvenance(prev.snapshot.Config)
	}
	if source == "open" || source == "reload" {
		storeProvenance(cfg, &Provenance{Fields: report.Fields})
	}

	h.state.Store(&handleState[T]{
		snapshot: Snapshot[T]{
			Config:   cfg,
			Version:  version,
			LoadedAt: time.Now(),
			Source:   source,
		},
		doc:    doc,
		report: report,
	})
}
