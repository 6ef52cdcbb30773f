package mooring

import (
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/Azhovan/mooring/document"
	"github.com/Azhovan/mooring/internal/normalize"
)

const redacted = "***redacted***"

// DumpOption configures dump behavior using the functional options pattern.
type DumpOption func(*dumpConfig)

// dumpConfig holds options for DumpEffective.
type dumpConfig struct {
	withSources bool   // Include source attribution for each field
	asJSON      bool   // Output as JSON instead of text format
	indent      string // Indentation for JSON output (default: "  ")
	registry    *Registry
}

// WithSources includes source attribution for each field in the output.
func WithSources() DumpOption {
	return func(cfg *dumpConfig) {
		cfg.withSources = true
	}
}

// AsJSON outputs configuration as JSON instead of text format.
func AsJSON() DumpOption {
	return func(cfg *dumpConfig) {
		cfg.asJSON = true
	}
}

// WithIndent sets the indentation for JSON output.
// Default is two spaces ("  ").
func WithIndent(indent string) DumpOption {
	return func(cfg *dumpConfig) {
		cfg.indent = indent
	}
}

// UsingRegistry describes the configuration with r instead of the default registry.
func UsingRegistry(r *Registry) DumpOption {
	return func(cfg *dumpConfig) {
		cfg.registry = r
	}
}

// DumpEffective writes a human-readable representation of the configuration.
// Secret fields are automatically redacted as "***redacted***".
// Returns an error if writing to the writer fails.
func DumpEffective[T any](w io.Writer, cfg *T, opts ...DumpOption) error {
	if cfg == nil {
		return ErrNilConfig
	}

	config := dumpConfig{
		indent:   "  ",
		registry: defaultRegistry,
	}
	for _, opt := range opts {
		opt(&config)
	}

	td, err := config.registry.Describe(reflect.TypeOf(cfg))
	if err != nil {
		return err
	}

	prov, _ := GetProvenance(cfg)
	v := reflect.ValueOf(cfg).Elem()

	if config.asJSON {
		return dumpAsJSON(w, td, v, config)
	}
	return dumpAsText(w, td, v, prov, config)
}

// dumpAsText outputs configuration in text format (key: value).
func dumpAsText(w io.Writer, td *TypeDescriptor, v reflect.Value, prov *Provenance, config dumpConfig) error {
	var fields []fieldData
	if err := collectFields(td, v, "", "", &fields); err != nil {
		return err
	}

	for _, field := range fields {
		line := fmt.Sprintf("%s: %s", field.keyPath, field.displayValue)
		if config.withSources {
			if fp, ok := prov.Lookup(field.fieldPath); ok {
				line += fmt.Sprintf(" (source: %s)", fp.Origin)
			}
		}
		line += "\n"

		if _, err := io.WriteString(w, line); err != nil {
			return fmt.Errorf("write error: %w", err)
		}
	}

	return nil
}

// dumpAsJSON outputs configuration as JSON with secret redaction.
func dumpAsJSON(w io.Writer, td *TypeDescriptor, v reflect.Value, config dumpConfig) error {
	result, err := buildJSONStructure(td, v)
	if err != nil {
		return err
	}

	var data []byte
	if config.indent != "" {
		data, err = json.MarshalIndent(result, "", config.indent)
	} else {
		data, err = json.Marshal(result)
	}
	if err != nil {
		return fmt.Errorf("json marshal error: %w", err)
	}

	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write error: %w", err)
	}
	return nil
}

// fieldData holds information about a single field for dumping.
type fieldData struct {
	fieldPath    string // Go field path, for provenance lookup
	keyPath      string // Dot-separated key path (e.g., "database.host")
	displayValue string // Value to display (redacted if secret)
}

func collectFields(td *TypeDescriptor, v reflect.Value, goPrefix, keyPrefix string, out *[]fieldData) error {
	for _, fd := range td.Fields {
		fieldPath := fd.GoName
		if goPrefix != "" {
			fieldPath = goPrefix + "." + fd.GoName
		}
		keyPath := normalize.JoinPath(keyPrefix, fd.Name)
		fv := v.Field(fd.index)

		if fd.vt.kind == KindObject {
			if err := collectFields(fd.vt.object, fv, fieldPath, keyPath, out); err != nil {
				return err
			}
			continue
		}

		display := redacted
		if !fd.Secret {
			n, err := encodeValue(fv, fd.vt)
			if err != nil {
				return fmt.Errorf("%s: %w", keyPath, err)
			}
			display = inlineNode(n)
		}
		*out = append(*out, fieldData{fieldPath: fieldPath, keyPath: keyPath, displayValue: display})
	}
	return nil
}

// inlineNode renders a node on one line: strings quoted, lists in brackets,
// maps in braces.
func inlineNode(n *document.Node) string {
	switch n.Kind {
	case document.NullNode:
		return "<nil>"
	case document.ListNode:
		parts := make([]string, len(n.Items))
		for i, item := range n.Items {
			parts[i] = inlineNode(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case document.MapNode:
		parts := make([]string, len(n.Entries))
		for i, e := range n.Entries {
			parts[i] = e.Key + ": " + inlineNode(e.Value)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	if n.Tag == document.TagString {
		return strconv.Quote(n.Value)
	}
	return n.Value
}

// buildJSONStructure builds a nested map keyed by document keys.
func buildJSONStructure(td *TypeDescriptor, v reflect.Value) (map[string]any, error) {
	result := make(map[string]any, len(td.Fields))
	for _, fd := range td.Fields {
		fv := v.Field(fd.index)

		switch {
		case fd.Secret:
			result[fd.Name] = redacted
		case fd.vt.kind == KindObject:
			nested, err := buildJSONStructure(fd.vt.object, fv)
			if err != nil {
				return nil, err
			}
			result[fd.Name] = nested
		default:
			n, err := encodeValue(fv, fd.vt)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", fd.Name, err)
			}
			result[fd.Name] = jsonValue(n)
		}
	}
	return result, nil
}

func jsonValue(n *document.Node) any {
	switch n.Kind {
	case document.NullNode:
		return nil
	case document.ListNode:
		items := make([]any, len(n.Items))
		for i, item := range n.Items {
			items[i] = jsonValue(item)
		}
		return items
	case document.MapNode:
		m := make(map[string]any, len(n.Entries))
		for _, e := range n.Entries {
			m[e.Key] = jsonValue(e.Value)
		}
		return m
	}

	switch n.Tag {
	case document.TagInt:
		if i, err := strconv.ParseInt(n.Value, 10, 64); err == nil {
			return i
		}
		if u, err := strconv.ParseUint(n.Value, 10, 64); err == nil {
			return u
		}
	case document.TagFloat:
		// JSON has no spelling for infinities or NaN; those stay strings.
		if f, err := strconv.ParseFloat(n.Value, 64); err == nil {
			return f
		}
	case document.TagBool:
		return n.Value == "true"
	}
	return n.Value
}
