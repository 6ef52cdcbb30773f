package mooring

import "sync"

// Origin tells where a field's value came from.
type Origin string

const (
	OriginDocument Origin = "document" // Read from the file
	OriginDefault  Origin = "default"  // Key was absent and has been added
	OriginFallback Origin = "fallback" // Key held an invalid value; default used
)

// Provenance contains source information for configuration fields.
type Provenance struct {
	Fields []FieldProvenance
}

// FieldProvenance describes where a field's value came from.
type FieldProvenance struct {
	FieldPath string // Dot notation (e.g., "Database.Host")
	KeyPath   string // Document key path (e.g., "database.host")
	Origin    Origin
	Secret    bool // Whether field is secret
}

// Lookup returns the entry for a Go field path.
func (p *Provenance) Lookup(fieldPath string) (FieldProvenance, bool) {
	if p == nil {
		return FieldProvenance{}, false
	}
	for _, f := range p.Fields {
		if f.FieldPath == fieldPath {
			return f, true
		}
	}
	return FieldProvenance{}, false
}

var provenanceStore sync.Map

// GetProvenance returns provenance metadata for a configuration produced by
// a Handle. Instances created by Update or Clone carry none.
// Thread-safe.
func GetProvenance[T any](cfg *T) (*Provenance, bool) {
	if cfg == nil {
		return nil, false
	}

	value, ok := provenanceStore.Load(cfg)
	if !ok {
		return nil, false
	}

	prov, ok := value.(*Provenance)
	return prov, ok
}

func storeProvenance[T any](cfg *T, prov *Provenance) {
	if cfg != nil && prov != nil {
		provenanceStore.Store(cfg, prov)
	}
}

func deleteProvenance[T any](cfg *T) {
	if cfg != nil {
		provenanceStore.Delete(cfg)
	}
}
