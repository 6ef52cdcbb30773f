// Package mooring binds typed configuration structs to a commented YAML (or
// TOML) file and keeps the two in sync.
//
// Quick Start:
//
//	type Config struct {
//	    Port    int           `conf:"default:8080,min:1,max:65535" comment:"Port to listen on"`
//	    Timeout time.Duration `conf:"default:30s"`
//	    Motd    string        `conf:"name:message-of-the-day,default:Welcome"`
//	}
//
//	h, err := mooring.NewLoader[Config]().
//	    WithLogger(logger).
//	    SaveOnLoad(true).
//	    Open("config.yml")
//
//	cfg := h.Get()
//	err = h.Update(func(c *Config) error { c.Port = 9090; return nil })
//
// Loading never leaves a field unset: absent keys take their defaults and are
// added to the document, with their comments, at the position given by field
// order. Saving rewrites only the keys whose values changed, so user comments,
// formatting and keys unknown to the struct survive.
//
// Tag directives: name:key, default:val, min:N, max:N, oneof:a,b,c, secret.
// A field tagged conf:"-" is ignored. The comment tag holds the documentation
// written above a key when it is first added.
//
// Field types may be scalars, types implementing Enum, slices and arrays,
// maps with string keys, nested structs, time.Duration, time.Time, types
// implementing encoding.TextMarshaler and encoding.TextUnmarshaler, and any
// type with a codec added by RegisterCodec. Anything else is rejected with
// *UnsupportedTypeError when the type is first described.
package mooring
