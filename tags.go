package mooring

import (
	"strings"
)

// tagConfig holds parsed directives from a struct field's `conf` tag.
type tagConfig struct {
	name       string   // Document key (name:custom-key)
	defValue   string   // Default value (default:value)
	min        string   // Minimum constraint (min:N)
	max        string   // Maximum constraint (max:M)
	oneof      []string // Allowed values (oneof:a,b,c)
	secret     bool     // Field is secret (secret or secret:true)
	skip       bool     // Field is not bound (conf:"-")
	hasDefault bool     // Whether a default directive was present
}

// parseTag parses a `conf` struct tag into a structured tagConfig.
// Tag format: "directive1:value1,directive2:value2,..."
// Boolean directives can omit `:true` (e.g., "secret" == "secret:true")
func parseTag(tag string) tagConfig {
	cfg := tagConfig{}

	if tag == "" {
		return cfg
	}
	if strings.TrimSpace(tag) == "-" {
		cfg.skip = true
		return cfg
	}

	// Parse directives manually to handle oneof values that contain commas
	for _, directive := range splitDirectives(tag) {
		directive = strings.TrimSpace(directive)
		if directive == "" {
			continue
		}

		// Split by colon to separate directive name from value
		parts := strings.SplitN(directive, ":", 2)
		name := strings.TrimSpace(parts[0])
		var value string
		if len(parts) > 1 {
			value = parts[1] // Don't trim value - empty strings may be intentional
		}

		switch name {
		case "name":
			cfg.name = strings.TrimSpace(value)
		case "default":
			cfg.defValue = value
			cfg.hasDefault = true
		case "min":
			cfg.min = strings.TrimSpace(value)
		case "max":
			cfg.max = strings.TrimSpace(value)
		case "oneof":
			if value != "" {
				cfg.oneof = strings.Split(value, ",")
				for i := range cfg.oneof {
					cfg.oneof[i] = strings.TrimSpace(cfg.oneof[i])
				}
			}
		case "secret":
			// Invalid values count as true
			cfg.secret = value != "false"
		}
	}

	return cfg
}

// splitDirectives splits a tag string into individual directives,
// handling the special case where oneof values contain commas. A default
// value that opens with a bracket or a quote runs to its closing
// counterpart, so "default:[a, b]" stays one directive.
func splitDirectives(tag string) []string {
	var directives []string
	var current strings.Builder
	inOneof := false
	depth := 0
	var quote byte

	for i := 0; i < len(tag); i++ {
		ch := tag[i]

		if !inOneof && strings.TrimSpace(current.String()) == "" && strings.HasPrefix(tag[i:], "oneof:") {
			inOneof = true
			current.WriteString("oneof:")
			i += len("oneof:") - 1
			continue
		}

		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
			current.WriteByte(ch)
			continue
		case depth > 0:
			switch ch {
			case '[', '{':
				depth++
			case ']', '}':
				depth--
			case '"', '\'':
				quote = ch
			}
			current.WriteByte(ch)
			continue
		case strings.TrimSpace(current.String()) == "default:":
			switch ch {
			case '[', '{':
				depth = 1
			case '"', '\'':
				quote = ch
			}
		}

		if ch != ',' {
			current.WriteByte(ch)
			continue
		}

		// Inside oneof a comma only ends the directive when a known directive follows
		if inOneof && !startsWithDirective(tag[i+1:]) {
			current.WriteByte(ch)
			continue
		}
		inOneof = false
		directives = append(directives, current.String())
		current.Reset()
	}

	if current.Len() > 0 {
		directives = append(directives, current.String())
	}

	return directives
}

// startsWithDirective checks if a string starts with a known directive name.
func startsWithDirective(s string) bool {
	s = strings.TrimSpace(s)
	for _, d := range []string{"name:", "default:", "min:", "max:", "oneof:", "secret"} {
		if strings.HasPrefix(s, d) {
			return true
		}
	}
	return false
}
