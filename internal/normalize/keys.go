package normalize

import (
	"strconv"
	"strings"
	"unicode"
)

// ToDashed derives a document key from a struct field name.
// Word boundaries become dashes and the result is lowercase; runs of
// capitals are kept together as one word.
// Examples:
//   - "Host" → "host"
//   - "MaxPlayers" → "max-players"
//   - "HTTPPort" → "http-port"
//   - "Level2Cache" → "level2-cache"
func ToDashed(fieldName string) string {
	runes := []rune(fieldName)
	var b strings.Builder
	b.Grow(len(fieldName) + 4)

	for i, r := range runes {
		if r == '_' {
			if b.Len() > 0 {
				b.WriteByte('-')
			}
			continue
		}
		if unicode.IsUpper(r) && i > 0 && runes[i-1] != '_' {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('-')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// JoinPath combines a parent path with a key to create a nested path.
// If parent is empty, returns the key unchanged.
// Examples:
//   - JoinPath("database", "host") → "database.host"
//   - JoinPath("", "host") → "host"
func JoinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	if key == "" {
		return parent
	}
	return parent + "." + key
}

// IndexPath appends a list index to a path.
// Example: IndexPath("servers", 2) → "servers[2]"
func IndexPath(parent string, i int) string {
	return parent + "[" + strconv.Itoa(i) + "]"
}
