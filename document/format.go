package document

import (
	"fmt"
	"path/filepath"
	"strings"
)

// FormatFor picks a Format from the file extension of path.
func FormatFor(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return YAML, nil
	case ".toml":
		return TOML, nil
	default:
		return nil, fmt.Errorf("unsupported file format: %q (supported: .yaml, .yml, .toml)", ext)
	}
}
