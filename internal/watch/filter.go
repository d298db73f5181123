package watch

import (
	"path/filepath"
	"strings"
)

var allowedExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".bmp":  {},
}

// IsAllowed reports whether path has a supported image extension.
// The comparison is case-insensitive.
func IsAllowed(path string) bool {
	_, ok := allowedExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}
