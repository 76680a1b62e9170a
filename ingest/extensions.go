package ingest

import (
	"path/filepath"
	"strings"
)

// DefaultExtensions is used whenever a caller supplies no extensions.
var DefaultExtensions = []string{".nef", ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff"}

// extensionSet normalises exts to lower case with a leading dot. A nil or
// empty list both select DefaultExtensions.
func extensionSet(exts []string) map[string]bool {
	set := make(map[string]bool)
	for _, e := range exts {
		if n := normalizeExtension(e); n != "" {
			set[n] = true
		}
	}
	if len(set) == 0 {
		for _, e := range DefaultExtensions {
			set[e] = true
		}
	}
	return set
}

func normalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" || ext == "." {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

func matchesExtension(path string, set map[string]bool) bool {
	return set[strings.ToLower(filepath.Ext(path))]
}
