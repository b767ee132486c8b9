package scan

import (
	"path/filepath"
	"strings"
)

// SourceFile is an immutable record of one discovered file. The SHA-256
// digest is computed once over the bytes on disk at scan time; the manifest
// is a snapshot, not a live guarantee.
type SourceFile struct {
	Path     string // absolute
	RelPath  string // relative to scan root, forward slashes
	Language string
	Content  []byte
	SHA256   string // lowercase hex
	Size     int64
}

// Language tags used by the runner registry.
const (
	LangPython  = "python"
	LangJava    = "java"
	LangUnknown = "unknown"
)

// extLanguages maps file suffixes to language tags.
var extLanguages = map[string]string{
	".py":   LangPython,
	".java": LangJava,
}

// DetectLanguage derives the language tag from the file extension.
func DetectLanguage(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := extLanguages[ext]; ok {
		return lang
	}
	return LangUnknown
}
