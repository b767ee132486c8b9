// Package scan discovers source files under a root directory and binds each
// one to a SHA-256 content hash, producing the manifest the rest of the
// pipeline (and the rendered document's integrity section) is built on.
package scan

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Options controls which files a scan admits.
type Options struct {
	Extensions []string // allow-list of suffixes, e.g. ".py"
	Excludes   []string // glob patterns matched against the relative path
}

// ReadError marks a file that could not be read during a scan. It is fatal
// to the whole run: a manifest missing a file would misrepresent the
// submission.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Scan walks root, filters by extension and exclude patterns, and returns
// SourceFiles ordered lexicographically by relative path so repeated scans
// of an unchanged tree produce an identical manifest. Symlinks are not
// followed. Any unreadable file aborts the scan.
func Scan(root string, opts Options) ([]SourceFile, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", absRoot)
	}

	var paths []string
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return &ReadError{Path: path, Err: err}
		}
		if d.Type()&fs.ModeSymlink != 0 {
			slog.Debug("skipping symlink", "path", path)
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return fmt.Errorf("relativize %s: %w", path, err)
		}
		rel = filepath.ToSlash(rel)

		if !matchExtension(rel, opts.Extensions) {
			return nil
		}
		if matchExclude(rel, opts.Excludes) {
			slog.Debug("excluded", "path", rel)
			return nil
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)

	files := make([]SourceFile, 0, len(paths))
	for _, rel := range paths {
		abs := filepath.Join(absRoot, filepath.FromSlash(rel))
		data, err := os.ReadFile(abs)
		if err != nil {
			return nil, &ReadError{Path: abs, Err: err}
		}
		sum := sha256.Sum256(data)
		files = append(files, SourceFile{
			Path:     abs,
			RelPath:  rel,
			Language: DetectLanguage(rel),
			Content:  data,
			SHA256:   hex.EncodeToString(sum[:]),
			Size:     int64(len(data)),
		})
	}

	slog.Debug("scan complete", "root", absRoot, "files", len(files))
	return files, nil
}

// matchExtension reports whether rel ends with one of the allowed suffixes.
// An empty allow-list admits nothing; the caller always supplies one.
func matchExtension(rel string, extensions []string) bool {
	for _, ext := range extensions {
		if strings.HasSuffix(rel, ext) {
			return true
		}
	}
	return false
}

// matchExclude checks rel against each glob pattern. Patterns match either
// the full relative path or the base name, so "test_*.py" excludes files in
// subdirectories too.
func matchExclude(rel string, excludes []string) bool {
	base := filepath.Base(rel)
	for _, pattern := range excludes {
		if ok, _ := filepath.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}
