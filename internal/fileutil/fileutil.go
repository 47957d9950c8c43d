// Package fileutil provides file and path utility functions.
package fileutil

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/natefinch/atomic"
)

// Sentinel errors for file utility operations.
var (
	ErrNoMatch      = errors.New("no matching file found")
	ErrEmptyPattern = errors.New("pattern cannot be empty")
)

// File permission constants.
const (
	DirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	FilePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// IsFilePath returns true if the string looks like a file path rather than a name.
// A string containing path separators (/, \) is treated as a path.
//
// Examples:
//   - "newsletter" -> false (name)
//   - "./newsletter.yaml" -> true (relative path)
//   - "/etc/newsletter.yaml" -> true (absolute)
func IsFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// IsURL returns true if the string looks like an http(s) URL.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// LatestMatch returns the file in dir matching pattern whose name sorts last.
// Newsletter files embed their date (newsletter-2026-01.md), so the lexical
// maximum is the most recent issue.
func LatestMatch(dir, pattern string) (string, error) {
	if pattern == "" {
		return "", ErrEmptyPattern
	}

	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", fmt.Errorf("matching %s: %w", pattern, err)
	}

	files := matches[:0]
	for _, m := range matches {
		if FileExists(m) {
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return "", fmt.Errorf("%w: %s in %s", ErrNoMatch, pattern, dir)
	}

	sort.Slice(files, func(i, j int) bool {
		return filepath.Base(files[i]) > filepath.Base(files[j])
	})
	return files[0], nil
}

// WriteFileAtomic replaces path with data in a single rename so readers never
// see a truncated file. Parent directories are created as needed.
func WriteFileAtomic(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, DirPermissions); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	// atomic.WriteFile keeps the temp file's 0600 mode on new files
	if err := os.Chmod(path, FilePermissions); err != nil {
		return fmt.Errorf("setting permissions on %s: %w", path, err)
	}
	return nil
}
