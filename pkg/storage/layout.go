package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// imageExtensions is the allowlist used when counting stored images.
// GIFs and other formats are normalized to JPEG at fetch time, so they
// never count toward an attraction's quota.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

var unsafeChars = regexp.MustCompile(`[\\/*?:"<>|]`)
var whitespace = regexp.MustCompile(`\s+`)

// SanitizeName converts an attraction display name into a safe
// directory/file-name component
func SanitizeName(name string) string {
	sanitized := unsafeChars.ReplaceAllString(name, "_")
	sanitized = whitespace.ReplaceAllString(strings.TrimSpace(sanitized), "_")
	runes := []rune(sanitized)
	if len(runes) > 100 {
		sanitized = string(runes[:100])
	}
	return sanitized
}

// AttractionDir returns the storage directory for one attraction
func AttractionDir(root, name string) string {
	return filepath.Join(root, SanitizeName(name))
}

// ImagePath returns the deterministic path of the seq-th stored image
// for an attraction. Sequence numbers are 1-based and zero-padded to
// three digits.
func ImagePath(root, name string, seq int) string {
	san := SanitizeName(name)
	return filepath.Join(root, san, fmt.Sprintf("%s_%03d.jpg", san, seq))
}

// CountImages counts the valid stored image files in a directory. A
// missing directory counts as zero; the value is always recomputed from
// disk, never cached.
func CountImages(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read directory: %w", err)
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			count++
		}
	}
	return count, nil
}

// ListImages returns the sorted image file paths in a directory
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	// os.ReadDir returns entries sorted by name already, but the
	// numbering contract depends on it, so keep it explicit.
	sort.Strings(files)
	return files, nil
}

// FindAttractionDir locates an attraction's directory under root,
// falling back to the space-to-underscore variant used by older runs
func FindAttractionDir(root, name string) (string, bool) {
	direct := filepath.Join(root, name)
	if info, err := os.Stat(direct); err == nil && info.IsDir() {
		return direct, true
	}
	underscored := filepath.Join(root, strings.ReplaceAll(name, " ", "_"))
	if info, err := os.Stat(underscored); err == nil && info.IsDir() {
		return underscored, true
	}
	return "", false
}
