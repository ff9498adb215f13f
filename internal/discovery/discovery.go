// Package discovery finds source images under the input directory and
// derives their category from the folder layout.
//
// Two layouts are understood:
//
//	{main}/{sub}/image.png     nested folders
//	{Main}_{Sub}/image.png     one flat folder; without "_" the
//	                           subcategory falls back to the default
//
// Files directly in the input root and anything under a dot-directory are
// skipped.
package discovery

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"pagesmith/internal/catalog"
)

// Skipped records a matched file that could not be assigned a category.
type Skipped struct {
	Path   string
	Reason string
}

// Result is the outcome of one discovery pass.
type Result struct {
	Images  []catalog.SourceImage
	Skipped []Skipped
}

// Discover matches patterns (doublestar syntax, relative to root) and
// returns the images in lexical path order.
func Discover(root string, patterns []string, defaultSub string) (Result, error) {
	info, err := os.Stat(root)
	if err != nil {
		return Result{}, fmt.Errorf("input directory: %w", err)
	}
	if !info.IsDir() {
		return Result{}, fmt.Errorf("input directory %s is not a directory", root)
	}

	fsys := os.DirFS(root)
	seen := make(map[string]struct{})
	var matches []string
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return Result{}, fmt.Errorf("invalid pattern %q", pattern)
		}
		found, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly(), doublestar.WithNoFollow())
		if err != nil {
			return Result{}, fmt.Errorf("glob %q: %w", pattern, err)
		}
		for _, rel := range found {
			if _, ok := seen[rel]; ok {
				continue
			}
			seen[rel] = struct{}{}
			matches = append(matches, rel)
		}
	}
	slices.Sort(matches)

	var result Result
	for _, rel := range matches {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		if hidden(rel) {
			continue
		}
		main, sub, reason := Categorize(rel, defaultSub)
		if reason != "" {
			result.Skipped = append(result.Skipped, Skipped{Path: abs, Reason: reason})
			continue
		}
		result.Images = append(result.Images, catalog.SourceImage{Path: abs, MainCategory: main, SubCategory: sub})
	}
	return result, nil
}

// Categorize derives main and subcategory from a slash-separated path
// relative to the input root. reason is non-empty when the file cannot be
// categorized.
func Categorize(rel, defaultSub string) (main, sub, reason string) {
	dir := path.Dir(rel)
	if dir == "." || dir == "" {
		return "", "", "file is not inside a category folder"
	}
	parts := strings.Split(dir, "/")
	if len(parts) >= 2 {
		main, sub = strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	} else {
		// Main_Sub; segments after the second underscore are ignored
		fields := strings.Split(parts[0], "_")
		main = strings.TrimSpace(fields[0])
		if len(fields) > 1 {
			sub = strings.TrimSpace(fields[1])
		}
	}
	if sub == "" {
		sub = defaultSub
	}
	if main == "" {
		return "", "", fmt.Sprintf("folder %q has no main category", dir)
	}
	return main, sub, ""
}

func hidden(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
