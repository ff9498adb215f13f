package catalog

import (
	"slices"
	"strings"
)

// MaxTags caps the number of tags kept for one image.
const MaxTags = 5

// SourceImage is one discovered input file with the category it was filed under.
type SourceImage struct {
	Path         string
	MainCategory string
	SubCategory  string
}

// Metadata is the title and tag set describing one image in a single language.
type Metadata struct {
	Title string   `json:"title" yaml:"title"`
	Tags  []string `json:"tags" yaml:"tags"`
}

// Clone returns a copy that shares no backing array with m.
func (m Metadata) Clone() Metadata {
	return Metadata{Title: m.Title, Tags: slices.Clone(m.Tags)}
}

// NormalizeTags trims every tag, drops empty ones, and removes duplicates
// (case-insensitive, first occurrence wins). Order is preserved.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// SplitTags splits a comma-separated tag line and normalizes the result.
func SplitTags(line string) []string {
	return NormalizeTags(strings.Split(line, ","))
}

// Language pairs a display name (used in prompts) with its language code.
type Language struct {
	Name string
	Code string
}

// Localized maps language code to the metadata in that language.
type Localized map[string]Metadata

// Titles returns the per-language titles.
func (l Localized) Titles() map[string]string {
	titles := make(map[string]string, len(l))
	for code, meta := range l {
		titles[code] = meta.Title
	}
	return titles
}

// MergedTags returns the union of every language's tags, sorted so records
// are stable across runs.
func (l Localized) MergedTags() []string {
	seen := make(map[string]struct{})
	var merged []string
	for _, meta := range l {
		for _, tag := range meta.Tags {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			merged = append(merged, tag)
		}
	}
	slices.Sort(merged)
	return merged
}
