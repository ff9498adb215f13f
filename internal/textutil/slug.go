package textutil

import "strings"

// MaxSlugLength bounds the readable part of a slug.
const MaxSlugLength = 50

// Slug lowercases value and collapses every run of characters outside
// [a-z0-9] into a single dash. The result is cut to MaxSlugLength and trimmed
// of dashes. Returns fallback when nothing usable remains.
func Slug(value, fallback string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(value) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if !dash {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	slug := b.String()
	if len(slug) > MaxSlugLength {
		slug = slug[:MaxSlugLength]
	}
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return fallback
	}
	return slug
}
