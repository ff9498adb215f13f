package textutil

import "testing"

func TestSlug(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "Hund", "hund"},
		{"spaces and punctuation", "Der kleine Hund!", "der-kleine-hund"},
		{"umlauts collapse", "Bär im Wald", "b-r-im-wald"},
		{"leading and trailing junk", "  --Katze--  ", "katze"},
		{"empty", "", "bild"},
		{"only symbols", "äöü!!", "bild"},
		{"digits kept", "3 Enten", "3-enten"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slug(tt.input, "bild"); got != tt.want {
				t.Errorf("Slug(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSlugTruncates(t *testing.T) {
	long := "ein sehr langer titel der weit mehr als fuenfzig zeichen enthaelt und weiter geht"
	got := Slug(long, "bild")
	if len(got) > MaxSlugLength {
		t.Fatalf("len(Slug) = %d, want <= %d", len(got), MaxSlugLength)
	}
	if got[len(got)-1] == '-' {
		t.Fatalf("Slug %q ends with a dash", got)
	}
}

func TestSanitizePathSegment(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Tiere", "Tiere"},
		{"Tiere/Hunde", "Tiere-Hunde"},
		{"..", ""},
		{"  Kleinkinder 0-5 ", "Kleinkinder 0-5"},
		{"Was?", "Was"},
	}
	for _, tt := range tests {
		if got := SanitizePathSegment(tt.input); got != tt.want {
			t.Errorf("SanitizePathSegment(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
