package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{" Hund ", "", "Katze", "hund", "Maus", "  "})
	assert.Equal(t, []string{"Hund", "Katze", "Maus"}, got)
	assert.Empty(t, NormalizeTags(nil))
}

func TestSplitTags(t *testing.T) {
	assert.Equal(t, []string{"Hund", "Ball", "Wiese"}, SplitTags("Hund, Ball,,Wiese, hund"))
}

func TestMergedTags(t *testing.T) {
	loc := Localized{
		"de": {Title: "Hund", Tags: []string{"Hund", "Ball"}},
		"en": {Title: "Dog", Tags: []string{"Dog", "Ball"}},
	}
	assert.Equal(t, []string{"Ball", "Dog", "Hund"}, loc.MergedTags())
	assert.Equal(t, map[string]string{"de": "Hund", "en": "Dog"}, loc.Titles())
}

func TestCloneDoesNotAlias(t *testing.T) {
	meta := Metadata{Title: "Hund", Tags: []string{"Hund"}}
	clone := meta.Clone()
	clone.Tags[0] = "Katze"
	assert.Equal(t, "Hund", meta.Tags[0])
}

func TestAgeGroup(t *testing.T) {
	tests := map[string]string{
		"Kleinkinder":         AgeToddler,
		"Malen 0-5":           AgeToddler,
		"Schulkinder":         AgeSchool,
		"Erwachsene":          AgeAdult,
		"Jugendliche Mandala": AgeAdult,
		"13-99 Kunst":         AgeAdult,
		"Tiere":               AgeSchool,
	}
	for name, want := range tests {
		assert.Equal(t, want, AgeGroup(name), name)
	}
}

func TestCategoryIDs(t *testing.T) {
	assert.Equal(t, "kleinkinder-0-5", MainCategoryID("Kleinkinder 0-5"))
	assert.Equal(t, "tiere_bauernhof", SubcategoryID("Tiere", "Bauernhof"))
	assert.Equal(t, "kategorie_allgemein", SubcategoryID("", ""))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Wilde Tiere", DisplayName("wilde_tiere", "de"))
	assert.Equal(t, "Bauernhof", DisplayName("  bauernhof ", "not a tag"))
}
