package catalog

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"pagesmith/internal/textutil"
)

// Age groups assigned to categories and images.
const (
	AgeToddler = "0-5"
	AgeSchool  = "6-12"
	AgeAdult   = "13-99"
)

// Category is one node of the two-level category tree. Main categories have
// an empty ParentID; subcategories point at their main category.
type Category struct {
	ID             string            `json:"id" yaml:"id"`
	Names          map[string]string `json:"names" yaml:"names"`
	IconURL        string            `json:"iconUrl" yaml:"iconUrl"`
	SubcategoryIDs []string          `json:"subcategoryIds" yaml:"subcategoryIds"`
	AgeGroup       string            `json:"ageGroup" yaml:"ageGroup"`
	ParentID       string            `json:"parentCategoryId" yaml:"parentCategoryId"`
	Order          int               `json:"order" yaml:"order"`
}

// AgeGroup derives the audience from a main category name. Names mentioning
// toddlers or 0-5 map to 0-5, school children or 6-12 to 6-12, teenagers,
// adults or 13-99 to 13-99. Anything else defaults to 6-12.
func AgeGroup(mainCategory string) string {
	lower := strings.ToLower(mainCategory)
	switch {
	case strings.Contains(lower, "kleinkinder") || strings.Contains(lower, AgeToddler):
		return AgeToddler
	case strings.Contains(lower, "schulkinder") || strings.Contains(lower, AgeSchool):
		return AgeSchool
	case strings.Contains(lower, "erwachsene") || strings.Contains(lower, "jugendliche") || strings.Contains(lower, AgeAdult):
		return AgeAdult
	default:
		return AgeSchool
	}
}

// MainCategoryID returns the record id of a main category.
func MainCategoryID(mainCategory string) string {
	return textutil.Slug(mainCategory, "kategorie")
}

// SubcategoryID returns the record id of a subcategory, prefixed by its
// parent id so equal subcategory names under different parents stay distinct.
func SubcategoryID(mainCategory, subCategory string) string {
	return MainCategoryID(mainCategory) + "_" + textutil.Slug(subCategory, "allgemein")
}

// DisplayName title-cases a folder-derived category name using the casing
// rules of the base language. Underscores and dashes become spaces.
func DisplayName(name, baseLang string) string {
	tag, err := language.Parse(baseLang)
	if err != nil {
		tag = language.Und
	}
	name = strings.NewReplacer("_", " ", "-", " ").Replace(strings.TrimSpace(name))
	name = strings.Join(strings.Fields(name), " ")
	return cases.Title(tag, cases.NoLower).String(name)
}
