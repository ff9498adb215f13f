// Package catalog holds the domain types shared by the pipeline stages:
// source images, base-language metadata, localized metadata, languages, and
// the category tree derived from the input folder layout.
package catalog
