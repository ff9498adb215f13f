// Package textutil provides text helpers for slugs and filesystem-safe names.
//
// Slugs are ASCII-only identifiers derived from free text (titles and
// category names) and are used both as record ids and as file stems.
package textutil
