// Package publish hands finished artifacts and their metadata records to the
// storage collaborator.
//
// Layout under the publish root:
//
//	{main}/{sub}/{slug}.svg        composed page
//	{main}/{sub}/{slug}.png        thumbnail
//	records/{slug}.json|yaml       image record
//	categories/{id}.json|yaml      category record
//
// Every file lands atomically, so a crash never leaves a half-written
// artifact or record behind.
package publish
