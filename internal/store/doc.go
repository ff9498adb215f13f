// Package store opens the SQLite state database shared by the translation
// cache and the processed-file ledger.
//
// The database runs in WAL mode so readers do not block the single writer,
// and writes retry briefly on SQLITE_BUSY. The schema is embedded and
// versioned; a version mismatch is reported instead of silently migrating.
package store
