// Package ledger records which source contents have been fully processed.
//
// A record is written only after every artifact for a digest has been
// published, so its presence means "nothing left to do" and its absence means
// the item is safe to process again from scratch.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"pagesmith/internal/store"
)

// Record is one processed digest.
type Record struct {
	Digest      string
	SourcePath  string
	Slug        string
	ProcessedAt time.Time
}

// Ledger is backed by the state database.
type Ledger struct {
	db      *store.DB
	writeMu sync.Mutex
	now     func() time.Time
}

// New wraps db.
func New(db *store.DB) *Ledger {
	return &Ledger{db: db, now: time.Now}
}

// IsProcessed reports whether digest has a completion record.
func (l *Ledger) IsProcessed(ctx context.Context, digest string) (bool, error) {
	var one int
	err := l.db.QueryRow(ctx, "SELECT 1 FROM processed_files WHERE digest = ?", digest).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ledger lookup: %w", err)
	}
	return true, nil
}

// Get returns the record for digest.
func (l *Ledger) Get(ctx context.Context, digest string) (Record, bool, error) {
	var (
		rec       Record
		processed string
	)
	err := l.db.QueryRow(ctx,
		"SELECT digest, source_path, slug, processed_at FROM processed_files WHERE digest = ?", digest,
	).Scan(&rec.Digest, &rec.SourcePath, &rec.Slug, &processed)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("ledger get: %w", err)
	}
	rec.ProcessedAt, _ = store.ParseTimestamp(processed)
	return rec, true, nil
}

// MarkProcessed writes the completion record for digest. Marking an already
// processed digest keeps the original record.
func (l *Ledger) MarkProcessed(ctx context.Context, digest, sourcePath, slug string) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	_, err := l.db.Exec(ctx,
		`INSERT INTO processed_files (digest, source_path, slug, processed_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(digest) DO NOTHING`,
		digest, sourcePath, slug, store.Timestamp(l.now()),
	)
	if err != nil {
		return fmt.Errorf("ledger mark: %w", err)
	}
	return nil
}

// Forget removes the record for digest so the next run processes it again.
func (l *Ledger) Forget(ctx context.Context, digest string) (bool, error) {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	res, err := l.db.Exec(ctx, "DELETE FROM processed_files WHERE digest = ?", digest)
	if err != nil {
		return false, fmt.Errorf("ledger forget: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("ledger forget: %w", err)
	}
	return n > 0, nil
}

// List returns up to limit records, newest first.
func (l *Ledger) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.Query(ctx,
		"SELECT digest, source_path, slug, processed_at FROM processed_files ORDER BY processed_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("ledger list: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec       Record
			processed string
		)
		if err := rows.Scan(&rec.Digest, &rec.SourcePath, &rec.Slug, &processed); err != nil {
			return nil, fmt.Errorf("ledger list: %w", err)
		}
		rec.ProcessedAt, _ = store.ParseTimestamp(processed)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Count returns the number of processed digests.
func (l *Ledger) Count(ctx context.Context) (int, error) {
	var n int
	if err := l.db.QueryRow(ctx, "SELECT COUNT(1) FROM processed_files").Scan(&n); err != nil {
		return 0, fmt.Errorf("ledger count: %w", err)
	}
	return n, nil
}
