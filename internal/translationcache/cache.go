// Package translationcache persists (source text, language) → translation
// pairs so repeated titles and tags never hit the translation service twice.
package translationcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"pagesmith/internal/logging"
	"pagesmith/internal/store"
)

// Cache is backed by the state database. Reads run concurrently; writes are
// serialized so concurrent workers upserting the same key cannot interleave.
type Cache struct {
	db      *store.DB
	writeMu sync.Mutex
	logger  *slog.Logger
	now     func() time.Time
}

// Entry is one cached translation.
type Entry struct {
	Source     string
	Lang       string
	Translated string
	UpdatedAt  time.Time
}

// New wraps db. A nil logger is replaced by a no-op logger.
func New(db *store.DB, logger *slog.Logger) *Cache {
	return &Cache{
		db:     db,
		logger: logging.NewComponentLogger(logger, "translation-cache"),
		now:    time.Now,
	}
}

// Get returns the cached translation for text in lang.
func (c *Cache) Get(ctx context.Context, text, lang string) (string, bool, error) {
	if c == nil || c.db == nil {
		return "", false, nil
	}
	var translated string
	err := c.db.QueryRow(ctx,
		"SELECT translated_text FROM translations WHERE source_text = ? AND lang = ?",
		text, normalizeLang(lang),
	).Scan(&translated)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("translation cache get: %w", err)
	}
	return translated, true, nil
}

// Set stores or replaces the translation for text in lang.
func (c *Cache) Set(ctx context.Context, text, lang, translated string) error {
	if c == nil || c.db == nil {
		return nil
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_, err := c.db.Exec(ctx,
		`INSERT INTO translations (source_text, lang, translated_text, updated_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(source_text, lang) DO UPDATE SET
            translated_text = excluded.translated_text,
            updated_at = excluded.updated_at`,
		text, normalizeLang(lang), translated, store.Timestamp(c.now()),
	)
	if err != nil {
		return fmt.Errorf("translation cache set: %w", err)
	}
	c.logger.Debug("translation cached",
		logging.String("lang", normalizeLang(lang)),
		logging.Int("source_len", len(text)),
	)
	return nil
}

// Stats returns the number of entries per language code.
func (c *Cache) Stats(ctx context.Context) (map[string]int, error) {
	rows, err := c.db.Query(ctx, "SELECT lang, COUNT(1) FROM translations GROUP BY lang ORDER BY lang")
	if err != nil {
		return nil, fmt.Errorf("translation cache stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var (
			lang  string
			count int
		)
		if err := rows.Scan(&lang, &count); err != nil {
			return nil, fmt.Errorf("translation cache stats: %w", err)
		}
		stats[lang] = count
	}
	return stats, rows.Err()
}

// List returns up to limit entries for lang (all languages when lang is
// empty), most recently updated first.
func (c *Cache) List(ctx context.Context, lang string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	query := "SELECT source_text, lang, translated_text, updated_at FROM translations"
	args := []any{}
	if lang = normalizeLang(lang); lang != "" {
		query += " WHERE lang = ?"
		args = append(args, lang)
	}
	query += " ORDER BY updated_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := c.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("translation cache list: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry   Entry
			updated string
		)
		if err := rows.Scan(&entry.Source, &entry.Lang, &entry.Translated, &updated); err != nil {
			return nil, fmt.Errorf("translation cache list: %w", err)
		}
		entry.UpdatedAt, _ = store.ParseTimestamp(updated)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func normalizeLang(lang string) string {
	return strings.ToLower(strings.TrimSpace(lang))
}
