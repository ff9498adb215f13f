package ledger_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagesmith/internal/ledger"
	"pagesmith/internal/store"
)

func newLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	db, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return ledger.New(db)
}

func TestMarkAndLookup(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)

	done, err := l.IsProcessed(ctx, "d1")
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, l.MarkProcessed(ctx, "d1", "/in/tiere/hund.png", "hund-a1b2c3"))
	done, err = l.IsProcessed(ctx, "d1")
	require.NoError(t, err)
	assert.True(t, done)

	require.NoError(t, l.MarkProcessed(ctx, "d1", "/in/other.png", "other"))
	rec, ok, err := l.Get(ctx, "d1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "/in/tiere/hund.png", rec.SourcePath, "first record wins")
	assert.Equal(t, "hund-a1b2c3", rec.Slug)
	assert.False(t, rec.ProcessedAt.IsZero())

	n, err := l.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestForgetAndList(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	require.NoError(t, l.MarkProcessed(ctx, "d1", "/a.png", "a"))
	require.NoError(t, l.MarkProcessed(ctx, "d2", "/b.png", "b"))

	records, err := l.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	removed, err := l.Forget(ctx, "d1")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = l.Forget(ctx, "d1")
	require.NoError(t, err)
	assert.False(t, removed)

	done, err := l.IsProcessed(ctx, "d1")
	require.NoError(t, err)
	assert.False(t, done)
}

func TestListOrdersWithinOneSecond(t *testing.T) {
	ctx := context.Background()
	db, err := store.Open(ctx, filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	base := time.Date(2026, 3, 1, 12, 0, 5, 0, time.UTC)
	for i, digest := range []string{"d-later", "d-whole"} {
		at := base
		if i == 0 {
			at = base.Add(500 * time.Millisecond)
		}
		_, err := db.Exec(ctx,
			"INSERT INTO processed_files (digest, source_path, slug, processed_at) VALUES (?, ?, ?, ?)",
			digest, "/"+digest+".png", digest, store.Timestamp(at))
		require.NoError(t, err)
	}

	records, err := ledger.New(db).List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "d-later", records[0].Digest, "newest first")
	assert.Equal(t, "d-whole", records[1].Digest)
}
