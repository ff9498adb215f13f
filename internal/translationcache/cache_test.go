package translationcache_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagesmith/internal/store"
	"pagesmith/internal/translationcache"
)

func openCache(t *testing.T, path string) (*translationcache.Cache, *store.DB) {
	t.Helper()
	db, err := store.Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return translationcache.New(db, nil), db
}

func TestGetSetAndUpsert(t *testing.T) {
	ctx := context.Background()
	cache, _ := openCache(t, filepath.Join(t.TempDir(), "state.db"))

	_, ok, err := cache.Get(ctx, "Hund", "en")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "Hund", "EN", "Dog"))
	got, ok, err := cache.Get(ctx, "Hund", "en")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Dog", got)

	require.NoError(t, cache.Set(ctx, "Hund", "en", "Hound"))
	got, _, err = cache.Get(ctx, "Hund", "en")
	require.NoError(t, err)
	assert.Equal(t, "Hound", got)

	_, ok, err = cache.Get(ctx, "Hund", "fr")
	require.NoError(t, err)
	assert.False(t, ok, "keys are per language")
}

func TestEntriesSurviveReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	db, err := store.Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, translationcache.New(db, nil).Set(ctx, "Katze", "en", "Cat"))
	require.NoError(t, db.Close())

	cache, _ := openCache(t, path)
	got, ok, err := cache.Get(ctx, "Katze", "en")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Cat", got)
}

func TestConcurrentWritesAreSafe(t *testing.T) {
	ctx := context.Background()
	cache, _ := openCache(t, filepath.Join(t.TempDir(), "state.db"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				assert.NoError(t, cache.Set(ctx, fmt.Sprintf("wort-%d", j), "en", fmt.Sprintf("word-%d-%d", j, i)))
				_, _, err := cache.Get(ctx, fmt.Sprintf("wort-%d", j), "en")
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()

	stats, err := cache.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"en": 10}, stats)
}

func TestList(t *testing.T) {
	ctx := context.Background()
	cache, _ := openCache(t, filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, cache.Set(ctx, "Hund", "en", "Dog"))
	require.NoError(t, cache.Set(ctx, "Hund", "fr", "Chien"))

	all, err := cache.List(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	fr, err := cache.List(ctx, "FR", 10)
	require.NoError(t, err)
	require.Len(t, fr, 1)
	assert.Equal(t, "Chien", fr[0].Translated)
	assert.False(t, fr[0].UpdatedAt.IsZero())
}
