package translation_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagesmith/internal/catalog"
	"pagesmith/internal/services"
	"pagesmith/internal/services/llm"
	"pagesmith/internal/store"
	"pagesmith/internal/translation"
	"pagesmith/internal/translationcache"
)

type scriptedCompleter struct {
	mu      sync.Mutex
	calls   int
	prompts []string
	reply   func(prompt string) (string, error)
}

func (s *scriptedCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	s.mu.Lock()
	s.calls++
	s.prompts = append(s.prompts, req.Prompt)
	s.mu.Unlock()
	return s.reply(req.Prompt)
}

func newCache(t *testing.T) *translationcache.Cache {
	t.Helper()
	db, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return translationcache.New(db, nil)
}

var (
	english = catalog.Language{Name: "English", Code: "en"}
	french  = catalog.Language{Name: "French", Code: "fr"}
	german  = catalog.Language{Name: "Deutsch", Code: "de"}
	hund    = catalog.Metadata{Title: "Hund mit Ball", Tags: []string{"Hund", "Ball"}}
)

func TestRepeatedTranslationCallsServiceOnce(t *testing.T) {
	client := &scriptedCompleter{reply: func(string) (string, error) {
		return "TITLE: Dog with ball\nTAGS: Dog, Ball", nil
	}}
	tr := translation.New(client, newCache(t), "de", nil)

	first, err := tr.Translate(context.Background(), hund, english)
	require.NoError(t, err)
	second, err := tr.Translate(context.Background(), hund, english)
	require.NoError(t, err)

	assert.Equal(t, 1, client.calls)
	assert.Equal(t, catalog.Metadata{Title: "Dog with ball", Tags: []string{"Dog", "Ball"}}, first)
	assert.Equal(t, first, second)
	assert.Contains(t, client.prompts[0], "Title: Hund mit Ball")
	assert.Contains(t, client.prompts[0], "Tags: Hund, Ball")
}

func TestBaseLanguageIsVerbatim(t *testing.T) {
	client := &scriptedCompleter{reply: func(string) (string, error) { return "", errors.New("unexpected call") }}
	tr := translation.New(client, newCache(t), "de", nil)

	got, err := tr.Translate(context.Background(), hund, german)
	require.NoError(t, err)
	assert.Equal(t, hund, got)
	assert.Equal(t, 0, client.calls)
}

func TestParseFailureFallsBackPerField(t *testing.T) {
	cache := newCache(t)
	client := &scriptedCompleter{reply: func(string) (string, error) {
		return "Here you go!\nTAGS: Chien", nil
	}}
	tr := translation.New(client, cache, "de", nil)

	got, err := tr.Translate(context.Background(), hund, french)
	require.NoError(t, err)
	assert.Equal(t, "Hund mit Ball", got.Title, "missing title falls back to the original")
	assert.Equal(t, []string{"Chien", "Ball"}, got.Tags, "missing tag position falls back")

	ctx := context.Background()
	_, ok, err := cache.Get(ctx, "Hund mit Ball", "fr")
	require.NoError(t, err)
	assert.False(t, ok, "fallbacks are not cached")
	v, ok, err := cache.Get(ctx, "Hund", "fr")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Chien", v)
}

func TestPartialCacheHitUsesOneCall(t *testing.T) {
	ctx := context.Background()
	cache := newCache(t)
	require.NoError(t, cache.Set(ctx, "Hund", "en", "Dog"))
	client := &scriptedCompleter{reply: func(string) (string, error) {
		return "TITEL: Dog with ball\nTAGS: Dog, Ball", nil
	}}
	tr := translation.New(client, cache, "de", nil)

	got, err := tr.Translate(ctx, hund, english)
	require.NoError(t, err)
	assert.Equal(t, 1, client.calls)
	assert.Equal(t, "Dog with ball", got.Title)

	v, ok, err := cache.Get(ctx, "Ball", "en")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Ball", v)
}

func TestServiceFailureIsReturned(t *testing.T) {
	cause := services.Wrap(services.ErrPermanent, "llm", "complete", "exhausted", nil)
	client := &scriptedCompleter{reply: func(string) (string, error) { return "", cause }}
	tr := translation.New(client, newCache(t), "de", nil)

	_, err := tr.Translate(context.Background(), hund, english)
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrPermanent)
	assert.Contains(t, err.Error(), "translate to en")
}

func TestLocalizeAll(t *testing.T) {
	client := &scriptedCompleter{reply: func(prompt string) (string, error) {
		if strings.Contains(prompt, "French") {
			return "TITLE: Chien avec balle\nTAGS: Chien, Balle", nil
		}
		return "TITLE: Dog with ball\nTAGS: Dog, Ball", nil
	}}
	tr := translation.New(client, newCache(t), "de", nil)

	loc, err := tr.LocalizeAll(context.Background(), hund, []catalog.Language{german, english, french})
	require.NoError(t, err)
	assert.Len(t, loc, 3)
	assert.Equal(t, hund, loc["de"])
	assert.Equal(t, "Chien avec balle", loc["fr"].Title)
	assert.Equal(t, 2, client.calls)
}

func TestLocalizeAllFailsOnLanguageError(t *testing.T) {
	client := &scriptedCompleter{reply: func(prompt string) (string, error) {
		if strings.Contains(prompt, "French") {
			return "", services.Wrap(services.ErrRejected, "llm", "complete", "nope", nil)
		}
		return "TITLE: Dog\nTAGS: Dog, Ball", nil
	}}
	tr := translation.New(client, newCache(t), "de", nil)
	_, err := tr.LocalizeAll(context.Background(), hund, []catalog.Language{english, french})
	assert.ErrorIs(t, err, services.ErrRejected)
}

func TestLocalizeNameFallsBack(t *testing.T) {
	client := &scriptedCompleter{reply: func(prompt string) (string, error) {
		if strings.Contains(prompt, "French") {
			return "", errors.New("boom")
		}
		return "TITLE: Farm\nTAGS:", nil
	}}
	tr := translation.New(client, newCache(t), "de", nil)

	names := tr.LocalizeName(context.Background(), "Bauernhof", []catalog.Language{german, english, french})
	assert.Equal(t, map[string]string{"de": "Bauernhof", "en": "Farm", "fr": "Bauernhof"}, names)
}
