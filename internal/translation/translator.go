// Package translation localizes image metadata and category names through
// the translation service, consulting the persistent cache first.
//
// A title and its tags are translated in one batched request per language.
// Any field the answer does not carry falls back to the cached value or the
// original text; only pairs actually returned by the service are cached.
package translation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"pagesmith/internal/catalog"
	"pagesmith/internal/logging"
	"pagesmith/internal/services/llm"
)

const systemPrompt = `You translate short labels for a coloring page app.
Answer with exactly two lines and nothing else:
TITLE: <translated title>
TAGS: <translated tags, comma-separated, same order and count as the input>`

// Cache is the persistent translation store.
type Cache interface {
	Get(ctx context.Context, text, lang string) (string, bool, error)
	Set(ctx context.Context, text, lang, translated string) error
}

// Translator localizes metadata into target languages.
type Translator struct {
	client   llm.Completer
	cache    Cache
	baseCode string
	logger   *slog.Logger
}

// New returns a Translator. client should already be rate limited and
// retried (see llm.Guarded). baseCode is the language metadata is authored in.
func New(client llm.Completer, cache Cache, baseCode string, logger *slog.Logger) *Translator {
	return &Translator{
		client:   client,
		cache:    cache,
		baseCode: strings.ToLower(strings.TrimSpace(baseCode)),
		logger:   logging.NewComponentLogger(logger, "translation"),
	}
}

// Translate returns meta in lang. The base language is returned verbatim.
func (t *Translator) Translate(ctx context.Context, meta catalog.Metadata, lang catalog.Language) (catalog.Metadata, error) {
	if t.isBase(lang) {
		return meta.Clone(), nil
	}
	logger := logging.WithContext(ctx, t.logger).With(logging.String("lang", lang.Code))

	title, titleHit := t.lookup(ctx, logger, meta.Title, lang.Code)
	tags := make([]string, len(meta.Tags))
	tagHits := make([]bool, len(meta.Tags))
	allHit := titleHit
	for i, tag := range meta.Tags {
		tags[i], tagHits[i] = t.lookup(ctx, logger, tag, lang.Code)
		allHit = allHit && tagHits[i]
	}
	if allHit {
		logger.Debug("translation served from cache")
		return catalog.Metadata{Title: title, Tags: catalog.NormalizeTags(tags)}, nil
	}

	content, err := t.client.Complete(ctx, llm.Request{
		System: systemPrompt,
		Prompt: buildPrompt(meta, lang),
	})
	if err != nil {
		return catalog.Metadata{}, fmt.Errorf("translate to %s: %w", lang.Code, err)
	}
	answer := parseAnswer(content)

	if answer.title != "" {
		title = answer.title
		t.store(ctx, logger, meta.Title, lang.Code, title)
	} else if !titleHit {
		title = meta.Title
	}
	for i, original := range meta.Tags {
		if i < len(answer.tags) && answer.tags[i] != "" {
			tags[i] = answer.tags[i]
			t.store(ctx, logger, original, lang.Code, tags[i])
		} else if !tagHits[i] {
			tags[i] = original
		}
	}
	if answer.title == "" || (len(meta.Tags) > 0 && len(answer.tags) != len(meta.Tags)) {
		logging.WarnWithContext(logger, "translation answer incomplete", "translation_fallback",
			logging.Bool("title_missing", answer.title == ""),
			logging.Int("tags_expected", len(meta.Tags)),
			logging.Int("tags_returned", len(answer.tags)),
			logging.String(logging.FieldImpact, "untranslated text used for missing fields"),
			logging.String(logging.FieldErrorHint, "entries can be corrected in the translation cache"),
		)
	}
	return catalog.Metadata{Title: title, Tags: catalog.NormalizeTags(tags)}, nil
}

// LocalizeAll translates meta into every language. A failed language fails
// the whole call.
func (t *Translator) LocalizeAll(ctx context.Context, meta catalog.Metadata, languages []catalog.Language) (catalog.Localized, error) {
	localized := make(catalog.Localized, len(languages))
	for _, lang := range languages {
		translated, err := t.Translate(ctx, meta, lang)
		if err != nil {
			return nil, err
		}
		localized[lang.Code] = translated
	}
	if _, ok := localized[t.baseCode]; !ok && t.baseCode != "" {
		localized[t.baseCode] = meta.Clone()
	}
	return localized, nil
}

// LocalizeName translates a category display name into every language. A
// language that fails keeps the original name; this never fails.
func (t *Translator) LocalizeName(ctx context.Context, name string, languages []catalog.Language) map[string]string {
	names := make(map[string]string, len(languages)+1)
	if t.baseCode != "" {
		names[t.baseCode] = name
	}
	for _, lang := range languages {
		translated, err := t.Translate(ctx, catalog.Metadata{Title: name}, lang)
		if err != nil || translated.Title == "" {
			logging.WarnWithContext(logging.WithContext(ctx, t.logger), "category name translation failed", "category_translation_fallback",
				logging.String("lang", lang.Code),
				logging.String("name", name),
				logging.Error(err),
				logging.String(logging.FieldImpact, "original category name used for this language"),
			)
			names[lang.Code] = name
			continue
		}
		names[lang.Code] = translated.Title
	}
	return names
}

func (t *Translator) isBase(lang catalog.Language) bool {
	return strings.EqualFold(strings.TrimSpace(lang.Code), t.baseCode)
}

func (t *Translator) lookup(ctx context.Context, logger *slog.Logger, text, lang string) (string, bool) {
	if t.cache == nil {
		return text, false
	}
	cached, ok, err := t.cache.Get(ctx, text, lang)
	if err != nil {
		logger.Warn("translation cache read failed", logging.Error(err),
			logging.String(logging.FieldEventType, "cache_read_failed"),
			logging.String(logging.FieldImpact, "entry treated as a miss"),
		)
		return text, false
	}
	if !ok {
		return text, false
	}
	return cached, true
}

func (t *Translator) store(ctx context.Context, logger *slog.Logger, text, lang, translated string) {
	if t.cache == nil {
		return
	}
	if err := t.cache.Set(ctx, text, lang, translated); err != nil {
		logger.Warn("translation cache write failed", logging.Error(err),
			logging.String(logging.FieldEventType, "cache_write_failed"),
			logging.String(logging.FieldImpact, "translation will be requested again next time"),
		)
	}
}

func buildPrompt(meta catalog.Metadata, lang catalog.Language) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Translate the following title and tags into %s (language code %q).\n\n", lang.Name, lang.Code)
	fmt.Fprintf(&b, "Title: %s\n", meta.Title)
	fmt.Fprintf(&b, "Tags: %s", strings.Join(meta.Tags, ", "))
	return b.String()
}

type answer struct {
	title string
	tags  []string
}

// parseAnswer reads TITLE/TITEL and TAGS lines. Tags keep their positions
// (no deduplication) so they can be paired with the originals.
func parseAnswer(content string) answer {
	var a answer
	for _, line := range strings.Split(content, "\n") {
		key, value, ok := llm.SplitKeyLine(line)
		if !ok {
			continue
		}
		switch key {
		case "title", "titel":
			if a.title == "" {
				a.title = strings.Trim(value, `"'`)
			}
		case "tags":
			if a.tags == nil && value != "" {
				for _, tag := range strings.Split(value, ",") {
					a.tags = append(a.tags, strings.TrimSpace(tag))
				}
			}
		}
	}
	return a
}
