// Package analysis asks the vision service for a title and tags describing a
// coloring page.
//
// Incomplete answers degrade instead of failing: a missing title becomes the
// configured placeholder and missing tags become an empty list. Only service
// failures (after retries) are returned as errors.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"pagesmith/internal/catalog"
	"pagesmith/internal/logging"
	"pagesmith/internal/services/llm"
)

const systemPrompt = `You describe black-and-white line art for a printable coloring page app.
Answer with exactly two lines and nothing else:
MOTIF: <short, concrete phrase naming the subject>
TAGS: <3 to 5 comma-separated nouns>
Never use generic words such as "coloring page", "black and white", "illustration" or "drawing".`

// Extractor produces base-language metadata for images.
type Extractor struct {
	client      llm.Completer
	language    catalog.Language
	placeholder string
	logger      *slog.Logger
}

// New returns an Extractor answering in lang. client should already be
// rate limited and retried (see llm.Guarded).
func New(client llm.Completer, lang catalog.Language, placeholder string, logger *slog.Logger) *Extractor {
	return &Extractor{
		client:      client,
		language:    lang,
		placeholder: placeholder,
		logger:      logging.NewComponentLogger(logger, "analysis"),
	}
}

// Extract describes image. mime is the image content type.
func (e *Extractor) Extract(ctx context.Context, image []byte, mime string) (catalog.Metadata, error) {
	prompt := fmt.Sprintf("Describe the motif of this coloring page in %s (language code %q).", e.language.Name, e.language.Code)
	content, err := e.client.Complete(ctx, llm.Request{
		System: systemPrompt,
		Prompt: prompt,
		Images: []llm.Image{{MIME: mime, Data: image}},
	})
	if err != nil {
		return catalog.Metadata{}, fmt.Errorf("analyze image: %w", err)
	}

	meta := ParseResponse(content)
	logger := logging.WithContext(ctx, e.logger)
	if meta.Title == "" || len(meta.Tags) == 0 {
		logging.WarnWithContext(logger, "image analysis incomplete", "analysis_incomplete",
			logging.Bool("title_missing", meta.Title == ""),
			logging.Int("tag_count", len(meta.Tags)),
			logging.String("response", truncate(llm.StripCodeFence(content), 300)),
			logging.String(logging.FieldErrorHint, "review the image and its generated title manually"),
			logging.String(logging.FieldImpact, "placeholder title or empty tags published"),
		)
	}
	if meta.Title == "" {
		meta.Title = e.placeholder
	}
	if meta.Tags == nil {
		meta.Tags = []string{}
	}
	logger.Debug("image analyzed", logging.String("title", meta.Title), logging.Any("tags", meta.Tags))
	return meta, nil
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= n {
		return string(runes)
	}
	return string(runes[:n]) + "…"
}
