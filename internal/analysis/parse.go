package analysis

import (
	"strings"

	"pagesmith/internal/catalog"
	"pagesmith/internal/services/llm"
)

var titleKeys = []string{"motif", "motiv", "title", "titel"}

// ParseResponse reads a MOTIF/TAGS answer. Key-prefixed lines are tried
// first; a JSON object with title (or motif) and tags is the fallback.
// Fields that cannot be found are left empty.
func ParseResponse(content string) catalog.Metadata {
	var meta catalog.Metadata
	titleFound, tagsFound := false, false
	for _, line := range strings.Split(content, "\n") {
		key, value, ok := llm.SplitKeyLine(line)
		if !ok {
			continue
		}
		switch {
		case !titleFound && containsKey(titleKeys, key):
			meta.Title, titleFound = value, true
		case !tagsFound && key == "tags":
			meta.Tags, tagsFound = catalog.SplitTags(value), true
		}
	}
	if !titleFound && !tagsFound {
		meta = parseJSON(content)
	}
	meta.Title = strings.Trim(strings.TrimSpace(meta.Title), `"'`)
	meta.Tags = catalog.NormalizeTags(meta.Tags)
	if len(meta.Tags) > catalog.MaxTags {
		meta.Tags = meta.Tags[:catalog.MaxTags]
	}
	return meta
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

type jsonAnswer struct {
	Title string   `json:"title"`
	Motif string   `json:"motif"`
	Tags  []string `json:"tags"`
}

func parseJSON(content string) catalog.Metadata {
	var answer jsonAnswer
	if err := llm.DecodeLLMJSON(content, &answer); err != nil {
		return catalog.Metadata{}
	}
	title := answer.Title
	if title == "" {
		title = answer.Motif
	}
	return catalog.Metadata{Title: title, Tags: answer.Tags}
}
