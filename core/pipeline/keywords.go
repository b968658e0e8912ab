package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/goccy/go-json"
)

// keywordInstruction is sent to the chat model together with the user prompt.
const keywordInstruction = `Extract important keyword tags from the following mod recommendation prompt.
Return ONLY a JSON array of simple strings, no prose, no markdown.

Prompt: %q`

// KeywordPrompt builds the chat message for keyword extraction.
func KeywordPrompt(text string) string {
	return fmt.Sprintf(keywordInstruction, text)
}

// ParseKeywords turns a raw model response into keywords.
// Code fences are removed, a JSON array is preferred and a comma separated list is the fallback.
func ParseKeywords(raw string) []string {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	var values []interface{}
	if err := json.Unmarshal([]byte(cleaned), &values); err == nil {
		keywords := make([]string, 0, len(values))
		for _, v := range values {
			if v == nil {
				continue
			}
			keyword := strings.TrimSpace(fmt.Sprint(v))
			if keyword != "" {
				keywords = append(keywords, keyword)
			}
		}
		return keywords
	}

	keywords := []string{}
	for _, part := range strings.Split(cleaned, ",") {
		keyword := strings.TrimSpace(part)
		if keyword != "" {
			keywords = append(keywords, keyword)
		}
	}
	return keywords
}

// NewVocabularyKeywordExtractor returns a keyword extractor that needs no model.
// It returns every vocabulary entry found as a whole word in the prompt, ignoring case,
// in the spelling of the vocabulary so results match tag names exactly.
func NewVocabularyKeywordExtractor(vocabulary []string) KeywordFunc {
	type entry struct {
		word    string
		pattern *regexp.Regexp
	}

	entries := make([]entry, 0, len(vocabulary))
	for _, word := range vocabulary {
		if strings.TrimSpace(word) == "" {
			continue
		}
		entries = append(entries, entry{
			word:    word,
			pattern: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`),
		})
	}

	return func(ctx context.Context, text string) ([]string, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		keywords := []string{}
		for _, e := range entries {
			if e.pattern.MatchString(text) {
				keywords = append(keywords, e.word)
			}
		}
		return keywords, nil
	}
}

// NewLiveVocabularyKeywordExtractor loads the vocabulary on every call and matches it
// like NewVocabularyKeywordExtractor, so entries added later are found by the next request.
func NewLiveVocabularyKeywordExtractor(load func(ctx context.Context) ([]string, error)) KeywordFunc {
	return func(ctx context.Context, text string) ([]string, error) {
		vocabulary, err := load(ctx)
		if err != nil {
			return nil, &UnderstandingError{Op: "load vocabulary", Err: err}
		}
		return NewVocabularyKeywordExtractor(vocabulary)(ctx, text)
	}
}
