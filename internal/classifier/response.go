package classifier

import (
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/pbaille/clipnote/internal/domain"
)

const (
	// DefaultTitle is used whenever no usable title is available.
	DefaultTitle = "Untitled Note"

	summaryRunes = 100
)

// ParseAnswer turns the model's free-text answer into a normalized
// classification. original is the content that was classified; it supplies
// defaults for summary and cleaned content.
func ParseAnswer(answer, original string) (domain.Classification, error) {
	fields, err := decodeObject(answer)
	if err != nil {
		return domain.Classification{}, unparseableError(err)
	}
	return Normalize(fields, original), nil
}

// decodeObject parses answer as a JSON object, first directly and then
// from the first balanced {...} substring.
func decodeObject(answer string) (map[string]any, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(answer)), &fields); err == nil && fields != nil {
		return fields, nil
	}

	candidate := extractObject(answer)
	if candidate == "" {
		return nil, errors.New("no JSON object found in answer")
	}
	fields = nil
	if err := json.Unmarshal([]byte(candidate), &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, errors.New("answer object is null")
	}
	return fields, nil
}

// extractObject finds the first balanced {...} substring. Braces inside
// JSON strings are ignored.
func extractObject(content string) string {
	start := strings.Index(content, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		ch := content[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return content[start : i+1]
			}
		}
	}
	return ""
}

// Normalize coerces an untrusted decoded object into a classification.
// Every field is checked on its own and replaced by a default when it is
// missing or of the wrong shape.
func Normalize(fields map[string]any, original string) domain.Classification {
	c := domain.Classification{
		Category:       domain.ParseCategory(stringField(fields, "category")),
		Title:          strings.TrimSpace(stringField(fields, "title")),
		Summary:        strings.TrimSpace(stringField(fields, "summary")),
		Tags:           stringSlice(fields["tags"]),
		CleanedContent: stringField(fields, "cleanedContent"),
		Priority:       domain.ParsePriority(stringField(fields, "priority")),
	}

	if c.Title == "" {
		c.Title = DefaultTitle
	}
	if c.Summary == "" {
		c.Summary = Summarize(original)
	}
	if strings.TrimSpace(c.CleanedContent) == "" {
		c.CleanedContent = original
	}
	return c
}

// Summarize returns the first 100 characters of content followed by an
// ellipsis.
func Summarize(content string) string {
	if utf8.RuneCountInString(content) <= summaryRunes {
		return content + "..."
	}
	runes := []rune(content)
	return string(runes[:summaryRunes]) + "..."
}

func stringField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}

func stringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	tags := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			tags = append(tags, s)
		}
	}
	return tags
}
