package classifier

import (
	"strings"

	"github.com/pbaille/clipnote/internal/domain"
)

// Checked in order; the first group with a matching keyword decides.
var fallbackRules = []struct {
	category domain.Category
	keywords []string
}{
	{domain.CategoryWork, []string{"job", "work", "career", "freelance", "developer"}},
	{domain.CategoryLinks, []string{"http", "www", ".com"}},
	{domain.CategoryCode, []string{"code", "function", "javascript", "react", "python", "golang"}},
}

// Fallback derives a classification from keywords alone. It is used when
// the AI classification is unavailable and cannot fail.
func Fallback(content string) domain.Classification {
	return domain.Classification{
		Category:       FallbackCategory(content),
		Title:          DefaultTitle,
		Summary:        Summarize(content),
		Tags:           []string{},
		CleanedContent: content,
		Priority:       domain.PriorityMedium,
	}
}

// FallbackCategory returns the keyword-derived category of content
func FallbackCategory(content string) domain.Category {
	lower := strings.ToLower(content)
	for _, rule := range fallbackRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category
			}
		}
	}
	return domain.CategoryOther
}
