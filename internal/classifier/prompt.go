package classifier

import (
	"strings"

	"github.com/pbaille/clipnote/internal/domain"
)

func buildPrompt(content string, hint domain.ContentType) string {
	var sb strings.Builder

	sb.WriteString("You are a content classifier. Analyze the following content and return ONLY a valid JSON object with these exact fields:\n\n")
	sb.WriteString("{\n")
	sb.WriteString(`  "category": "one of: `)
	sb.WriteString(joinCategories())
	sb.WriteString("\",\n")
	sb.WriteString(`  "title": "3-6 word title",` + "\n")
	sb.WriteString(`  "summary": "1-2 sentence summary",` + "\n")
	sb.WriteString(`  "tags": ["tag1", "tag2", "tag3"],` + "\n")
	sb.WriteString(`  "cleanedContent": "cleaned and formatted content",` + "\n")
	sb.WriteString(`  "priority": "low, medium, or high"` + "\n")
	sb.WriteString("}\n\n")

	sb.WriteString(`Rules:
- Choose the most appropriate category from the list
- For job/career content, use "work"
- For personal thoughts/notes, use "personal"
- For project ideas, use "ideas"
- For URLs, use "links"
- For programming content, use "code"
- Return ONLY the JSON, no other text

`)

	if hint != "" {
		sb.WriteString("Detected content type: ")
		sb.WriteString(string(hint))
		sb.WriteString("\n\n")
	}

	sb.WriteString("Content to classify:\n")
	sb.WriteString(content)

	return sb.String()
}

func joinCategories() string {
	names := make([]string, len(domain.Categories))
	for i, c := range domain.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
