package classifier

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/pbaille/clipnote/internal/domain"
)

var (
	bareURLPattern     = regexp.MustCompile(`(?i)^https?://\S+$`)
	embeddedURLPattern = regexp.MustCompile(`(?i)https?://\S+`)

	// Any match classifies the text as code.
	codePatterns = []*regexp.Regexp{
		regexp.MustCompile(`function\s+\w+\s*\(`),
		regexp.MustCompile(`const\s+\w+\s*=`),
		regexp.MustCompile(`import\s+.*from`),
		regexp.MustCompile(`class\s+\w+`),
		regexp.MustCompile(`<\w+.*>`),
		regexp.MustCompile(`\{\s*".*":`),
		regexp.MustCompile(`def\s+\w+\s*\(`),
		regexp.MustCompile(`public\s+class`),
	}

	// Checked in order; first match wins.
	languagePatterns = []struct {
		language string
		pattern  *regexp.Regexp
	}{
		{"javascript", regexp.MustCompile(`import\s+.*from|const\s+.*=|function\s+.*\(`)},
		{"python", regexp.MustCompile(`def\s+.*\(|import\s+\w+`)},
		{"html", regexp.MustCompile(`<\w+.*>|</\w+>`)},
		{"json", regexp.MustCompile(`\{\s*".*":`)},
		{"java", regexp.MustCompile(`public\s+class|private\s+\w+`)},
	}
)

// ClassifyHeuristic assigns a coarse content type to text using pattern
// matching only. Callers must reject blank input before calling it.
func ClassifyHeuristic(text string) domain.HeuristicResult {
	trimmed := strings.TrimSpace(text)

	if bareURLPattern.MatchString(trimmed) {
		domainName, path := splitURL(trimmed)
		return domain.HeuristicResult{
			ContentType: domain.TypeURL,
			Metadata:    domain.Metadata{Domain: domainName, Title: path},
		}
	}

	for _, p := range codePatterns {
		if p.MatchString(trimmed) {
			return domain.HeuristicResult{
				ContentType: domain.TypeCode,
				Metadata:    domain.Metadata{Language: DetectLanguage(trimmed)},
			}
		}
	}

	if embeddedURLPattern.MatchString(trimmed) {
		return domain.HeuristicResult{ContentType: domain.TypeMixed}
	}

	return domain.HeuristicResult{ContentType: domain.TypeText}
}

// DetectLanguage guesses the language family of a code snippet
func DetectLanguage(code string) string {
	for _, lp := range languagePatterns {
		if lp.pattern.MatchString(code) {
			return lp.language
		}
	}
	return "text"
}

// splitURL returns the hostname and path of a bare URL. When net/url
// rejects the input the host is cut out of the authority by hand.
func splitURL(raw string) (host, path string) {
	if u, err := url.Parse(raw); err == nil && u.Hostname() != "" {
		return strings.ToLower(u.Hostname()), u.EscapedPath()
	}

	rest := raw[strings.Index(raw, "://")+3:]
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		rest = rest[:i]
	}
	if i := strings.LastIndex(rest, "@"); i >= 0 {
		rest = rest[i+1:]
	}
	if i := strings.LastIndex(rest, ":"); i >= 0 && !strings.Contains(rest[i:], "]") {
		rest = rest[:i]
	}
	return strings.ToLower(rest), ""
}
