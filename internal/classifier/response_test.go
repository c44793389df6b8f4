package classifier

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pbaille/clipnote/internal/domain"
)

func canonicalClassification() domain.Classification {
	return domain.Classification{
		Category:       domain.CategoryTravel,
		Title:          "Lisbon trip plan",
		Summary:        "Flights and hotel for the May trip.",
		Tags:           []string{"lisbon", "flights", "hotel"},
		CleanedContent: "Fly out May 3rd, hotel near {Alfama}.",
		Priority:       domain.PriorityHigh,
	}
}

func TestParseAnswerEmbeddedInProse(t *testing.T) {
	want := canonicalClassification()
	raw, err := json.Marshal(want)
	require.NoError(t, err)

	wrappers := []struct{ prefix, suffix string }{
		{"", ""},
		{"Here is the classification:\n", "\nLet me know if you need more."},
		{"```json\n", "\n```"},
		{"Sure! {not json yet} ", " trailing } brace"},
	}
	for _, w := range wrappers {
		answer := w.prefix + string(raw) + w.suffix
		got, err := ParseAnswer(answer, "original content")
		if strings.HasPrefix(w.prefix, "Sure!") {
			// The first balanced object is the prose one and is not JSON.
			require.Error(t, err)
			require.True(t, IsKind(err, KindUnparseable))
			continue
		}
		require.NoError(t, err, answer)
		require.Equal(t, want, got)
	}
}

func TestParseAnswerUnparseable(t *testing.T) {
	for _, answer := range []string{"", "no json here", "{ broken", "[1,2,3]", "null"} {
		_, err := ParseAnswer(answer, "x")
		require.Error(t, err, answer)
		require.True(t, IsKind(err, KindUnparseable), answer)
	}
}

func TestParseAnswerDefaults(t *testing.T) {
	original := strings.Repeat("a", 150)

	got, err := ParseAnswer(`{"category":"recipes","tags":"not-a-list"}`, original)
	require.NoError(t, err)

	require.Equal(t, domain.CategoryOther, got.Category)
	require.Equal(t, domain.PriorityMedium, got.Priority)
	require.Equal(t, DefaultTitle, got.Title)
	require.Equal(t, strings.Repeat("a", 100)+"...", got.Summary)
	require.Equal(t, []string{}, got.Tags)
	require.Equal(t, original, got.CleanedContent)
}

func TestNormalizeFieldByField(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]any
		check  func(t *testing.T, c domain.Classification)
	}{
		{
			name:   "invalid priority",
			fields: map[string]any{"priority": "urgent"},
			check: func(t *testing.T, c domain.Classification) {
				require.Equal(t, domain.PriorityMedium, c.Priority)
			},
		},
		{
			name:   "non-string category",
			fields: map[string]any{"category": 42.0},
			check: func(t *testing.T, c domain.Classification) {
				require.Equal(t, domain.CategoryOther, c.Category)
			},
		},
		{
			name:   "blank title",
			fields: map[string]any{"title": "   "},
			check: func(t *testing.T, c domain.Classification) {
				require.Equal(t, DefaultTitle, c.Title)
			},
		},
		{
			name:   "mixed tag array",
			fields: map[string]any{"tags": []any{"go", 3.0, " ", nil, "notes "}},
			check: func(t *testing.T, c domain.Classification) {
				require.Equal(t, []string{"go", "notes"}, c.Tags)
			},
		},
		{
			name:   "valid fields kept",
			fields: map[string]any{"category": "work", "priority": "low", "title": "Standup", "cleanedContent": "clean"},
			check: func(t *testing.T, c domain.Classification) {
				require.Equal(t, domain.CategoryWork, c.Category)
				require.Equal(t, domain.PriorityLow, c.Priority)
				require.Equal(t, "Standup", c.Title)
				require.Equal(t, "clean", c.CleanedContent)
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			test.check(t, Normalize(test.fields, "orig"))
		})
	}
}

func TestExtractObject(t *testing.T) {
	require.Equal(t, `{"a":"}"}`, extractObject(`xx {"a":"}"} yy`))
	require.Equal(t, `{"a":{"b":1}}`, extractObject(`{"a":{"b":1}} {"c":2}`))
	require.Equal(t, `{"a":"\"{"}`, extractObject(`pre {"a":"\"{"} post`))
	require.Equal(t, "", extractObject(`{"a":1`))
	require.Equal(t, "", extractObject(`no braces`))
}

func TestSummarize(t *testing.T) {
	require.Equal(t, "short...", Summarize("short"))
	require.Equal(t, strings.Repeat("é", 100)+"...", Summarize(strings.Repeat("é", 120)))
}
