package prospect

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func criterionSection(t *testing.T, prompt string) []string {
	t.Helper()

	start := strings.Index(prompt, "Search criteria:\n")
	end := strings.Index(prompt, "\nReporting requirements:")
	require.True(t, start >= 0 && end > start, "criteria section not found")

	body := strings.TrimRight(prompt[start+len("Search criteria:\n"):end], "\n")
	return strings.Split(body, "\n")
}

func TestBuildPrompt_QueryOnly(t *testing.T) {
	prompt, err := BuildPrompt(Criteria{Query: "  cold-chain distributors  "})
	require.NoError(t, err)

	lines := criterionSection(t, prompt)
	assert.Equal(t, []string{"- Query: cold-chain distributors"}, lines)

	assert.NotContains(t, prompt, "Geography:")
	assert.NotContains(t, prompt, "Industry focus:")
	assert.NotContains(t, prompt, "Buying intent:")
	assert.NotContains(t, prompt, "Minimum headcount:")
}

func TestBuildPrompt_AllCriteria(t *testing.T) {
	headcount := 50
	prompt, err := BuildPrompt(Criteria{
		Query:         "mining suppliers needing haulage",
		Geography:     "Zimbabwe",
		IndustryFocus: "Mining",
		IntentFocus:   "expanding fleet",
		MinHeadcount:  &headcount,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"- Query: mining suppliers needing haulage",
		"- Geography: Zimbabwe",
		"- Industry focus: Mining",
		"- Buying intent: expanding fleet",
		"- Minimum headcount: 50",
	}, criterionSection(t, prompt))
}

func TestBuildPrompt_BlankOptionalCriteriaAreOmitted(t *testing.T) {
	prompt, err := BuildPrompt(Criteria{Query: "q", Geography: "   ", IndustryFocus: ""})
	require.NoError(t, err)

	assert.Len(t, criterionSection(t, prompt), 1)
}

func TestBuildPrompt_FixedParts(t *testing.T) {
	prompt, err := BuildPrompt(Criteria{Query: "q"})
	require.NoError(t, err)

	assert.Contains(t, prompt, outputSchema)
	assert.Contains(t, prompt, "Never fabricate")
	assert.Contains(t, prompt, "verified person")
	assert.True(t, strings.HasSuffix(prompt, "Answer with JSON only. Do not add any explanation before or after the JSON."))
}

func TestBuildPrompt_Deterministic(t *testing.T) {
	c := Criteria{Query: "q", Geography: "Harare"}
	a, err := BuildPrompt(c)
	require.NoError(t, err)
	b, err := BuildPrompt(c)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestBuildPrompt_InvalidCriteria(t *testing.T) {
	negative := -1
	tests := []struct {
		name     string
		criteria Criteria
	}{
		{"empty query", Criteria{Query: ""}},
		{"whitespace query", Criteria{Query: " \t\n"}},
		{"negative headcount", Criteria{Query: "q", MinHeadcount: &negative}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt, err := BuildPrompt(tt.criteria)
			assert.ErrorIs(t, err, ErrInvalidCriteria)
			assert.Empty(t, prompt)
		})
	}
}
