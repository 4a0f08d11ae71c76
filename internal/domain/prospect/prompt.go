package prospect

import (
	"fmt"
	"strings"
)

// outputSchema はモデルが従うべき出力形（固定テンプレート）
const outputSchema = `{
  "leads": [
    {
      "companyName": "string",
      "summary": "string - why this company is a good prospect",
      "location": "string",
      "industry": "string",
      "companySize": "string",
      "website": "string",
      "intentSignal": "string",
      "contact": {
        "name": "string",
        "title": "string",
        "email": "string",
        "phone": "string",
        "linkedin": "string"
      },
      "sourceUrl": "string",
      "confidence": 0.0
    }
  ]
}`

const promptHeader = "You are a B2B prospecting researcher for a logistics and freight operations team.\n" +
	"Use web search to find real companies that match the criteria below."

var reportingRequirements = []string{
	"Justify every company as a prospect in its summary, citing the signal you found.",
	"Include a contact only if you actually discovered a verified person for that company.",
	"Never fabricate or guess contact details (names, emails, phone numbers, profiles); omit them instead.",
	"Set confidence between 0 and 1 to reflect how well the company matches the criteria.",
}

// BuildPrompt は検索条件から指示プロンプトを生成する。
// 未指定の条件は行ごと出力しない
func BuildPrompt(c Criteria) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(promptHeader)
	b.WriteString("\n\nSearch criteria:\n")
	for _, line := range criterionLines(c) {
		b.WriteString("- ")
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\nReporting requirements:\n")
	for _, req := range reportingRequirements {
		b.WriteString("* ")
		b.WriteString(req)
		b.WriteString("\n")
	}

	b.WriteString("\nReturn the result in exactly this JSON shape:\n")
	b.WriteString(outputSchema)
	b.WriteString("\n\nAnswer with JSON only. Do not add any explanation before or after the JSON.")

	return b.String(), nil
}

func criterionLines(c Criteria) []string {
	lines := []string{"Query: " + strings.TrimSpace(c.Query)}

	if v := strings.TrimSpace(c.Geography); v != "" {
		lines = append(lines, "Geography: "+v)
	}
	if v := strings.TrimSpace(c.IndustryFocus); v != "" {
		lines = append(lines, "Industry focus: "+v)
	}
	if v := strings.TrimSpace(c.IntentFocus); v != "" {
		lines = append(lines, "Buying intent: "+v)
	}
	if c.MinHeadcount != nil {
		lines = append(lines, fmt.Sprintf("Minimum headcount: %d", *c.MinHeadcount))
	}

	return lines
}
