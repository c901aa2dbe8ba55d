package generate

import (
	"fmt"
	"strings"
)

// DefaultSourceBudget is the source-text token budget when a request sets
// none.
const DefaultSourceBudget = 60000

const SystemPrompt = `You write educational assessment reports that teachers use to plan accommodations for a student.

Format the report exactly as follows:

- Start with a single title line: "# <Report Title>".
- Write each section as "## <Section Title>" followed by its body.
- Separate sections with a line containing only "---".
- Use "**Label:** value" lines for student information (Student Name, Grade, School, Date of Birth, Assessment Date, Evaluator).
- Under "Documents Reviewed", list each document on its own "- " bullet line.
- List functional impacts and barriers as numbered lines: "1. text".
- In accommodation sections, group accommodations under bold subsection lines such as "**Academic Accommodations**" or "**Testing Accommodations**".
- Write each accommodation as a bold title line, followed on the next line by an italic barrier line: "*Barrier: ...*".

Include these sections in order: Student Information, Documents Reviewed, Summary, Strengths, Functional Impact, Recommended Accommodations, Next Steps.

Base every statement on the source documents. Do not invent scores or diagnoses. Respond with the report only.`

// BuildPrompt assembles the user prompt. Source text is trimmed so the
// estimated total stays within the request's budget; later sources are cut
// first.
func BuildPrompt(req Request) string {
	budget := req.MaxSourceTokens
	if budget <= 0 {
		budget = DefaultSourceBudget
	}

	var sb strings.Builder
	if req.Student != "" {
		sb.WriteString(fmt.Sprintf("Student: %s\n", req.Student))
	}
	if req.Instructions != "" {
		sb.WriteString("Instructions: ")
		sb.WriteString(req.Instructions)
		sb.WriteString("\n")
	}
	if len(req.Sources) == 0 {
		sb.WriteString("\nNo source documents were provided. Write a report skeleton with every section and \"Not provided\" where information is missing.\n")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("\nSource documents (%d):\n", len(req.Sources)))
	for _, src := range req.Sources {
		sb.WriteString("\n---\n")
		sb.WriteString(fmt.Sprintf("Document: %q\n", src.Name))
		sb.WriteString("---\n")
		text := strings.TrimSpace(src.Text)
		if tokens := EstimateTokens(text); tokens > budget {
			text = trimToTokens(text, budget)
			budget = 0
		} else {
			budget -= tokens
		}
		if text == "" {
			sb.WriteString("(omitted: prompt budget exhausted)\n")
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String()
}

// EstimateTokens approximates the token count of English text.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	// Roughly 0.75 words per token.
	words := len(strings.Fields(text))
	tokens := int(float64(words) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}

func trimToTokens(text string, tokens int) string {
	words := strings.Fields(text)
	keep := int(float64(tokens) / 1.33)
	if keep >= len(words) {
		return text
	}
	if keep <= 0 {
		return ""
	}
	return strings.Join(words[:keep], " ") + " [truncated]"
}
