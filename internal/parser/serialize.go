package parser

import (
	"strings"

	"github.com/dgallion1/reportdoc/internal/doctree"
)

const divider = "---"

// Serialize writes sections back to canonical report text: each title as a
// level-2 heading, sections separated by divider lines. Synthetic sections are
// skipped so re-parsing never turns derived data into authored content.
func Serialize(sections []doctree.Section, opts Options) string {
	var blocks []string
	var lastContent string
	for _, s := range sections {
		if s.Synthetic {
			continue
		}
		title := strings.Join(strings.Fields(s.Title), " ")
		block := "## " + title
		content := strings.TrimSpace(s.Content)
		if content != "" {
			block += "\n\n" + content
		}
		blocks = append(blocks, block)
		lastContent = content
	}

	var sb strings.Builder
	if t := strings.TrimSpace(opts.DocumentTitle); t != "" {
		sb.WriteString("# " + t)
		if len(blocks) > 0 {
			sb.WriteString("\n\n")
		}
	}
	sb.WriteString(strings.Join(blocks, "\n\n"+divider+"\n\n"))

	// A lone section has no divider, so a level-2 heading inside its content
	// would split it on re-parse. A trailing divider keeps divider mode.
	if len(blocks) == 1 && containsSectionHeading(lastContent) {
		sb.WriteString("\n\n" + divider)
	}
	return sb.String()
}

func containsSectionHeading(content string) bool {
	for _, line := range strings.Split(content, "\n") {
		if isSectionHeading(line) {
			return true
		}
	}
	return false
}
