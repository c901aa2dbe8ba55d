package markup

import "regexp"

var (
	emphasisRunRe = regexp.MustCompile(`\*{2,}`)
	emphasisSpan  = regexp.MustCompile(`\*([^*\n]+)\*`)
)

// Normalize strips inline emphasis so text can be shown or edited as plain
// prose. Runs of two or more asterisks are removed first, then single
// asterisk-wrapped spans are unwrapped. Normalize is idempotent.
func Normalize(text string) string {
	text = emphasisRunRe.ReplaceAllString(text, "")
	return emphasisSpan.ReplaceAllString(text, "$1")
}
