package markup

import (
	"regexp"
	"strconv"
	"strings"
)

// Kind identifies the grammar element a line represents.
type Kind int

const (
	Blank Kind = iota
	Text
	Heading
	Divider
	BoldLabel
	Bold
	Italic
	NumberedItem
	BulletItem
)

func (k Kind) String() string {
	switch k {
	case Blank:
		return "blank"
	case Text:
		return "text"
	case Heading:
		return "heading"
	case Divider:
		return "divider"
	case BoldLabel:
		return "bold_label"
	case Bold:
		return "bold"
	case Italic:
		return "italic"
	case NumberedItem:
		return "numbered_item"
	case BulletItem:
		return "bullet_item"
	}
	return "unknown"
}

// Token is a single classified line of report text.
type Token struct {
	Kind   Kind
	Raw    string // Original line, without the trailing newline
	Text   string // Payload: heading text, item text, label value, or wrapped text
	Label  string // BoldLabel only
	Level  int    // Heading only
	Number int    // NumberedItem only
	Indent bool   // Line starts with whitespace
}

var (
	dividerRe   = regexp.MustCompile(`^\s*-{3,}\s*$`)
	headingRe   = regexp.MustCompile(`^\s*(#{1,6})\s+(.*\S)\s*$`)
	numberedRe  = regexp.MustCompile(`^\s*(?:\*\*)?(\d+)\.(?:\*\*)?\s+(.*\S)\s*$`)
	boldLabelRe = regexp.MustCompile(`^\s*\*\*([^*]+?)(?::\*\*|\*\*\s*:)\s*(.*?)\s*$`)
	boldRe      = regexp.MustCompile(`^\s*\*\*([^*]+)\*\*\s*$`)
	bulletRe    = regexp.MustCompile(`^\s*[-*•+]\s+(.*?)\s*$`)
	italicRe    = regexp.MustCompile(`^\s*(?:\*([^*\s][^*]*)\*|_([^_\s][^_]*)_)\s*$`)
)

// Tokenize splits text into lines and classifies each one.
func Tokenize(text string) []Token {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	tokens := make([]Token, 0, len(lines))
	for _, line := range lines {
		tokens = append(tokens, ClassifyLine(strings.TrimSuffix(line, "\r")))
	}
	return tokens
}

// ClassifyLine classifies a single line. Precedence follows the order of the
// checks below; the first match wins.
func ClassifyLine(line string) Token {
	tok := Token{Raw: line, Indent: hasIndent(line)}

	if strings.TrimSpace(line) == "" {
		tok.Kind = Blank
		return tok
	}
	if dividerRe.MatchString(line) {
		tok.Kind = Divider
		return tok
	}
	if m := headingRe.FindStringSubmatch(line); m != nil {
		tok.Kind = Heading
		tok.Level = len(m[1])
		tok.Text = strings.TrimSpace(Normalize(m[2]))
		return tok
	}
	if m := numberedRe.FindStringSubmatch(line); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			tok.Kind = NumberedItem
			tok.Number = n
			tok.Text = strings.TrimSpace(Normalize(m[2]))
			if tok.Text != "" {
				return tok
			}
		}
	}
	if m := boldLabelRe.FindStringSubmatch(line); m != nil {
		tok.Kind = BoldLabel
		tok.Label = strings.TrimSpace(m[1])
		tok.Text = strings.TrimSpace(Normalize(m[2]))
		return tok
	}
	if m := boldRe.FindStringSubmatch(line); m != nil {
		tok.Kind = Bold
		tok.Text = strings.TrimSpace(m[1])
		return tok
	}
	if m := bulletRe.FindStringSubmatch(line); m != nil {
		tok.Kind = BulletItem
		tok.Text = m[1]
		return tok
	}
	if m := italicRe.FindStringSubmatch(line); m != nil {
		tok.Kind = Italic
		tok.Text = strings.TrimSpace(m[1] + m[2])
		return tok
	}

	tok.Kind = Text
	tok.Text = strings.TrimSpace(line)
	return tok
}

// IsDivider reports whether line is a section divider.
func IsDivider(line string) bool {
	return dividerRe.MatchString(line)
}

// HeadingText returns the heading text and level of line, or level 0 when
// line is not a heading.
func HeadingText(line string) (string, int) {
	tok := ClassifyLine(line)
	if tok.Kind != Heading {
		return "", 0
	}
	return tok.Text, tok.Level
}

// StripBullet removes a leading bullet marker, if any.
func StripBullet(line string) string {
	if m := bulletRe.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	return strings.TrimSpace(line)
}

// Inner re-classifies the payload of a bullet item so labels and emphasis
// nested inside list markers are recognized.
func (t Token) Inner() Token {
	if t.Kind != BulletItem {
		return t
	}
	inner := ClassifyLine(t.Text)
	inner.Indent = t.Indent
	return inner
}

// Plain returns the line with list markers and emphasis removed.
func (t Token) Plain() string {
	return strings.TrimSpace(Normalize(StripBullet(t.Raw)))
}

func hasIndent(line string) bool {
	return len(line) > 0 && (line[0] == ' ' || line[0] == '\t')
}
