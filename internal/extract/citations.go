package extract

import (
	"strings"

	"github.com/dgallion1/reportdoc/internal/doctree"
	"github.com/dgallion1/reportdoc/internal/markup"
)

// CitationLabels are the sub-headings that introduce a document list.
var CitationLabels = []string{"documents reviewed", "records reviewed", "sources reviewed"}

// Citations finds a "Documents Reviewed" sub-heading inside body and collects
// the list lines after it, stopping at the next bold-labelled field or
// heading. An inline value on the label line ("**Documents Reviewed:** IEP;
// 504 Plan") is split on semicolons and commas.
func Citations(body string) []doctree.DocumentCitation {
	return citations(body, false)
}

// CitationList collects list lines from the start of body. It is meant for a
// section whose own title is the document-list heading.
func CitationList(body string) []doctree.DocumentCitation {
	return citations(body, true)
}

func citations(body string, collecting bool) []doctree.DocumentCitation {
	var out []doctree.DocumentCitation
	for _, tok := range markup.Tokenize(body) {
		if isCitationHeader(tok) {
			collecting = true
			if tok.Kind == markup.BoldLabel && tok.Text != "" {
				out = append(out, splitInline(tok.Text)...)
			}
			continue
		}
		if !collecting {
			continue
		}

		switch tok.Kind {
		case markup.BulletItem:
			if tok.Inner().Kind == markup.BoldLabel {
				collecting = false
				continue
			}
			if name := tok.Plain(); name != "" {
				out = append(out, doctree.DocumentCitation{Name: name})
			}
		case markup.NumberedItem:
			out = append(out, doctree.DocumentCitation{Name: tok.Text})
		case markup.BoldLabel, markup.Bold, markup.Heading, markup.Divider:
			collecting = false
		}
	}
	return out
}

func isCitationHeader(tok markup.Token) bool {
	var text string
	switch tok.Kind {
	case markup.Heading, markup.Bold:
		text = tok.Text
	case markup.BoldLabel:
		text = tok.Label
	case markup.Text:
		text = strings.TrimSuffix(tok.Text, ":")
		lower := strings.ToLower(strings.TrimSpace(markup.Normalize(text)))
		for _, l := range CitationLabels {
			if lower == l {
				return true
			}
		}
		return false
	default:
		return false
	}
	lower := strings.ToLower(text)
	for _, l := range CitationLabels {
		if strings.Contains(lower, l) {
			return true
		}
	}
	return false
}

func splitInline(value string) []doctree.DocumentCitation {
	var out []doctree.DocumentCitation
	for _, part := range strings.FieldsFunc(value, func(r rune) bool { return r == ';' || r == ',' }) {
		if name := strings.TrimSpace(part); name != "" {
			out = append(out, doctree.DocumentCitation{Name: name})
		}
	}
	return out
}
