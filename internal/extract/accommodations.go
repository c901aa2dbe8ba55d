package extract

import (
	"strings"

	"github.com/dgallion1/reportdoc/internal/doctree"
	"github.com/dgallion1/reportdoc/internal/markup"
)

// Accommodations pairs title lines with the barrier line that may follow
// them. A title is a bold line, a numbered item, or a bold label with no
// value. The barrier line is italic, starts with "Barrier", or is indented;
// blank lines may sit between the two. Any other line closes the pair, so a
// later barrier line is not attached to an earlier title.
func Accommodations(body string) []doctree.Accommodation {
	var out []doctree.Accommodation
	open := -1

	for _, tok := range markup.Tokenize(body) {
		if tok.Kind == markup.Blank {
			continue
		}
		if open >= 0 && isBarrierLine(tok) {
			if b := barrierText(tok); b != "" {
				out[open].Barrier = &b
			}
			open = -1
			continue
		}
		if title, ok := accommodationTitle(tok); ok {
			out = append(out, doctree.Accommodation{Title: title})
			open = len(out) - 1
			continue
		}
		if open >= 0 && tok.Indent && tok.Kind != markup.Heading {
			if b := barrierText(tok); b != "" {
				out[open].Barrier = &b
			}
		}
		open = -1
	}
	return out
}

// isBarrierLine matches italic lines and lines starting with "Barrier". A
// line shaped like a title, such as **Barrier-Free Seating**, stays a title.
func isBarrierLine(tok markup.Token) bool {
	if tok.Kind == markup.Italic {
		return true
	}
	if _, ok := accommodationTitle(tok); ok {
		return false
	}
	return strings.HasPrefix(strings.ToLower(tok.Plain()), "barrier")
}

func barrierText(tok markup.Token) string {
	if tok.Kind == markup.Italic {
		return tok.Text
	}
	return tok.Plain()
}

func accommodationTitle(tok markup.Token) (string, bool) {
	inner := tok.Inner()
	switch inner.Kind {
	case markup.Bold:
		return inner.Text, inner.Text != ""
	case markup.NumberedItem:
		return inner.Text, true
	case markup.BoldLabel:
		if inner.Text == "" {
			return inner.Label, inner.Label != ""
		}
	}
	return "", false
}
