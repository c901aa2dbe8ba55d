package extract

import (
	"github.com/dgallion1/reportdoc/internal/doctree"
	"github.com/dgallion1/reportdoc/internal/markup"
)

// FunctionalImpacts returns the numbered lines of body ("1. text", optionally
// bold-wrapped) in the order they appear. Other lines are skipped.
func FunctionalImpacts(body string) []doctree.FunctionalImpactEntry {
	var out []doctree.FunctionalImpactEntry
	for _, tok := range markup.Tokenize(body) {
		if tok.Kind != markup.NumberedItem {
			continue
		}
		out = append(out, doctree.FunctionalImpactEntry{
			Number:      tok.Number,
			Description: tok.Text,
		})
	}
	return out
}
