package extract

import (
	"regexp"
	"strings"

	"github.com/dgallion1/reportdoc/internal/doctree"
	"github.com/dgallion1/reportdoc/internal/markup"
)

// SubsectionRule declares a known subsection heading. Names are matched as
// lower-case prefixes of the heading text after any "A." or "1." label.
type SubsectionRule struct {
	Key        string   `yaml:"key"`
	DisplayKey string   `yaml:"display_key"`
	Names      []string `yaml:"names"`
}

// DefaultSubsectionRules are the accommodation groupings reports use.
var DefaultSubsectionRules = []SubsectionRule{
	{Key: "academic", DisplayKey: "book", Names: []string{"academic accommodations", "classroom accommodations"}},
	{Key: "testing", DisplayKey: "clock", Names: []string{"testing accommodations", "assessment accommodations"}},
	{Key: "instructional", DisplayKey: "presentation", Names: []string{"instructional accommodations", "instructional supports"}},
	{Key: "environmental", DisplayKey: "home", Names: []string{"environmental accommodations", "setting accommodations"}},
	{Key: "assistive_technology", DisplayKey: "cpu", Names: []string{"assistive technology"}},
	{Key: "social_emotional", DisplayKey: "heart", Names: []string{"social-emotional supports", "social emotional supports", "behavioral supports"}},
}

var labelPrefixRe = regexp.MustCompile(`^(?:[A-Za-z]|\d+)[.)]\s+`)

// Subsections splits body at level-3+ headings and at bold lines naming a
// declared subsection. Text before the first boundary belongs to no
// subsection and is dropped. Headings are always boundaries; a matching rule
// only adds its key and display key.
func Subsections(body string, rules []SubsectionRule) []doctree.Subsection {
	var subs []doctree.Subsection
	var current *doctree.Subsection
	var lines []string

	flush := func() {
		if current != nil {
			current.Content = strings.TrimSpace(strings.Join(lines, "\n"))
			subs = append(subs, *current)
		}
		lines = nil
	}

	for _, tok := range markup.Tokenize(body) {
		if title, rule, ok := subsectionBoundary(tok, rules); ok {
			flush()
			current = &doctree.Subsection{Index: len(subs), Title: title}
			if rule != nil {
				current.Category = rule.Key
				current.DisplayKey = rule.DisplayKey
			}
			continue
		}
		if current != nil {
			lines = append(lines, tok.Raw)
		}
	}
	flush()
	return subs
}

func subsectionBoundary(tok markup.Token, rules []SubsectionRule) (string, *SubsectionRule, bool) {
	switch tok.Kind {
	case markup.Heading:
		if tok.Level >= 3 {
			return tok.Text, matchSubsection(tok.Text, rules), true
		}
	case markup.Bold:
		if r := matchSubsection(tok.Text, rules); r != nil {
			return tok.Text, r, true
		}
	case markup.BoldLabel:
		if tok.Text == "" {
			if r := matchSubsection(tok.Label, rules); r != nil {
				return tok.Label, r, true
			}
		}
	}
	return "", nil, false
}

func matchSubsection(title string, rules []SubsectionRule) *SubsectionRule {
	t := strings.ToLower(labelPrefixRe.ReplaceAllString(strings.TrimSpace(title), ""))
	for i := range rules {
		for _, n := range rules[i].Names {
			if strings.HasPrefix(t, strings.ToLower(n)) {
				return &rules[i]
			}
		}
	}
	return nil
}
