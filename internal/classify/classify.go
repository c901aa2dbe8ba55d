package classify

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dgallion1/reportdoc/internal/doctree"
	"gopkg.in/yaml.v3"
)

// Rule maps title substrings to a category. Rules are tried in ascending
// Priority; the first rule with a matching trigger wins, so an ambiguous
// title resolves to the lower priority number.
type Rule struct {
	Category   doctree.Category `yaml:"category"`
	DisplayKey string           `yaml:"display_key"`
	Priority   int              `yaml:"priority"`
	Triggers   []string         `yaml:"triggers"`
}

// Result is the outcome of classifying one title.
type Result struct {
	Category   doctree.Category
	DisplayKey string
	Matched    bool // False when the fallback category was assigned
}

// Classifier resolves section titles to categories.
type Classifier struct {
	rules    []Rule
	meta     []string
	fallback Result
}

// Option customizes a Classifier.
type Option func(*Classifier)

// WithMeta replaces the set of title fragments that mark meta sections.
func WithMeta(fragments ...string) Option {
	return func(c *Classifier) { c.meta = lowerAll(fragments) }
}

// WithFallback sets the category assigned when no rule matches.
func WithFallback(category doctree.Category, displayKey string) Option {
	return func(c *Classifier) {
		c.fallback = Result{Category: category, DisplayKey: displayKey}
	}
}

// DefaultMeta lists title fragments of sections that are never classified.
var DefaultMeta = []string{"cheat sheet", "cheatsheet", "tl;dr", "tldr", "quick reference"}

// New builds a Classifier. Rules are sorted by priority; ties keep the order
// given.
func New(rules []Rule, opts ...Option) *Classifier {
	sorted := make([]Rule, len(rules))
	for i, r := range rules {
		r.Triggers = lowerAll(r.Triggers)
		sorted[i] = r
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority < sorted[j].Priority })

	c := &Classifier{
		rules:    sorted,
		meta:     lowerAll(DefaultMeta),
		fallback: Result{Category: doctree.CategoryGeneral, DisplayKey: "neutral"},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Default returns a Classifier over DefaultRules.
func Default() *Classifier {
	return New(DefaultRules())
}

// Classify resolves a title. ok is false for meta titles, which callers must
// exclude rather than display.
func (c *Classifier) Classify(title string) (res Result, ok bool) {
	lower := strings.ToLower(title)
	if c.IsMeta(title) {
		return Result{}, false
	}
	for _, r := range c.rules {
		for _, trig := range r.Triggers {
			if trig != "" && strings.Contains(lower, trig) {
				return Result{Category: r.Category, DisplayKey: r.DisplayKey, Matched: true}, true
			}
		}
	}
	return c.fallback, true
}

// IsMeta reports whether title names a meta block such as a cheat sheet.
func (c *Classifier) IsMeta(title string) bool {
	lower := strings.ToLower(title)
	for _, m := range c.meta {
		if m != "" && strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// Rules returns the rules in resolution order.
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// DefaultRules is the priority list for assessment reports. Specific phrases
// sit above generic ones: "Accommodations for Barriers" must resolve to
// accommodations, not challenges.
func DefaultRules() []Rule {
	return []Rule{
		{Category: doctree.CategoryDocuments, DisplayKey: "file-text:slate", Priority: 10,
			Triggers: []string{"documents reviewed", "document review", "records reviewed", "sources reviewed"}},
		{Category: doctree.CategoryStudentInfo, DisplayKey: "user:blue", Priority: 20,
			Triggers: []string{"student information", "student info", "student profile", "background information"}},
		{Category: doctree.CategoryFunctionalImpact, DisplayKey: "activity:orange", Priority: 30,
			Triggers: []string{"functional impact", "functional limitation", "impact on learning"}},
		{Category: doctree.CategoryAccommodations, DisplayKey: "shield:green", Priority: 40,
			Triggers: []string{"accommodation", "support plan", "supports and services"}},
		{Category: doctree.CategoryStrengths, DisplayKey: "star:emerald", Priority: 50,
			Triggers: []string{"strength"}},
		{Category: doctree.CategoryChallenges, DisplayKey: "alert-triangle:amber", Priority: 60,
			Triggers: []string{"challenge", "barrier", "area of need", "areas of need", "concern"}},
		{Category: doctree.CategoryRecommendations, DisplayKey: "lightbulb:violet", Priority: 70,
			Triggers: []string{"recommendation", "strategies", "intervention"}},
		{Category: doctree.CategoryNextSteps, DisplayKey: "arrow-right:indigo", Priority: 80,
			Triggers: []string{"next step", "follow-up", "follow up"}},
		{Category: doctree.CategorySummary, DisplayKey: "clipboard:gray", Priority: 90,
			Triggers: []string{"summary", "overview", "conclusion"}},
	}
}

type ruleFile struct {
	Rules    []Rule   `yaml:"rules"`
	Meta     []string `yaml:"meta"`
	Fallback *struct {
		Category   doctree.Category `yaml:"category"`
		DisplayKey string           `yaml:"display_key"`
	} `yaml:"fallback"`
}

// LoadRules reads a YAML rule table:
//
//	rules:
//	  - category: strengths
//	    display_key: star:emerald
//	    priority: 10
//	    triggers: [strength]
//	meta: [cheat sheet]
//	fallback: {category: general, display_key: neutral}
func LoadRules(r io.Reader) (*Classifier, error) {
	var f ruleFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	if len(f.Rules) == 0 {
		return nil, fmt.Errorf("rule table has no rules")
	}
	for i, rule := range f.Rules {
		if rule.Category == "" {
			return nil, fmt.Errorf("rule %d: category is required", i)
		}
		if len(rule.Triggers) == 0 {
			return nil, fmt.Errorf("rule %d (%s): at least one trigger is required", i, rule.Category)
		}
	}

	var opts []Option
	if f.Meta != nil {
		opts = append(opts, WithMeta(f.Meta...))
	}
	if f.Fallback != nil && f.Fallback.Category != "" {
		opts = append(opts, WithFallback(f.Fallback.Category, f.Fallback.DisplayKey))
	}
	return New(f.Rules, opts...), nil
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(strings.TrimSpace(s)))
	}
	return out
}
