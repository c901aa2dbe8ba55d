package parser

import (
	"regexp"
	"strings"
	"testing"

	"github.com/dgallion1/reportdoc/internal/doctree"
)

const sampleReport = `# Student Support Report

## Student Information
**Student Name:** Jane Doe
**Grade:** 5

---

## Functional Impact
### Overview
1. Reading fluency below grade level
2. Slow processing speed

---

## Accommodations

### Academic Accommodations
**Extended Time**
*Barrier: slow processing speed*

---

## Teacher Cheat Sheet
- Seat near the front
`

func TestParse_TwoSectionsSeparatedByDivider(t *testing.T) {
	sections := Parse("## A\nfoo\n\n---\n\n## B\nbar", DefaultOptions())
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}
	want := []struct{ title, content string }{{"A", "foo"}, {"B", "bar"}}
	for i, w := range want {
		if sections[i].Title != w.title {
			t.Errorf("section %d: expected title %q, got %q", i, w.title, sections[i].Title)
		}
		if sections[i].Content != w.content {
			t.Errorf("section %d: expected content %q, got %q", i, w.content, sections[i].Content)
		}
		if sections[i].Index != i {
			t.Errorf("section %d: expected index %d, got %d", i, i, sections[i].Index)
		}
	}
}

func TestParse_EmptyText(t *testing.T) {
	for _, in := range []string{"", "   \n\n", "no headings at all", "---\n---"} {
		if got := Parse(in, DefaultOptions()); len(got) != 0 {
			t.Errorf("Parse(%q): expected no sections, got %d", in, len(got))
		}
	}
}

func TestParse_HeadingFallbackWithoutDividers(t *testing.T) {
	input := "Preamble that is dropped.\n\n## Strengths\nReads well.\n\n## Challenges\nMath facts."
	sections := Parse(input, DefaultOptions())
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}
	if sections[0].Title != "Strengths" || sections[0].Content != "Reads well." {
		t.Errorf("unexpected first section: %+v", sections[0])
	}
	if sections[1].Title != "Challenges" || sections[1].Content != "Math facts." {
		t.Errorf("unexpected second section: %+v", sections[1])
	}
}

func TestParse_StripsTitleAndStraySubheading(t *testing.T) {
	sections := Parse(sampleReport, DefaultOptions())
	if len(sections) != 4 {
		t.Fatalf("expected 4 sections, got %d", len(sections))
	}
	if sections[0].Title != "Student Information" {
		t.Errorf("expected document title stripped, first title %q", sections[0].Title)
	}
	impact := sections[1]
	if strings.Contains(impact.Content, "Overview") {
		t.Errorf("expected stray subheading discarded, got %q", impact.Content)
	}
	if !strings.HasPrefix(impact.Content, "1. Reading fluency") {
		t.Errorf("unexpected impact content %q", impact.Content)
	}
	// A blank line separates the subsection heading from the title, so it stays.
	if !strings.HasPrefix(sections[2].Content, "### Academic Accommodations") {
		t.Errorf("expected subsection heading kept, got %q", sections[2].Content)
	}
}

func TestParse_UnmatchedChunksDoNotConsumeIndex(t *testing.T) {
	input := "## A\none\n---\nno heading here\n---\n\n---\n## B\ntwo"
	sections := Parse(input, DefaultOptions())
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}
	if sections[1].Title != "B" || sections[1].Index != 1 {
		t.Errorf("expected B at index 1, got %q at %d", sections[1].Title, sections[1].Index)
	}
}

func TestParse_ResidualDividerFragments(t *testing.T) {
	input := "## A\none\n---\n--\n-\n## B\ntwo"
	sections := Parse(input, DefaultOptions())
	if len(sections) != 2 || sections[1].Title != "B" || sections[1].Content != "two" {
		t.Fatalf("unexpected sections: %+v", sections)
	}
}

func TestParse_CustomTitlePattern(t *testing.T) {
	opts := Options{TitlePattern: regexp.MustCompile(`(?i)^AI Analysis Report$`)}
	sections := Parse("AI Analysis Report\n## Summary\nOk", opts)
	if len(sections) != 1 || sections[0].Title != "Summary" {
		t.Fatalf("unexpected sections: %+v", sections)
	}
	// Without stripping, a level-1 title is simply preamble and still dropped.
	sections = Parse("# Title\n## Summary\nOk", Options{})
	if len(sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(sections))
	}
}

func TestParse_IsPure(t *testing.T) {
	a := Parse(sampleReport, DefaultOptions())
	b := Parse(sampleReport, DefaultOptions())
	if len(a) != len(b) {
		t.Fatalf("expected identical lengths, got %d and %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Title != b[i].Title || a[i].Content != b[i].Content {
			t.Errorf("section %d differs between parses", i)
		}
	}
}

func TestSerialize_Empty(t *testing.T) {
	if got := Serialize(nil, DefaultOptions()); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
	opts := DefaultOptions()
	opts.DocumentTitle = "Student Support Report"
	if got := Serialize(nil, opts); got != "# Student Support Report" {
		t.Errorf("expected title-only string, got %q", got)
	}
}

func TestSerialize_Format(t *testing.T) {
	sections := []doctree.Section{
		{Title: "A", Content: "foo"},
		{Title: "Docs", Content: "- x", Synthetic: true},
		{Title: "B", Content: ""},
	}
	want := "## A\n\nfoo\n\n---\n\n## B"
	if got := Serialize(sections, DefaultOptions()); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestRoundTrip(t *testing.T) {
	inputs := []string{
		sampleReport,
		"## A\nfoo\n\n---\n\n## B\nbar",
		"## Only\n\n### Sub\ntext",
		"## One\nbody\n## Two\nbody two",
		"## A\nfoo\n## B\nbar\n---\n",
		"## Empty",
		"## **Bold Title**\n- item\n\n---\n## Second\n\n1. x\n2. y",
	}
	opts := DefaultOptions()
	opts.DocumentTitle = "Report"
	for _, in := range inputs {
		first := Parse(in, opts)
		second := Parse(Serialize(first, opts), opts)
		if len(first) != len(second) {
			t.Errorf("round trip of %q: expected %d sections, got %d", in, len(first), len(second))
			continue
		}
		for i := range first {
			if first[i].Title != second[i].Title || first[i].Content != second[i].Content {
				t.Errorf("round trip of %q: section %d changed from %+v to %+v", in, i, first[i], second[i])
			}
		}
	}
}

func TestSectionIDs_DuplicateTitles(t *testing.T) {
	sections := Parse("## Notes\na\n---\n## Notes\nb", DefaultOptions())
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}
	if sections[0].ID == sections[1].ID {
		t.Error("expected distinct ids for repeated titles")
	}
}

func TestCarryIDs_InsertionKeepsIdentity(t *testing.T) {
	prev := Parse("## A\na\n---\n## B\nb", DefaultOptions())
	next := CarryIDs(prev, Parse("## New\nn\n---\n## A\na\n---\n## B\nb", DefaultOptions()))
	if next[1].ID != prev[0].ID || next[2].ID != prev[1].ID {
		t.Errorf("expected ids of A and B to follow their titles")
	}
	if next[0].ID == prev[0].ID {
		t.Error("inserted section must not steal an existing id")
	}
}

func TestCarryIDs_RenameInheritsPositionalID(t *testing.T) {
	prev := Parse("## A\na\n---\n## B\nb", DefaultOptions())
	next := CarryIDs(prev, Parse("## A\na\n---\n## B renamed\nb", DefaultOptions()))
	if next[1].ID != prev[1].ID {
		t.Errorf("expected renamed section to keep id %s, got %s", prev[1].ID, next[1].ID)
	}
	again := CarryIDs(next, Parse("## A\na\n---\n## B renamed\nb2", DefaultOptions()))
	if again[1].ID != prev[1].ID {
		t.Errorf("expected carried id to survive another parse, got %s", again[1].ID)
	}
}
