package report

import (
	"testing"
	"time"

	"github.com/dgallion1/reportdoc/internal/doctree"
	"github.com/dgallion1/reportdoc/internal/parser"
)

const sample = `# Assessment Report

## Student Information
**Student Name:** Jane Doe
**Grade:** 5
**Documents Reviewed:**
- IEP
- Teacher Report

---

## Functional Impact
1. Reading fluency
2. Written expression

---

## Recommended Accommodations
**Academic Accommodations**
**Extended Time**
*Barrier: slow processing speed*

**Testing Accommodations**
**Separate Setting**

---

## Teacher Cheat Sheet
Short list.

---

## Miscellaneous
Notes.`

func TestBuild(t *testing.T) {
	sections := parser.Parse(sample, parser.DefaultOptions())
	if len(sections) != 5 {
		t.Fatalf("expected 5 parsed sections, got %d", len(sections))
	}

	doc := Build(sections, Options{Title: "Assessment Report"})
	if len(doc.Sections) != 4 {
		t.Fatalf("expected 4 sections, got %d", len(doc.Sections))
	}
	if len(doc.Skipped) != 1 || doc.Skipped[0] != "Teacher Cheat Sheet" {
		t.Errorf("expected cheat sheet skipped, got %v", doc.Skipped)
	}

	info := doc.Sections[0]
	if info.Category != doctree.CategoryStudentInfo {
		t.Fatalf("expected student_info, got %s", info.Category)
	}
	if info.Metadata["student_name"] != "Jane Doe" || info.Metadata["grade"] != "5" {
		t.Errorf("unexpected metadata: %v", info.Metadata)
	}
	if len(info.Citations) != 2 {
		t.Errorf("expected 2 citations, got %+v", info.Citations)
	}

	impact := doc.Sections[1]
	if len(impact.Impacts) != 2 || impact.Impacts[1].Description != "Written expression" {
		t.Errorf("unexpected impacts: %+v", impact.Impacts)
	}

	acc := doc.Sections[2]
	if acc.Category != doctree.CategoryAccommodations {
		t.Fatalf("expected accommodations, got %s", acc.Category)
	}
	if len(acc.Subsections) != 2 {
		t.Fatalf("expected 2 subsections, got %+v", acc.Subsections)
	}
	if got := acc.Subsections[0].Accommodations; len(got) != 1 || got[0].Barrier == nil {
		t.Errorf("expected extended time with barrier, got %+v", got)
	}
	if got := acc.Subsections[1].Accommodations; len(got) != 1 || got[0].Barrier != nil {
		t.Errorf("expected separate setting without barrier, got %+v", got)
	}
	if len(acc.Accommodations) != 0 {
		t.Errorf("expected no section-level accommodations when subsections exist")
	}

	misc := doc.Sections[3]
	if misc.Category != doctree.CategoryGeneral || misc.Index != 4 {
		t.Errorf("expected general section at parser index 4, got %+v", misc)
	}
}

func TestBuild_DropUnclassified(t *testing.T) {
	sections := parser.Parse(sample, parser.DefaultOptions())
	doc := Build(sections, Options{DropUnclassified: true})
	for _, s := range doc.Sections {
		if s.Category == doctree.CategoryGeneral {
			t.Errorf("expected unclassified section %q to be dropped", s.Title)
		}
	}
}

func TestBuild_DoesNotMutateInput(t *testing.T) {
	sections := parser.Parse(sample, parser.DefaultOptions())
	Build(sections, Options{})
	for _, s := range sections {
		if s.Category != "" || s.Metadata != nil {
			t.Fatalf("expected input untouched, got %+v", s)
		}
	}
}

func TestBuild_DocumentsFallback(t *testing.T) {
	uploads := []doctree.SourceDocument{
		{Name: "iep.pdf", Type: "pdf", Size: 10, UploadDate: time.Unix(0, 0), Status: "processed"},
	}
	sections := parser.Parse("## Documents Reviewed\nSee attached.", parser.DefaultOptions())
	doc := Build(sections, Options{Documents: uploads})
	cites := doc.Sections[0].Citations
	if len(cites) != 1 || cites[0].Name != "iep.pdf" || cites[0].Source == nil {
		t.Errorf("expected fallback citation from uploads, got %+v", cites)
	}
}

func TestBuild_LinksCitedUploads(t *testing.T) {
	uploads := []doctree.SourceDocument{{Name: "IEP.pdf", Type: "pdf"}}
	sections := parser.Parse("## Documents Reviewed\n- iep\n- Interview", parser.DefaultOptions())
	cites := Build(sections, Options{Documents: uploads}).Sections[0].Citations
	if len(cites) != 2 {
		t.Fatalf("expected 2 citations, got %+v", cites)
	}
	if cites[0].Source == nil || cites[0].Source.Name != "IEP.pdf" {
		t.Errorf("expected iep linked to upload, got %+v", cites[0])
	}
	if cites[1].Source != nil {
		t.Errorf("expected interview unlinked, got %+v", cites[1])
	}
}

func TestBuild_SynthesizeDocuments(t *testing.T) {
	uploads := []doctree.SourceDocument{{Name: "a.pdf"}, {Name: "b.docx"}}
	sections := parser.Parse("## Summary\nText.", parser.DefaultOptions())

	doc := Build(sections, Options{Documents: uploads})
	if len(doc.Sections) != 1 {
		t.Fatalf("expected no synthetic section without the flag, got %d", len(doc.Sections))
	}

	doc = Build(sections, Options{Documents: uploads, SynthesizeDocuments: true})
	if len(doc.Sections) != 2 {
		t.Fatalf("expected synthetic section, got %d", len(doc.Sections))
	}
	syn := doc.Sections[1]
	if !syn.Synthetic || syn.ID != SyntheticDocumentsID || len(syn.Citations) != 2 {
		t.Errorf("unexpected synthetic section: %+v", syn)
	}
	if syn.Content != "- a.pdf\n- b.docx" {
		t.Errorf("unexpected synthetic content: %q", syn.Content)
	}
	if out := parser.Serialize(doc.Sections, parser.Options{}); out != "## Summary\n\nText." {
		t.Errorf("expected synthetic section left out of serialization, got %q", out)
	}
}

func TestBuild_AccommodationsWithoutSubsections(t *testing.T) {
	sections := parser.Parse("## Accommodations\n1. Breaks\n   Barrier: fatigue", parser.DefaultOptions())
	s := Build(sections, Options{}).Sections[0]
	if len(s.Subsections) != 0 || len(s.Accommodations) != 1 {
		t.Fatalf("expected section-level accommodation, got %+v", s)
	}
	if *s.Accommodations[0].Barrier != "Barrier: fatigue" {
		t.Errorf("unexpected barrier %q", *s.Accommodations[0].Barrier)
	}
}

func TestPlaceholder(t *testing.T) {
	if got := Placeholder(""); got != "Not provided" {
		t.Errorf("expected placeholder, got %q", got)
	}
	if got := Placeholder("  "); got != "Not provided" {
		t.Errorf("expected placeholder for blank, got %q", got)
	}
	if got := Placeholder("5"); got != "5" {
		t.Errorf("expected value, got %q", got)
	}
}
