package report

import (
	"path/filepath"
	"strings"

	"github.com/dgallion1/reportdoc/internal/classify"
	"github.com/dgallion1/reportdoc/internal/doctree"
	"github.com/dgallion1/reportdoc/internal/extract"
)

// SyntheticDocumentsID is the id of the generated "Documents Reviewed" section.
const SyntheticDocumentsID = "synthetic-documents"

// Options controls document assembly. Zero-valued fields fall back to the
// package defaults.
type Options struct {
	Title           string
	Classifier      *classify.Classifier
	Fields          []extract.Field
	SubsectionRules []extract.SubsectionRule

	// Documents is the uploaded source list. It backs a documents section
	// whose text names nothing and links cited names to their uploads.
	Documents []doctree.SourceDocument

	// DropUnclassified leaves out sections no rule matched.
	DropUnclassified bool
	// SynthesizeDocuments appends a "Documents Reviewed" section built from
	// Documents when the text has none.
	SynthesizeDocuments bool
}

// Build classifies parsed sections and attaches the entities each category
// carries. Meta sections are listed in Skipped instead of Sections. The input
// slice is not modified.
func Build(sections []doctree.Section, opts Options) *doctree.Document {
	if opts.Classifier == nil {
		opts.Classifier = classify.Default()
	}
	if opts.Fields == nil {
		opts.Fields = extract.DefaultFields
	}
	if opts.SubsectionRules == nil {
		opts.SubsectionRules = extract.DefaultSubsectionRules
	}

	doc := &doctree.Document{
		Title:    opts.Title,
		Sections: make([]doctree.Section, 0, len(sections)),
	}
	hasDocuments := false
	for _, s := range sections {
		res, ok := opts.Classifier.Classify(s.Title)
		if !ok {
			doc.Skipped = append(doc.Skipped, s.Title)
			continue
		}
		if !res.Matched && opts.DropUnclassified {
			continue
		}
		s.Category = res.Category
		s.DisplayKey = res.DisplayKey
		enrich(&s, opts)
		if s.Category == doctree.CategoryDocuments {
			hasDocuments = true
		}
		doc.Sections = append(doc.Sections, s)
	}

	if opts.SynthesizeDocuments && !hasDocuments && len(opts.Documents) > 0 {
		doc.Sections = append(doc.Sections, documentsSection(opts))
	}
	return doc
}

func enrich(s *doctree.Section, opts Options) {
	switch s.Category {
	case doctree.CategoryStudentInfo:
		s.Metadata = extract.Metadata(s.Content, opts.Fields)
		s.Citations = linkSources(extract.Citations(s.Content), opts.Documents)
	case doctree.CategoryDocuments:
		s.Citations = linkSources(extract.CitationList(s.Content), opts.Documents)
		if len(s.Citations) == 0 {
			s.Citations = fromSources(opts.Documents)
		}
	case doctree.CategoryFunctionalImpact, doctree.CategoryChallenges:
		s.Impacts = extract.FunctionalImpacts(s.Content)
	case doctree.CategoryAccommodations:
		subs := extract.Subsections(s.Content, opts.SubsectionRules)
		for i := range subs {
			subs[i].Accommodations = extract.Accommodations(subs[i].Content)
		}
		s.Subsections = subs
		if len(subs) == 0 {
			s.Accommodations = extract.Accommodations(s.Content)
		}
	}
}

func documentsSection(opts Options) doctree.Section {
	var b strings.Builder
	for i, d := range opts.Documents {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(d.Name)
	}
	res, _ := opts.Classifier.Classify("Documents Reviewed")
	return doctree.Section{
		ID:         SyntheticDocumentsID,
		Index:      -1,
		Title:      "Documents Reviewed",
		Content:    b.String(),
		Category:   doctree.CategoryDocuments,
		DisplayKey: res.DisplayKey,
		Synthetic:  true,
		Citations:  fromSources(opts.Documents),
	}
}

func fromSources(docs []doctree.SourceDocument) []doctree.DocumentCitation {
	if len(docs) == 0 {
		return nil
	}
	out := make([]doctree.DocumentCitation, len(docs))
	for i := range docs {
		d := docs[i]
		out[i] = doctree.DocumentCitation{Name: d.Name, Source: &d}
	}
	return out
}

// linkSources points citations at the upload they name, matching file names
// with or without extension.
func linkSources(cites []doctree.DocumentCitation, docs []doctree.SourceDocument) []doctree.DocumentCitation {
	if len(docs) == 0 {
		return cites
	}
	for i := range cites {
		name := strings.ToLower(cites[i].Name)
		for j := range docs {
			full := strings.ToLower(docs[j].Name)
			stem := strings.TrimSuffix(full, filepath.Ext(full))
			if name == full || name == stem {
				d := docs[j]
				cites[i].Source = &d
				break
			}
		}
	}
	return cites
}

// Placeholder substitutes "Not provided" for an empty metadata value.
func Placeholder(value string) string {
	if strings.TrimSpace(value) == "" {
		return "Not provided"
	}
	return value
}
