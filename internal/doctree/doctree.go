package doctree

import "time"

// Category is the semantic classification of a section title.
type Category string

const (
	CategoryGeneral          Category = "general"
	CategoryDocuments        Category = "documents"
	CategoryStudentInfo      Category = "student_info"
	CategoryFunctionalImpact Category = "functional_impact"
	CategoryAccommodations   Category = "accommodations"
	CategoryStrengths        Category = "strengths"
	CategoryChallenges       Category = "challenges"
	CategoryRecommendations  Category = "recommendations"
	CategorySummary          Category = "summary"
	CategoryNextSteps        Category = "next_steps"
)

// Document is the navigable form of one report. It is derived from canonical
// text on every parse and never mutated in place.
type Document struct {
	Title    string    `json:"title,omitempty"`
	Sections []Section `json:"sections"`
	Skipped  []string  `json:"skipped,omitempty"` // Titles of meta sections left out of the view
}

// Section is a top-level titled block of the report.
type Section struct {
	ID         string   `json:"id"`    // Stable across re-parses
	Index      int      `json:"index"` // Zero-based position among parsed sections
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Category   Category `json:"category"`
	DisplayKey string   `json:"display_key"`
	Synthetic  bool     `json:"synthetic,omitempty"` // Built from external data, never serialized

	Subsections    []Subsection            `json:"subsections,omitempty"`
	Accommodations []Accommodation         `json:"accommodations,omitempty"`
	Impacts        []FunctionalImpactEntry `json:"impacts,omitempty"`
	Citations      []DocumentCitation      `json:"citations,omitempty"`
	Metadata       map[string]string       `json:"metadata,omitempty"`
}

// Subsection is a titled block nested in a section body.
type Subsection struct {
	Index          int             `json:"index"`
	Title          string          `json:"title"`
	Content        string          `json:"content"`
	Category       string          `json:"category,omitempty"`
	DisplayKey     string          `json:"display_key,omitempty"`
	Accommodations []Accommodation `json:"accommodations,omitempty"`
}

// Accommodation is a recommended support, optionally tied to a barrier.
type Accommodation struct {
	Title   string  `json:"title"`
	Barrier *string `json:"barrier,omitempty"`
}

// FunctionalImpactEntry is one numbered barrier or impact statement.
type FunctionalImpactEntry struct {
	Number      int    `json:"number"`
	Description string `json:"description"`
}

// DocumentCitation names a document the report was based on. Source is set
// when the citation came from the externally supplied document list rather
// than from the report text.
type DocumentCitation struct {
	Name   string          `json:"name"`
	Source *SourceDocument `json:"source,omitempty"`
}

// SourceDocument describes an uploaded file backing a report.
type SourceDocument struct {
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Size       int64     `json:"size"`
	UploadDate time.Time `json:"upload_date"`
	Status     string    `json:"status"`
}
