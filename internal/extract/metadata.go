package extract

import (
	"strings"

	"github.com/dgallion1/reportdoc/internal/markup"
)

// Field names one metadata value and the bold labels that introduce it.
type Field struct {
	Name   string
	Labels []string
}

// DefaultFields covers the student-information block of assessment reports.
var DefaultFields = []Field{
	{Name: "student_name", Labels: []string{"Student Name", "Student", "Name"}},
	{Name: "grade", Labels: []string{"Grade", "Grade Level"}},
	{Name: "school", Labels: []string{"School", "Campus"}},
	{Name: "date_of_birth", Labels: []string{"Date of Birth", "DOB"}},
	{Name: "assessment_date", Labels: []string{"Assessment Date", "Date of Assessment", "Report Date", "Date"}},
	{Name: "evaluator", Labels: []string{"Evaluator", "Assessed By", "Prepared By"}},
	{Name: "disability", Labels: []string{"Primary Disability", "Disability Category", "Diagnosis"}},
	{Name: "teacher", Labels: []string{"Teacher", "Case Manager"}},
}

// Metadata collects bold-labelled values ("**Grade:** 5") into named fields.
// The first occurrence of a field wins. Fields that never appear, or appear
// with an empty value, are absent from the map.
func Metadata(body string, fields []Field) map[string]string {
	out := make(map[string]string)
	for _, tok := range markup.Tokenize(body) {
		tok = tok.Inner()
		if tok.Kind != markup.BoldLabel || tok.Text == "" {
			continue
		}
		name, ok := matchField(tok.Label, fields)
		if !ok {
			continue
		}
		if _, exists := out[name]; exists {
			continue
		}
		out[name] = tok.Text
	}
	return out
}

func matchField(label string, fields []Field) (string, bool) {
	label = foldLabel(label)
	for _, f := range fields {
		for _, l := range f.Labels {
			if foldLabel(l) == label {
				return f.Name, true
			}
		}
	}
	return "", false
}

func foldLabel(s string) string {
	s = strings.TrimSuffix(strings.TrimSpace(s), ":")
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
