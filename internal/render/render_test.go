package render

import (
	"strings"
	"testing"
)

func TestHTML(t *testing.T) {
	text := "## Student Information\n**Student Name:** Jane\n\n---\n\n## Accommodations\n1. Extended time\n*Barrier: slow reading*"
	out, err := HTML(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{
		`<h2 id="student-information">Student Information</h2>`,
		"<strong>Student Name:</strong> Jane",
		"<hr>",
		"<em>Barrier: slow reading</em>",
		"<ol>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestHTML_EscapesRawHTML(t *testing.T) {
	out, err := HTML("## A\n<script>alert(1)</script>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(out, "<script>") {
		t.Errorf("expected raw html suppressed, got %s", out)
	}
}

func TestPage(t *testing.T) {
	out, err := Page("Report <Jane>", "## A\nbody")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "<title>Report &lt;Jane&gt;</title>") || !strings.Contains(out, "<h2") {
		t.Errorf("unexpected page:\n%s", out)
	}
}
