package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.md")
	if err := os.WriteFile(path, []byte("## A\nbody"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := readInput([]string{path})
	if err != nil || got != "## A\nbody" {
		t.Errorf("expected file contents, got %q, %v", got, err)
	}
	if _, err := readInput([]string{filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseOptions(t *testing.T) {
	defer func() { titlePattern = "" }()

	titlePattern = `^Report for`
	opts, err := parseOptions()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !opts.TitlePattern.MatchString("Report for Jane") {
		t.Error("expected custom title pattern")
	}

	titlePattern = "("
	if _, err := parseOptions(); err == nil {
		t.Error("expected error for invalid pattern")
	}
}

func TestRoundtripCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.md")
	text := "# Title\n\n## Summary\nGood.\n\n---\n\n## Next Steps\n1. Meet"
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := roundtrip(roundtripCmd, []string{path}); err != nil {
		t.Errorf("expected clean round trip, got %v", err)
	}
}

func TestClassifier_Rules(t *testing.T) {
	defer func() { rulesPath = "" }()

	rulesPath = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := classifier(); err == nil {
		t.Error("expected error for missing rules file")
	}
	rulesPath = ""
	if c, err := classifier(); err != nil || c == nil {
		t.Errorf("expected default classifier, got %v", err)
	}
}
