package generate

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dgallion1/reportdoc/internal/parser"
)

// Generator produces report text in the section grammar from source
// material.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Source is one uploaded document's extracted text.
type Source struct {
	Name string
	Text string
}

// Request describes the report to generate.
type Request struct {
	Student      string
	Instructions string
	Sources      []Source
	// MaxSourceTokens caps the estimated tokens of all source text in the
	// prompt. Zero uses DefaultSourceBudget.
	MaxSourceTokens int
}

// ErrNoSections is returned when generated text contains no parseable section.
var ErrNoSections = errors.New("generated text has no sections")

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
	// RetryAfter is the provider's requested wait, zero when not given.
	RetryAfter time.Duration
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// Clean strips a wrapping code fence and checks that text yields at least one
// section.
func Clean(text string, opts parser.Options) (string, error) {
	text = stripCodeBlock(text)
	if len(parser.Parse(text, opts)) == 0 {
		return "", fmt.Errorf("%w (raw: %s)", ErrNoSections, truncate(text, 200))
	}
	return text, nil
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:markdown|md)?\\s*(.*?)\\s*```$")

func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
