package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/reportdoc/internal/doctree"
	"github.com/dgallion1/reportdoc/internal/generate"
	"github.com/dgallion1/reportdoc/internal/intake"
	"github.com/dgallion1/reportdoc/internal/parser"
	"github.com/dgallion1/reportdoc/internal/session"
)

// SessionCreator opens an editing session for a generated report.
type SessionCreator interface {
	Create(ctx context.Context, docID, text string, documents []doctree.SourceDocument) (*session.Session, error)
}

// Worker processes a single generation job.
type Worker struct {
	gen      generate.Generator
	sessions SessionCreator
	intake   intake.Intake
	log      *slog.Logger
	parse    parser.Options

	maxSourceTokens int
	backoff         func(attempt int, err error) time.Duration
}

func NewWorker(gen generate.Generator, sessions SessionCreator, in intake.Intake, log *slog.Logger, parse parser.Options, maxSourceTokens int) *Worker {
	return &Worker{
		gen:             gen,
		sessions:        sessions,
		intake:          in,
		log:             log,
		parse:           parse,
		maxSourceTokens: maxSourceTokens,
		backoff:         Backoff,
	}
}

// Process runs extraction, generation, and session creation for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID)

	// Phase 1: Extract uploaded sources.
	job.SetStatus(StatusExtracting, "extracting")
	uploads := job.Uploads()
	var sources []generate.Source
	for _, u := range uploads {
		doc, text, err := w.intake.Describe(u.Filename, u.Data, job.CreatedAt)
		if err != nil {
			log.Warn("source extraction failed", "filename", u.Filename, "error", err)
			job.AddError(err.Error())
			job.AddDocument(doc, true)
			continue
		}
		job.AddDocument(doc, false)
		sources = append(sources, generate.Source{Name: doc.Name, Text: text})
	}
	job.releaseUploads()

	if len(uploads) > 0 && len(sources) == 0 {
		log.Error("no readable sources")
		job.AddError("no readable source documents")
		job.SetStatus(StatusFailed, "extracting")
		return
	}

	// Phase 2: Generate the report, retrying transient failures.
	job.SetStatus(StatusGenerating, "generating")
	req := generate.Request{
		Student:         job.Student,
		Instructions:    job.Instructions,
		Sources:         sources,
		MaxSourceTokens: w.maxSourceTokens,
	}
	var text string
	var err error
	for attempt := range MaxRetries {
		job.IncrAttempts()
		text, err = w.gen.Generate(ctx, req)
		if err == nil || !IsRetryable(err) {
			break
		}
		log.Warn("retryable generation error", "attempt", attempt, "error", err)
		if attempt == MaxRetries-1 {
			break
		}
		select {
		case <-time.After(w.backoff(attempt, err)):
		case <-ctx.Done():
			err = ctx.Err()
		}
		if ctx.Err() != nil {
			break
		}
	}
	if err != nil {
		log.Error("generation failed", "error", err)
		job.AddError(fmt.Sprintf("generate: %s", err))
		job.SetStatus(StatusFailed, "generating")
		return
	}

	// Phase 3: Parse and open the session.
	job.SetStatus(StatusParsing, "parsing")
	sections := parser.Parse(text, w.parse)
	job.SetSections(len(sections))
	if len(sections) == 0 {
		log.Error("generated report has no sections")
		job.AddError(generate.ErrNoSections.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	if _, err := w.sessions.Create(ctx, job.DocID, text, job.Documents()); err != nil {
		log.Error("create session failed", "error", err)
		job.AddError(fmt.Sprintf("session: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	log.Info("report generated", "sections", len(sections), "sources", len(sources))
	job.SetStatus(StatusCompleted, "done")
}
