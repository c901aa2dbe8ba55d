package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"syscall"
	"time"

	"github.com/dgallion1/reportdoc/internal/api"
	"github.com/dgallion1/reportdoc/internal/classify"
	"github.com/dgallion1/reportdoc/internal/config"
	"github.com/dgallion1/reportdoc/internal/generate"
	"github.com/dgallion1/reportdoc/internal/parser"
	"github.com/dgallion1/reportdoc/internal/pathstore"
	"github.com/dgallion1/reportdoc/internal/pipeline"
	"github.com/dgallion1/reportdoc/internal/report"
	"github.com/dgallion1/reportdoc/internal/session"
	"github.com/dgallion1/reportdoc/internal/store"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	parseOpts, err := parseOptions(cfg)
	if err != nil {
		log.Error("invalid REPORT_TITLE_PATTERN", "error", err)
		os.Exit(1)
	}
	classifier, err := loadClassifier(cfg.ClassifierRules)
	if err != nil {
		log.Error("load classifier rules", "path", cfg.ClassifierRules, "error", err)
		os.Exit(1)
	}

	st, closeStore, err := openStore(cfg, log)
	if err != nil {
		log.Error("open document store", "error", err)
		os.Exit(1)
	}

	sessions := session.NewRegistry(st, cfg.SessionTTL, session.Config{
		Parse: parseOpts,
		Report: report.Options{
			Classifier:          classifier,
			SynthesizeDocuments: true,
		},
		UndoLimit:     cfg.UndoLimit,
		AutoSaveDelay: cfg.AutoSaveDelay,
		Logger:        log,
	})

	// Initialize generation pipeline.
	stats := generate.NewLLMStats(time.Hour)
	gen, model, closeGen := newGenerator(cfg, stats)
	orch := pipeline.NewOrchestrator(cfg, gen, sessions, parseOpts, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(sessions, log, cfg,
		api.WithOrchestrator(orch),
		api.WithLLMStats(stats, model),
	)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		sessions.Close()
		closeGen()
		closeStore()
	}()

	log.Info("starting reportdoc", "port", cfg.Port, "generator", cfg.Generator, "model", model)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

func parseOptions(cfg config.Config) (parser.Options, error) {
	opts := parser.DefaultOptions()
	if cfg.ReportTitlePattern != "" {
		re, err := regexp.Compile(cfg.ReportTitlePattern)
		if err != nil {
			return opts, err
		}
		opts.TitlePattern = re
	}
	return opts, nil
}

func loadClassifier(path string) (*classify.Classifier, error) {
	if path == "" {
		return classify.Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return classify.LoadRules(f)
}

// openStore picks Postgres, then pathstore, then memory.
func openStore(cfg config.Config, log *slog.Logger) (store.Store, func(), error) {
	switch {
	case cfg.DatabaseURL != "":
		pg, err := store.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}
		log.Info("using postgres document store")
		return pg, func() {
			if err := pg.Close(); err != nil {
				log.Warn("close postgres", "error", err)
			}
		}, nil
	case cfg.PathstoreURL != "":
		client := pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey)
		log.Info("using pathstore document store", "url", cfg.PathstoreURL)
		return pathstore.NewStore(client, cfg.PathstorePrefix), client.Close, nil
	default:
		log.Warn("no DATABASE_URL or PATHSTORE_URL, documents are kept in memory only")
		return store.NewMemory(), func() {}, nil
	}
}

func newGenerator(cfg config.Config, stats *generate.LLMStats) (generate.Generator, string, func()) {
	if cfg.Generator == config.GeneratorOpenAI {
		return generate.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, stats), cfg.OpenAIModel, func() {}
	}
	claude := generate.NewClaudeClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, generate.WithStats(stats))
	return claude, cfg.AnthropicModel, claude.Close
}
