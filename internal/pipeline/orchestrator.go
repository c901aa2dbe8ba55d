package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/reportdoc/internal/config"
	"github.com/dgallion1/reportdoc/internal/generate"
	"github.com/dgallion1/reportdoc/internal/intake"
	"github.com/dgallion1/reportdoc/internal/parser"
)

var (
	ErrQueueFull = errors.New("job queue is full")
	ErrStopped   = errors.New("generation pipeline stopped")
)

const sweepInterval = 5 * time.Minute

// Orchestrator runs generation jobs on a fixed worker pool fed by a bounded
// queue. Identical requests still in flight share one job.
type Orchestrator struct {
	jobs   *JobStore
	queue  chan *Job
	worker *Worker
	log    *slog.Logger
	cfg    config.Config

	submitMu sync.Mutex
	stopped  bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, gen generate.Generator, sessions SessionCreator, parse parser.Options, log *slog.Logger) *Orchestrator {
	in := intake.Intake{PDFFallback: cfg.PDFFallbackPdftotext}
	return &Orchestrator{
		jobs:   NewJobStore(cfg.JobTTL),
		queue:  make(chan *Job, cfg.MaxQueueSize),
		worker: NewWorker(gen, sessions, in, log, parse, cfg.MaxSourceTokens),
		log:    log,
		cfg:    cfg,
	}
}

// Start launches the workers and the expired-job sweeper.
func (o *Orchestrator) Start(ctx context.Context) {
	ctx, o.cancel = context.WithCancel(ctx)
	for range max(o.cfg.WorkerCount, 1) {
		o.wg.Go(func() { o.run(ctx) })
	}
	o.wg.Go(func() { o.sweep(ctx) })
}

func (o *Orchestrator) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-o.queue:
			o.worker.Process(ctx, job)
		}
	}
}

func (o *Orchestrator) sweep(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.jobs.Cleanup()
		}
	}
}

// Stop cancels running jobs and waits for the workers. Jobs still waiting in
// the queue are marked failed so pollers see a final status.
func (o *Orchestrator) Stop() {
	o.submitMu.Lock()
	o.stopped = true
	o.submitMu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()

	for {
		select {
		case job := <-o.queue:
			job.AddError(ErrStopped.Error())
			job.SetStatus(StatusFailed, "shutdown")
		default:
			return
		}
	}
}

// Submit queues job and returns the job that carries the request. When an
// identical request is still in flight, that job is returned and job is
// dropped.
func (o *Orchestrator) Submit(job *Job) (*Job, error) {
	o.submitMu.Lock()
	defer o.submitMu.Unlock()
	if o.stopped {
		return nil, ErrStopped
	}
	if active := o.jobs.Active(job.ContentHash); active != nil {
		o.log.Info("duplicate generation request", "job_id", active.ID, "doc_id", active.DocID)
		return active, nil
	}

	o.jobs.Put(job)
	select {
	case o.queue <- job:
		o.log.Info("job queued", "job_id", job.ID, "doc_id", job.DocID, "files", job.Progress.FilesTotal)
		return job, nil
	default:
		job.AddError(ErrQueueFull.Error())
		job.SetStatus(StatusFailed, "queue_full")
		return job, fmt.Errorf("%w (%d)", ErrQueueFull, o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns the number of jobs waiting for a worker.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}
