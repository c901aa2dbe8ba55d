package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/reportdoc/internal/doctree"
)

// JobStatus represents the state of a report generation job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusExtracting JobStatus = "extracting"
	StatusGenerating JobStatus = "generating"
	StatusParsing    JobStatus = "parsing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Upload is one file attached to a generation request.
type Upload struct {
	Filename string
	Data     []byte
}

// Job tracks the state of a single report generation.
type Job struct {
	mu sync.Mutex

	ID    string `json:"job_id"`
	DocID string `json:"doc_id"`

	Student      string `json:"student"`
	Instructions string `json:"instructions"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	uploads   []Upload
	documents []doctree.SourceDocument
	errors    []string
}

// Progress tracks processing progress.
type Progress struct {
	FilesTotal     int      `json:"files_total"`
	FilesProcessed int      `json:"files_processed"`
	FilesFailed    int      `json:"files_failed"`
	Attempts       int      `json:"attempts"`
	Sections       int      `json:"sections"`
	Errors         []string `json:"errors"`
}

// NewJob creates a queued job with fresh job and document ids. ContentHash
// identifies the request: the student, the instructions, and every upload.
func NewJob(student, instructions string, uploads []Upload) *Job {
	now := time.Now()
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00", student, instructions)
	for _, u := range uploads {
		fmt.Fprintf(h, "%s\x00%d\x00", u.Filename, len(u.Data))
		h.Write(u.Data)
	}
	return &Job{
		ID:           uuid.New().String(),
		DocID:        uuid.New().String(),
		Student:      student,
		Instructions: instructions,
		Status:       StatusQueued,
		Phase:        "queued",
		Progress:     Progress{FilesTotal: len(uploads)},
		ContentHash:  fmt.Sprintf("%x", h.Sum(nil)),
		CreatedAt:    now,
		UpdatedAt:    now,
		uploads:      uploads,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Active returns an unfinished job with the given content hash, if any.
func (s *JobStore) Active(hash string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, job := range s.jobs {
		if job.ContentHash == hash && !job.Done() {
			return job
		}
	}
	return nil
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.updatedAt()) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

func (j *Job) updatedAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.UpdatedAt
}

// Done reports whether the job reached a final status.
func (j *Job) Done() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// AddDocument records a described upload and counts it as processed or
// failed.
func (j *Job) AddDocument(doc doctree.SourceDocument, failed bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.documents = append(j.documents, doc)
	if failed {
		j.Progress.FilesFailed++
	} else {
		j.Progress.FilesProcessed++
	}
	j.UpdatedAt = time.Now()
}

// IncrAttempts counts a generation call.
func (j *Job) IncrAttempts() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Attempts++
	j.UpdatedAt = time.Now()
}

// SetSections records how many sections the generated report has.
func (j *Job) SetSections(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Sections = n
	j.UpdatedAt = time.Now()
}

// Uploads returns the files attached to the job.
func (j *Job) Uploads() []Upload {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.uploads
}

// Documents returns the source documents described so far.
func (j *Job) Documents() []doctree.SourceDocument {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]doctree.SourceDocument(nil), j.documents...)
}

// releaseUploads drops file bytes once they have been read.
func (j *Job) releaseUploads() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.uploads = nil
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string                   `json:"job_id"`
	DocID     string                   `json:"doc_id"`
	Student   string                   `json:"student,omitempty"`
	Status    JobStatus                `json:"status"`
	Phase     string                   `json:"phase"`
	Progress  Progress                 `json:"progress"`
	Documents []doctree.SourceDocument `json:"documents"`
	CreatedAt time.Time                `json:"created_at"`
	UpdatedAt time.Time                `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.Progress.Errors...)
	docs := append([]doctree.SourceDocument{}, j.documents...)
	p := j.Progress
	p.Errors = errs
	return JobSnapshot{
		ID:        j.ID,
		DocID:     j.DocID,
		Student:   j.Student,
		Status:    j.Status,
		Phase:     j.Phase,
		Progress:  p,
		Documents: docs,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}
