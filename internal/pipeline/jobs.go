package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/docintel/internal/report"
)

// JobStatus represents the state of an analysis job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusPartial   JobStatus = "partial"
	StatusFailed    JobStatus = "failed"
)

// Done reports whether the job has reached a terminal state.
func (s JobStatus) Done() bool {
	return s == StatusCompleted || s == StatusPartial || s == StatusFailed
}

// Job tracks one asynchronous persona-analysis batch.
type Job struct {
	mu sync.Mutex

	ID      string
	Persona string
	Task    string

	Status    JobStatus
	Phase     string
	Documents []string
	Progress  Progress

	CreatedAt time.Time
	UpdatedAt time.Time

	// Internal: not serialized.
	request Request
	result  *report.Analysis
	docs    []DocResult
	errors  []string
}

// Progress tracks how many documents have finished.
type Progress struct {
	TotalDocs     int      `json:"total_docs"`
	DocsProcessed int      `json:"docs_processed"`
	DocsRanked    int      `json:"docs_ranked"`
	DocsDropped   int      `json:"docs_dropped"`
	Errors        []string `json:"errors"`
}

// NewJob wraps a request in a queued job with a fresh ID.
func NewJob(req Request) *Job {
	now := time.Now()
	names := make([]string, len(req.Documents))
	for i, d := range req.Documents {
		names[i] = d.Name
	}
	return &Job{
		ID:        uuid.NewString(),
		Persona:   req.Persona,
		Task:      req.Job,
		Status:    StatusQueued,
		Phase:     "queued",
		Documents: names,
		Progress:  Progress{TotalDocs: len(names)},
		CreatedAt: now,
		UpdatedAt: now,
		request:   req,
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

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes finished jobs older than the TTL.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := job.Status.Done() && now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
		}
	}
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

// RecordDocument counts a finished document.
func (j *Job) RecordDocument(r DocResult) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.DocsProcessed++
	if r.Status == DocRanked {
		j.Progress.DocsRanked++
	} else {
		j.Progress.DocsDropped++
	}
	j.UpdatedAt = time.Now()
}

// SetResult stores the batch outcome and releases the input bytes.
func (j *Job) SetResult(res *Result) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = &res.Analysis
	j.docs = res.Documents
	j.request.Documents = nil
	j.UpdatedAt = time.Now()
}

// Result returns the analysis once the job has produced one.
func (j *Job) Result() (*report.Analysis, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result, j.result != nil
}

func (j *Job) takeRequest() Request {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.request
}

func (j *Job) releaseRequest() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.request.Documents = nil
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string      `json:"job_id"`
	Status      JobStatus   `json:"status"`
	Phase       string      `json:"phase"`
	Persona     string      `json:"persona"`
	JobToBeDone string      `json:"job_to_be_done"`
	Documents   []string    `json:"documents"`
	Progress    Progress    `json:"progress"`
	Results     []DocResult `json:"document_results,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := make([]string, len(j.Progress.Errors))
	copy(errs, j.Progress.Errors)
	p := j.Progress
	p.Errors = errs
	return JobSnapshot{
		ID:          j.ID,
		Status:      j.Status,
		Phase:       j.Phase,
		Persona:     j.Persona,
		JobToBeDone: j.Task,
		Documents:   append([]string(nil), j.Documents...),
		Progress:    p,
		Results:     append([]DocResult(nil), j.docs...),
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
