package pipeline

import (
	"sync"
	"time"
)

// JobStatus represents the state of a crawl job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusPartial   JobStatus = "partial"
)

// Job tracks one law crawl: fetch every requested section, tokenize it,
// verify the round trip, store the fragments. Failures are isolated per
// section; one malformed record never aborts the batch.
type Job struct {
	mu sync.Mutex

	ID    string `json:"job_id"`
	LawID string `json:"law_id"`
	Scope string `json:"scope,omitempty"`

	// Locations limits the crawl to specific sections. Empty means the
	// whole law, as listed by the upstream API.
	Locations []string `json:"locations,omitempty"`

	// Resume skips sections already recorded in the crawl checkpoint.
	Resume bool `json:"resume,omitempty"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	errors []string
}

// Progress tracks per-section counts for a running job.
type Progress struct {
	SectionsTotal  int      `json:"sections_total"`
	SectionsDone   int      `json:"sections_done"`
	SectionsStored int      `json:"sections_stored"`
	Fragments      int      `json:"fragments"`
	Errors         []string `json:"errors"`
}

// SetStatus updates status and phase atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// SetTotal records how many sections the job covers.
func (j *Job) SetTotal(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.SectionsTotal = n
	j.UpdatedAt = time.Now()
}

// SectionDone records one processed section; stored says whether it made
// it into the database, fragments how many element rows it produced.
func (j *Job) SectionDone(stored bool, fragments int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.SectionsDone++
	if stored {
		j.Progress.SectionsStored++
		j.Progress.Fragments += fragments
	}
	j.UpdatedAt = time.Now()
}

// AddError records a per-section failure.
func (j *Job) AddError(msg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, msg)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// ErrorCount returns how many sections failed so far.
func (j *Job) ErrorCount() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.errors)
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID       string    `json:"job_id"`
	LawID    string    `json:"law_id"`
	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Progress Progress  `json:"progress"`
}

// Snapshot returns a consistent copy for API responses.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:     j.ID,
		LawID:  j.LawID,
		Status: j.Status,
		Phase:  j.Phase,
		Progress: Progress{
			SectionsTotal:  j.Progress.SectionsTotal,
			SectionsDone:   j.Progress.SectionsDone,
			SectionsStored: j.Progress.SectionsStored,
			Fragments:      j.Progress.Fragments,
			Errors:         errs,
		},
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

// Cleanup removes jobs idle past the TTL.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		idle := now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if idle {
			delete(s.jobs, id)
		}
	}
}
