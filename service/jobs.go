package service

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"vizactor/engine"
)

// Job status constants
const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// RunRequest is an incoming workflow run request.
type RunRequest struct {
	ImageURL  string `json:"image_url,omitempty"`
	ImagePath string `json:"image_path,omitempty"`
	Prompt    string `json:"prompt,omitempty"`
	TargetURL string `json:"target_url,omitempty"`
}

// RunJob is one queued workflow run.
type RunJob struct {
	ID          string                 `json:"id"`
	Request     RunRequest             `json:"request"`
	Status      string                 `json:"status"`
	CreatedAt   time.Time              `json:"created_at"`
	StartedAt   *time.Time             `json:"started_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	Result      *engine.WorkflowResult `json:"result,omitempty"`
	Error       string                 `json:"error,omitempty"`
}

// JobStore manages run jobs in memory.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*RunJob
}

func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*RunJob)}
}

func (s *JobStore) Create(req RunRequest) *RunJob {
	s.mu.Lock()
	defer s.mu.Unlock()

	job := &RunJob{
		ID:        uuid.New().String(),
		Request:   req,
		Status:    JobStatusPending,
		CreatedAt: time.Now(),
	}
	s.jobs[job.ID] = job
	cp := *job
	return &cp
}

// Get returns a snapshot of the job. Callers never share the stored struct,
// so concurrent status updates cannot race a reader encoding the job; writes
// go through Update/UpdateStatus/Complete, which lock.
func (s *JobStore) Get(id string) (*RunJob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, false
	}
	cp := *job
	return &cp, true
}

func (s *JobStore) Update(job *RunJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *job
	s.jobs[job.ID] = &cp
}

func (s *JobStore) UpdateStatus(id, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		job.Status = status
		now := time.Now()
		switch status {
		case JobStatusRunning:
			job.StartedAt = &now
		case JobStatusCompleted, JobStatusFailed:
			job.CompletedAt = &now
		}
	}
}

// Complete records a job's terminal state in one locked write.
func (s *JobStore) Complete(id string, result *engine.WorkflowResult, status, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return
	}
	job.Result = result
	job.Status = status
	job.Error = errMsg
	now := time.Now()
	job.CompletedAt = &now
}

// CleanupOld drops jobs that finished before the cutoff.
func (s *JobStore) CleanupOld(maxAge time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	for id, job := range s.jobs {
		if job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(s.jobs, id)
		}
	}
}
