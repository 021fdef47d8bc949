// Package service exposes workflow runs as asynchronous HTTP jobs. Browser
// runs take minutes, so the API hands back a job id immediately and workers
// drain the queue.
package service

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"vizactor/actor"
	"vizactor/config"
	"vizactor/engine"
)

// RunFunc executes one workflow run. Swappable for tests.
type RunFunc func(ctx context.Context, runID string, cfg *config.Config, deps actor.Deps) (*engine.WorkflowResult, error)

// Service queues and executes workflow runs.
type Service struct {
	store    *JobStore
	cfg      *config.Config
	deps     actor.Deps
	run      RunFunc
	log      engine.Logger
	jobQueue chan string
	workers  int
}

func New(cfg *config.Config, deps actor.Deps) *Service {
	log := deps.Log
	if log == nil {
		log = &engine.SimpleLogger{}
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	return &Service{
		store:    NewJobStore(),
		cfg:      cfg,
		deps:     deps,
		run:      actor.Run,
		log:      log,
		jobQueue: make(chan string, 100),
		workers:  workers,
	}
}

// Start launches the worker and cleanup goroutines.
func (s *Service) Start(ctx context.Context) {
	for i := 0; i < s.workers; i++ {
		go s.worker(ctx, i)
	}
	go s.cleanupWorker(ctx)
	s.log.Printf("✅ Started %d run workers", s.workers)
}

func (s *Service) worker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		case jobID := <-s.jobQueue:
			s.process(ctx, id, jobID)
		}
	}
}

func (s *Service) process(ctx context.Context, workerID int, jobID string) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorf("worker %d PANIC on job %s: %v", workerID, jobID, r)
			s.store.UpdateStatus(jobID, JobStatusFailed)
		}
	}()

	job, ok := s.store.Get(jobID)
	if !ok {
		s.log.Printf("⚠️  Worker %d: job %s not found", workerID, jobID)
		return
	}

	s.log.Printf("🔧 Worker %d: processing job %s", workerID, jobID)
	s.store.UpdateStatus(jobID, JobStatusRunning)

	cfg := s.jobConfig(job.Request)
	result, err := s.run(ctx, jobID, cfg, s.deps)
	switch {
	case err != nil:
		s.log.Errorf("worker %d: job %s failed: %v", workerID, jobID, err)
		s.store.Complete(jobID, result, JobStatusFailed, err.Error())
	case result != nil && result.Status == engine.StatusSuccess:
		s.log.Printf("✅ Worker %d: job %s completed", workerID, jobID)
		s.store.Complete(jobID, result, JobStatusCompleted, "")
	default:
		s.store.Complete(jobID, result, JobStatusFailed, "no artifact captured")
	}
}

// jobConfig overlays per-request fields on the service configuration.
func (s *Service) jobConfig(req RunRequest) *config.Config {
	cfg := *s.cfg
	if req.ImageURL != "" {
		cfg.ImageURL = req.ImageURL
	}
	if req.ImagePath != "" {
		cfg.ImagePath = req.ImagePath
	}
	if req.Prompt != "" {
		cfg.Prompt = req.Prompt
	}
	if req.TargetURL != "" {
		cfg.TargetURL = req.TargetURL
	}
	return &cfg
}

func (s *Service) cleanupWorker(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.store.CleanupOld(30 * time.Minute)
		}
	}
}

// Router builds the REST surface.
func (s *Service) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	r.HandleFunc("/runs", s.handleStartRun).Methods("POST")
	r.HandleFunc("/runs/{id}", s.handleGetRun).Methods("GET")
	return r
}

func (s *Service) handleStartRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err.Error() != "EOF" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
	}

	job := s.store.Create(req)
	select {
	case s.jobQueue <- job.ID:
	default:
		http.Error(w, "queue full", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(job)
}

func (s *Service) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	job, ok := s.store.Get(id)
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(job)
}
