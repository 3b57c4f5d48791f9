package services

import (
	"errors"
	"sync"
	"time"

	"glassdoor-scraper/models"
)

var (
	// ErrJobNotFound is returned for unknown or evicted job ids.
	ErrJobNotFound = errors.New("job not found")
	// ErrJobRunning is returned when a live job id is submitted again.
	ErrJobRunning = errors.New("job is already running")
)

// JobResult carries the final figures of a successful job.
type JobResult struct {
	RecordsFound int
	Dropped      int
	Duplicates   int
	Shortfall    string
	Message      string
	ExportPath   string
	SheetURL     string
	Worksheet    string
}

// JobStore is the job-keyed progress store shared by runners and pollers.
// Every read returns a copy so a snapshot is never torn.
type JobStore struct {
	mu        sync.Mutex
	jobs      map[string]*models.ScrapeJob
	retention time.Duration
	now       func() time.Time
}

// NewJobStore creates a store that evicts terminal jobs older than retention.
// A zero retention keeps jobs for the life of the process.
func NewJobStore(retention time.Duration) *JobStore {
	return &JobStore{
		jobs:      make(map[string]*models.ScrapeJob),
		retention: retention,
		now:       time.Now,
	}
}

// Create registers a pending job, replacing any finished job with the same id.
func (s *JobStore) Create(job models.ScrapeJob) (models.ScrapeJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictLocked()

	if prev, ok := s.jobs[job.ID]; ok && !prev.Status.Terminal() {
		return *prev, ErrJobRunning
	}

	job.Status = models.JobPending
	job.PagesCompleted = 0
	job.RecordsFound = 0
	job.Error = ""
	if job.CreatedAt.IsZero() {
		job.CreatedAt = s.now()
	}
	s.jobs[job.ID] = &job
	return job, nil
}

// Update overwrites the progress fields of a job. The latest write wins.
func (s *JobStore) Update(id string, pagesDone, recordsFound int, status models.JobStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	job.PagesCompleted = pagesDone
	job.RecordsFound = recordsFound
	if status == models.JobRunning && job.StartedAt.IsZero() {
		job.StartedAt = s.now()
	}
	job.Status = status
	return nil
}

// Complete marks a job completed with its final figures.
func (s *JobStore) Complete(id string, res JobResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	job.Status = models.JobCompleted
	job.RecordsFound = res.RecordsFound
	job.Dropped = res.Dropped
	job.Duplicates = res.Duplicates
	job.Shortfall = res.Shortfall
	job.Message = res.Message
	job.ExportPath = res.ExportPath
	job.SheetURL = res.SheetURL
	job.Worksheet = res.Worksheet
	job.FinishedAt = s.now()
	return nil
}

// Fail marks a job failed with a human-readable message.
func (s *JobStore) Fail(id, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	job.Status = models.JobFailed
	job.Error = message
	job.FinishedAt = s.now()
	return nil
}

// Annotate records counters and export details without touching status.
func (s *JobStore) Annotate(id string, fn func(job *models.ScrapeJob)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	fn(job)
	return nil
}

// Read returns a snapshot of the job.
func (s *JobStore) Read(id string) (models.ScrapeJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return models.ScrapeJob{}, ErrJobNotFound
	}
	return *job, nil
}

// Len returns the number of retained jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

func (s *JobStore) evictLocked() {
	if s.retention <= 0 {
		return
	}
	cutoff := s.now().Add(-s.retention)
	for id, job := range s.jobs {
		if job.Status.Terminal() && job.FinishedAt.Before(cutoff) {
			delete(s.jobs, id)
		}
	}
}
