// Package track stores the job applications the assistant manages.
package track

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Status is the lifecycle stage of a tracked job application.
type Status string

const (
	StatusSaved        Status = "saved"
	StatusApplied      Status = "applied"
	StatusInterviewing Status = "interviewing"
	StatusOffer        Status = "offer"
	StatusRejected     Status = "rejected"
)

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusSaved, StatusApplied, StatusInterviewing, StatusOffer, StatusRejected:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown job status %q", s)
}

// Job is one tracked application.
type Job struct {
	ID        string    `json:"id"`
	Company   string    `json:"company"`
	Title     string    `json:"title"`
	Location  string    `json:"location,omitempty"`
	URL       string    `json:"url,omitempty"`
	Status    Status    `json:"status"`
	Notes     string    `json:"notes,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Tracker is the job application store.
type Tracker interface {
	Add(ctx context.Context, job Job) error
	Get(ctx context.Context, id string) (Job, error)
	List(ctx context.Context, status Status) ([]Job, error)
	UpdateStatus(ctx context.Context, id string, status Status, notes string) (Job, error)
}

// ErrNotFound is returned when a job id is unknown.
var ErrNotFound = fmt.Errorf("job not found")

// MemoryTracker is an in-process Tracker, safe for concurrent use.
type MemoryTracker struct {
	mu   sync.RWMutex
	jobs map[string]Job
}

// NewMemoryTracker creates an empty MemoryTracker.
func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{jobs: map[string]Job{}}
}

// Add inserts or replaces a job.
func (t *MemoryTracker) Add(ctx context.Context, job Job) error {
	if job.ID == "" {
		return fmt.Errorf("job id is required")
	}
	if job.Status == "" {
		job.Status = StatusSaved
	}
	if job.UpdatedAt.IsZero() {
		job.UpdatedAt = time.Now()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.jobs[job.ID] = job
	return nil
}

// Get returns the job with the given id.
func (t *MemoryTracker) Get(ctx context.Context, id string) (Job, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	job, ok := t.jobs[id]
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return job, nil
}

// List returns jobs, newest first. Empty status means all.
func (t *MemoryTracker) List(ctx context.Context, status Status) ([]Job, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Job, 0, len(t.jobs))
	for _, job := range t.jobs {
		if status != "" && job.Status != status {
			continue
		}
		out = append(out, job)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// UpdateStatus moves a job to a new status and appends notes.
func (t *MemoryTracker) UpdateStatus(ctx context.Context, id string, status Status, notes string) (Job, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[id]
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	job.Status = status
	if notes != "" {
		if job.Notes != "" {
			job.Notes += "\n"
		}
		job.Notes += notes
	}
	job.UpdatedAt = time.Now()
	t.jobs[id] = job
	return job, nil
}
