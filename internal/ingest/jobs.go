package ingest

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// JobStatus is the lifecycle state of a background ingestion job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Job tracks one background ingestion request.
type Job struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Status    JobStatus `json:"status"`
	Message   string    `json:"message,omitempty"`
	Documents int       `json:"documents"`
	Chunks    int       `json:"chunks"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Registry tracks ingestion jobs in memory and optionally publishes
// lifecycle events to NATS.
//
// Events are published to subjects:
//
//	ingest.jobs.{job_id}.started
//	ingest.jobs.{job_id}.succeeded
//	ingest.jobs.{job_id}.failed
//
// Finished jobs are removed from memory after the TTL so the registry does
// not grow indefinitely.
type Registry struct {
	nats   *nats.Conn // nil disables event publishing
	logger *zap.Logger
	ttl    time.Duration

	mu   sync.Mutex
	jobs sync.Map // job_id -> *Job
}

// NewRegistry creates a job registry. nc may be nil to disable event
// publishing.
func NewRegistry(nc *nats.Conn, ttl time.Duration, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl == 0 {
		ttl = time.Hour
	}
	return &Registry{
		nats:   nc,
		logger: logger,
		ttl:    ttl,
	}
}

// Create registers a new pending job for url and returns it.
func (r *Registry) Create(url string) Job {
	now := time.Now()
	job := &Job{
		ID:        uuid.New().String(),
		URL:       url,
		Status:    JobPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.jobs.Store(job.ID, job)
	return *job
}

// Started marks the job as running and publishes the started event.
func (r *Registry) Started(jobID string) {
	r.update(jobID, "started", func(j *Job) {
		j.Status = JobRunning
	})
}

// Succeeded marks the job as succeeded with its result counts, publishes
// the succeeded event, and schedules cleanup.
func (r *Registry) Succeeded(jobID string, documents, chunks int) {
	r.update(jobID, "succeeded", func(j *Job) {
		j.Status = JobSucceeded
		j.Documents = documents
		j.Chunks = chunks
		j.Message = fmt.Sprintf("indexed %d chunks from %d documents", chunks, documents)
	})
	go r.scheduleCleanup(jobID)
}

// Failed marks the job as failed with the error message, publishes the
// failed event, and schedules cleanup.
func (r *Registry) Failed(jobID string, err error) {
	r.update(jobID, "failed", func(j *Job) {
		j.Status = JobFailed
		j.Message = err.Error()
	})
	go r.scheduleCleanup(jobID)
}

// Get retrieves a snapshot of a job by ID.
func (r *Registry) Get(jobID string) (Job, bool) {
	value, ok := r.jobs.Load(jobID)
	if !ok {
		return Job{}, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return *value.(*Job), true
}

// update applies mutate under the lock and publishes the lifecycle event.
func (r *Registry) update(jobID, event string, mutate func(*Job)) {
	value, ok := r.jobs.Load(jobID)
	if !ok {
		r.logger.Warn("job not found", zap.String("job_id", jobID), zap.String("event", event))
		return
	}
	job := value.(*Job)

	r.mu.Lock()
	mutate(job)
	job.UpdatedAt = time.Now()
	snapshot := *job
	r.mu.Unlock()

	r.publish(snapshot, event)
}

// publish sends the job state to NATS. Publishing is best-effort: a broker
// outage must not affect job execution.
func (r *Registry) publish(job Job, event string) {
	if r.nats == nil {
		return
	}

	subject := fmt.Sprintf("ingest.jobs.%s.%s", job.ID, event)
	data, err := json.Marshal(job)
	if err != nil {
		r.logger.Warn("marshal job event", zap.String("job_id", job.ID), zap.Error(err))
		return
	}
	if err := r.nats.Publish(subject, data); err != nil {
		r.logger.Warn("publish job event",
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
}

// scheduleCleanup removes a finished job from memory after the TTL.
func (r *Registry) scheduleCleanup(jobID string) {
	time.Sleep(r.ttl)
	r.jobs.Delete(jobID)
}
