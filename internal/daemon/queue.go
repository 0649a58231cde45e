package daemon

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	derrors "github.com/docpress/docpress/internal/errors"
	"github.com/docpress/docpress/internal/logfields"
	"github.com/docpress/docpress/internal/pipeline"
)

// BuildType records what triggered a build job.
type BuildType string

const (
	BuildTypeManual    BuildType = "manual"
	BuildTypeScheduled BuildType = "scheduled"
	BuildTypeWebhook   BuildType = "webhook"
)

// BuildStatus is the lifecycle state of a queued job.
type BuildStatus string

const (
	BuildStatusQueued    BuildStatus = "queued"
	BuildStatusRunning   BuildStatus = "running"
	BuildStatusCompleted BuildStatus = "completed"
	BuildStatusFailed    BuildStatus = "failed"
)

// BuildJob is one unit of work in the queue.
type BuildJob struct {
	ID          string        `json:"id"`
	Type        BuildType     `json:"type"`
	Status      BuildStatus   `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
	Outcome     string        `json:"outcome,omitempty"`
	Error       string        `json:"error,omitempty"`
	Commit      string        `json:"commit,omitempty"`
	Committed   bool          `json:"committed"`
}

// Builder runs one build and reports its result.
type Builder interface {
	Build(ctx context.Context) (*pipeline.Result, error)
}

// BuilderFunc adapts a function to the Builder interface.
type BuilderFunc func(ctx context.Context) (*pipeline.Result, error)

func (f BuilderFunc) Build(ctx context.Context) (*pipeline.Result, error) { return f(ctx) }

// BuildQueue runs queued build jobs on a fixed worker pool and keeps a
// short in-memory history for the admin endpoints.
type BuildQueue struct {
	jobs        chan *BuildJob
	workers     int
	builder     Builder
	historySize int

	mu      sync.RWMutex
	active  map[string]*BuildJob
	history []*BuildJob
	wg      sync.WaitGroup
}

// NewBuildQueue creates a queue with the given capacity and worker count.
func NewBuildQueue(size, workers int, builder Builder) *BuildQueue {
	if size <= 0 {
		size = 100
	}
	if workers <= 0 {
		workers = 1
	}
	return &BuildQueue{
		jobs:        make(chan *BuildJob, size),
		workers:     workers,
		builder:     builder,
		historySize: 50,
		active:      make(map[string]*BuildJob),
	}
}

// Start launches the worker pool. Workers exit when ctx is canceled and
// Wait returns once all of them have drained.
func (q *BuildQueue) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, i)
	}
}

// Wait blocks until every worker has exited.
func (q *BuildQueue) Wait() {
	q.wg.Wait()
}

// Enqueue adds a new job, rejecting it when the queue is full.
func (q *BuildQueue) Enqueue(buildType BuildType) (*BuildJob, error) {
	job := &BuildJob{
		ID:        uuid.NewString(),
		Type:      buildType,
		Status:    BuildStatusQueued,
		CreatedAt: time.Now(),
	}

	select {
	case q.jobs <- job:
		slog.Debug("Build job queued", logfields.BuildID(job.ID), logfields.JobType(string(job.Type)))
		return job, nil
	default:
		return nil, derrors.DaemonError("build queue is full")
	}
}

// Active returns the currently running jobs.
func (q *BuildQueue) Active() []*BuildJob {
	q.mu.RLock()
	defer q.mu.RUnlock()
	jobs := make([]*BuildJob, 0, len(q.active))
	for _, job := range q.active {
		copied := *job
		jobs = append(jobs, &copied)
	}
	return jobs
}

// History returns finished jobs, most recent first.
func (q *BuildQueue) History() []*BuildJob {
	q.mu.RLock()
	defer q.mu.RUnlock()
	jobs := make([]*BuildJob, 0, len(q.history))
	for i := len(q.history) - 1; i >= 0; i-- {
		copied := *q.history[i]
		jobs = append(jobs, &copied)
	}
	return jobs
}

// Busy reports whether any job is currently being processed.
func (q *BuildQueue) Busy() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.active) > 0
}

func (q *BuildQueue) worker(ctx context.Context, id int) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-q.jobs:
			q.process(ctx, job)
		}
	}
}

func (q *BuildQueue) process(ctx context.Context, job *BuildJob) {
	now := time.Now()
	job.Status = BuildStatusRunning
	job.StartedAt = &now

	q.mu.Lock()
	q.active[job.ID] = job
	q.mu.Unlock()

	slog.Info("Build job starting", logfields.BuildID(job.ID), logfields.JobType(string(job.Type)))
	result, err := q.builder.Build(ctx)
	done := time.Now()

	// The job stays reachable through active/history while the admin
	// endpoints copy it, so every field write happens under the lock.
	q.mu.Lock()
	job.CompletedAt = &done
	job.Duration = done.Sub(now)
	if result != nil {
		job.Outcome = string(result.Outcome)
		job.Commit = result.Commit
		job.Committed = result.Committed
	}
	if err != nil {
		job.Status = BuildStatusFailed
		job.Error = err.Error()
	} else {
		job.Status = BuildStatusCompleted
	}
	delete(q.active, job.ID)
	q.history = append(q.history, job)
	if len(q.history) > q.historySize {
		q.history = q.history[len(q.history)-q.historySize:]
	}
	q.mu.Unlock()

	if err != nil {
		slog.Error("Build job failed",
			logfields.BuildID(job.ID),
			logfields.JobStatus(string(BuildStatusFailed)),
			logfields.Error(err))
		return
	}
	slog.Info("Build job completed",
		logfields.BuildID(job.ID),
		logfields.JobStatus(string(BuildStatusCompleted)),
		logfields.DurationMS(float64(done.Sub(now).Milliseconds())))
}
