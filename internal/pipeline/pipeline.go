package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/docpress/docpress/internal/config"
	"github.com/docpress/docpress/internal/logfields"
	"github.com/docpress/docpress/internal/metrics"
)

// Outcome classifies a whole build.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeWarning  Outcome = "warning"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// Result is the outcome of one pipeline run.
type Result struct {
	BuildID        string
	Outcome        Outcome
	Err            error
	Duration       time.Duration
	ExecutedStages map[StageName]StageExecution

	// SourceHash is the checked-out source HEAD, empty when checkout failed.
	SourceHash string

	// Publish details, zero when the build failed before publishing.
	Commit    string
	Committed bool
	Pages     int
}

// Pipeline runs the build stages in order with the default middleware
// stack. Execution is fail-fast: the first stage error aborts the build.
type Pipeline struct {
	cfg        *config.Config
	workDir    string
	recorder   metrics.Recorder
	middleware []Middleware
	stages     []StageCommand
}

// Option configures pipeline behavior.
type Option func(*Pipeline)

// WithRecorder injects a metrics recorder. Defaults to NoopRecorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithStages replaces the standard stage list, used by tests and by the
// build command's --skip-publish mode.
func WithStages(stages ...StageCommand) Option {
	return func(p *Pipeline) { p.stages = stages }
}

// New creates a pipeline that builds in workDir and publishes per cfg.
func New(cfg *config.Config, workDir string, options ...Option) *Pipeline {
	p := &Pipeline{
		cfg:      cfg,
		workDir:  workDir,
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range options {
		opt(p)
	}
	if p.stages == nil {
		p.stages = DefaultStages(cfg, workDir, p.recorder)
	}
	p.middleware = DefaultMiddleware(p.recorder)
	return p
}

// DefaultStages returns the standard stage sequence.
func DefaultStages(cfg *config.Config, workDir string, recorder metrics.Recorder) []StageCommand {
	return []StageCommand{
		&checkoutStage{workDir: workDir},
		&apidocStage{workDir: workDir},
		&renderStage{recorder: recorder},
		&linkcheckStage{},
		&publishStage{workDir: workDir, recorder: recorder},
	}
}

// BuildStages returns the stage sequence without the publish step.
func BuildStages(cfg *config.Config, workDir string, recorder metrics.Recorder) []StageCommand {
	stages := DefaultStages(cfg, workDir, recorder)
	return stages[:len(stages)-1]
}

// Run executes all stages and returns the aggregated result. The returned
// error mirrors Result.Err for convenience.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	bs := &BuildState{
		BuildID:   uuid.NewString(),
		Config:    p.cfg,
		StartedAt: time.Now(),
	}

	slog.Info("Build starting",
		logfields.BuildID(bs.BuildID),
		logfields.Repository(p.cfg.Source.URL),
		logfields.Branch(p.cfg.Source.Branch))

	result := &Result{
		BuildID:        bs.BuildID,
		Outcome:        OutcomeSuccess,
		ExecutedStages: make(map[StageName]StageExecution),
	}

	for _, stage := range p.stages {
		execution := Chain(stage, p.middleware...).Execute(ctx, bs)
		result.ExecutedStages[stage.Name()] = execution

		if execution.Err != nil {
			result.Err = execution.Err
			if ctx.Err() != nil {
				result.Outcome = OutcomeCanceled
			} else {
				result.Outcome = OutcomeFailed
			}
			break
		}
		if execution.Warning && result.Outcome == OutcomeSuccess {
			result.Outcome = OutcomeWarning
		}
	}

	result.Duration = time.Since(bs.StartedAt)
	result.SourceHash = bs.SourceHash
	result.Commit = bs.PublishCommit
	result.Committed = bs.Committed
	if bs.Manifest != nil {
		result.Pages = len(bs.Manifest.Pages)
	}

	p.recorder.ObserveBuildDuration(result.Duration)
	p.recorder.IncBuildOutcome(string(result.Outcome))

	logBuildResult(result)
	return result, result.Err
}

func logBuildResult(result *Result) {
	attrs := []slog.Attr{
		logfields.BuildID(result.BuildID),
		logfields.JobStatus(string(result.Outcome)),
		logfields.DurationMS(float64(result.Duration.Milliseconds())),
	}
	if result.Commit != "" {
		attrs = append(attrs, logfields.Commit(result.Commit))
	}
	if result.Err != nil {
		attrs = append(attrs, logfields.Error(result.Err))
		slog.LogAttrs(context.Background(), slog.LevelError, "Build failed", attrs...)
		return
	}
	slog.LogAttrs(context.Background(), slog.LevelInfo, "Build finished", attrs...)
}
