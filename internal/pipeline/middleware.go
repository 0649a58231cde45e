package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/docpress/docpress/internal/logfields"
	"github.com/docpress/docpress/internal/metrics"
)

// StageCommand represents a single build stage.
type StageCommand interface {
	Name() StageName
	Description() string
	Execute(ctx context.Context, bs *BuildState) StageExecution
}

// Middleware wraps a stage command with a cross-cutting concern.
type Middleware func(StageCommand) StageCommand

// Chain applies middleware to a command so the first listed wraps outermost.
func Chain(cmd StageCommand, middlewares ...Middleware) StageCommand {
	for i := len(middlewares) - 1; i >= 0; i-- {
		cmd = middlewares[i](cmd)
	}
	return cmd
}

// wrappedCommand delegates metadata to the wrapped command and swaps out
// only the execution.
type wrappedCommand struct {
	wrapped StageCommand
	execute func(ctx context.Context, bs *BuildState) StageExecution
}

func (w *wrappedCommand) Name() StageName     { return w.wrapped.Name() }
func (w *wrappedCommand) Description() string { return w.wrapped.Description() }
func (w *wrappedCommand) Execute(ctx context.Context, bs *BuildState) StageExecution {
	return w.execute(ctx, bs)
}

// ContextMiddleware fails a stage immediately when the build is canceled.
func ContextMiddleware() Middleware {
	return func(cmd StageCommand) StageCommand {
		return &wrappedCommand{wrapped: cmd, execute: func(ctx context.Context, bs *BuildState) StageExecution {
			select {
			case <-ctx.Done():
				return ExecutionFailure(ctx.Err())
			default:
				return cmd.Execute(ctx, bs)
			}
		}}
	}
}

// LoggingMiddleware logs stage start and completion with the build id.
func LoggingMiddleware() Middleware {
	return func(cmd StageCommand) StageCommand {
		return &wrappedCommand{wrapped: cmd, execute: func(ctx context.Context, bs *BuildState) StageExecution {
			slog.Debug("Stage starting", logfields.BuildID(bs.BuildID), logfields.Stage(string(cmd.Name())))
			result := cmd.Execute(ctx, bs)
			switch {
			case result.Err != nil:
				slog.Error("Stage failed",
					logfields.BuildID(bs.BuildID),
					logfields.Stage(string(cmd.Name())),
					logfields.Error(result.Err))
			case result.Warning:
				slog.Warn("Stage completed with findings",
					logfields.BuildID(bs.BuildID),
					logfields.Stage(string(cmd.Name())))
			default:
				slog.Debug("Stage completed",
					logfields.BuildID(bs.BuildID),
					logfields.Stage(string(cmd.Name())))
			}
			return result
		}}
	}
}

// TimingMiddleware stamps the execution with its wall-clock duration.
func TimingMiddleware() Middleware {
	return func(cmd StageCommand) StageCommand {
		return &wrappedCommand{wrapped: cmd, execute: func(ctx context.Context, bs *BuildState) StageExecution {
			start := time.Now()
			result := cmd.Execute(ctx, bs)
			result.Duration = time.Since(start)
			return result
		}}
	}
}

// MetricsMiddleware records per-stage duration and result counters.
func MetricsMiddleware(recorder metrics.Recorder) Middleware {
	return func(cmd StageCommand) StageCommand {
		return &wrappedCommand{wrapped: cmd, execute: func(ctx context.Context, bs *BuildState) StageExecution {
			result := cmd.Execute(ctx, bs)
			stage := string(cmd.Name())
			recorder.ObserveStageDuration(stage, result.Duration)
			switch {
			case result.Err != nil && ctx.Err() != nil:
				recorder.IncStageResult(stage, metrics.ResultCanceled)
			case result.Err != nil:
				recorder.IncStageResult(stage, metrics.ResultFatal)
			case result.Warning:
				recorder.IncStageResult(stage, metrics.ResultWarning)
			default:
				recorder.IncStageResult(stage, metrics.ResultSuccess)
			}
			return result
		}}
	}
}

// DefaultMiddleware is the standard stack: cancellation check outermost,
// then logging, then metrics, with timing innermost so the metrics layer
// sees the measured duration.
func DefaultMiddleware(recorder metrics.Recorder) []Middleware {
	return []Middleware{
		ContextMiddleware(),
		LoggingMiddleware(),
		MetricsMiddleware(recorder),
		TimingMiddleware(),
	}
}
