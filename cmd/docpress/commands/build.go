package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/docpress/docpress/internal/config"
	"github.com/docpress/docpress/internal/history"
	"github.com/docpress/docpress/internal/metrics"
	"github.com/docpress/docpress/internal/pipeline"
	"github.com/docpress/docpress/internal/workspace"
)

// BuildCmd implements the 'build' command: checkout, docstring extraction,
// rendering, and link verification, but no publishing.
type BuildCmd struct {
	Output string `short:"o" help:"Override the site output directory"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if b.Output != "" {
		cfg.Site.Output = b.Output
	}

	result, err := runPipeline(context.Background(), cfg, func(workDir string) []pipeline.StageCommand {
		return pipeline.BuildStages(cfg, workDir, metrics.NoopRecorder{})
	})
	if err != nil {
		return err
	}

	fmt.Printf("Site built: %d pages in %s\n", result.Pages, cfg.Site.Output)
	if result.Outcome == pipeline.OutcomeWarning {
		fmt.Println("Completed with warnings, see the log for broken links")
	}
	return nil
}

// runPipeline runs the given stages in a fresh workspace and records the
// outcome in the history store when one is configured.
func runPipeline(ctx context.Context, cfg *config.Config, stages func(workDir string) []pipeline.StageCommand) (*pipeline.Result, error) {
	ws, err := workspace.Ephemeral()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := ws.Remove(); err != nil {
			slog.Warn("Failed to clean up workspace", slog.String("reason", err.Error()))
		}
	}()

	startedAt := time.Now()
	p := pipeline.New(cfg, ws.Path(), pipeline.WithStages(stages(ws.Path())...))
	result, err := p.Run(ctx)

	if cfg.History != nil && result != nil {
		if recErr := recordHistory(ctx, cfg, result, startedAt); recErr != nil {
			slog.Warn("Failed to record build history", slog.String("reason", recErr.Error()))
		}
	}
	return result, err
}

func recordHistory(ctx context.Context, cfg *config.Config, result *pipeline.Result, startedAt time.Time) error {
	store, err := history.NewStore(cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.RecordResult(ctx, result, startedAt)
}
