package commands

import (
	"context"
	"fmt"

	"github.com/docpress/docpress/internal/metrics"
	"github.com/docpress/docpress/internal/pipeline"
)

// PublishCmd implements the 'publish' command: a full build followed by
// commit and push to the configured pages branch.
type PublishCmd struct{}

func (p *PublishCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	result, err := runPipeline(context.Background(), cfg, func(workDir string) []pipeline.StageCommand {
		return pipeline.DefaultStages(cfg, workDir, metrics.NoopRecorder{})
	})
	if err != nil {
		return err
	}

	if result.Committed {
		fmt.Printf("Published %d pages to %s (%s)\n", result.Pages, cfg.Publish.Branch, result.Commit)
	} else {
		fmt.Println("Site unchanged, nothing to publish")
	}
	if result.Outcome == pipeline.OutcomeWarning {
		fmt.Println("Completed with warnings, see the log for broken links")
	}
	return nil
}
