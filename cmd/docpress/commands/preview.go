package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/docpress/docpress/internal/preview"
)

// PreviewCmd implements the 'preview' command.
type PreviewCmd struct {
	Source string `short:"s" help:"Local source checkout to document" default:"."`
	Port   int    `short:"p" help:"HTTP port for the preview server" default:"8080"`
}

func (p *PreviewCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Preview on http://localhost:%d (watching %s)\n", p.Port, p.Source)
	return preview.NewServer(cfg, p.Source, p.Port).Run(ctx)
}
