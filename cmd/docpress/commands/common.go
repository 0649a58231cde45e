// Package commands wires the docpress CLI: one-shot builds and publishes,
// continuous daemon mode, local preview, and build history inspection.
package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/docpress/docpress/internal/config"
)

// Global carries state shared across subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI is the root command definition with global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"docpress.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Build the documentation site without publishing"`
	Publish PublishCmd `cmd:"" help:"Build the documentation site and push it to the pages branch"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
	Daemon  DaemonCmd  `cmd:"" help:"Run continuously: webhooks and schedules trigger publishes"`
	Preview PreviewCmd `cmd:"" help:"Serve docs from a local checkout and rebuild on change"`
	History HistoryCmd `cmd:"" help:"Show recorded build outcomes"`
}

// AfterApply runs after flag parsing; sets up logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// loadConfig loads and validates the configured file.
func loadConfig(root *CLI) (*config.Config, error) {
	return config.Load(root.Config)
}
