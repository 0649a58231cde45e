package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/docpress/docpress/internal/config"
	"github.com/docpress/docpress/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit   int    `short:"n" help:"Number of builds to show" default:"20"`
	BuildID string `help:"Show one build by id"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	path := config.DefaultHistoryPath
	if cfg.History != nil && cfg.History.Path != "" {
		path = cfg.History.Path
	}

	store, err := history.NewStore(path)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	if h.BuildID != "" {
		entry, err := store.GetByBuildID(ctx, h.BuildID)
		if err != nil {
			return err
		}
		printEntries([]history.Entry{*entry})
		return nil
	}

	entries, err := store.Recent(ctx, h.Limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No builds recorded")
		return nil
	}
	printEntries(entries)
	return nil
}

func printEntries(entries []history.Entry) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tBUILD\tOUTCOME\tPAGES\tCOMMIT\tDURATION")
	for _, e := range entries {
		commit := e.Commit
		if len(commit) > 8 {
			commit = commit[:8]
		}
		if !e.Committed {
			commit = "(no-op)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			e.StartedAt.Format("2006-01-02 15:04:05"),
			shortID(e.BuildID), e.Outcome, e.Pages, commit, e.Duration.Round(time.Millisecond))
	}
	_ = w.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
