package git

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/docpress/docpress/internal/config"
)

func sourceConfig(url string) config.SourceConfig {
	return config.SourceConfig{URL: url, Name: "project", Branch: "main"}
}

func TestCloneSource(t *testing.T) {
	seedDir := filepath.Join(t.TempDir(), "seed")
	repo := initRepoOnBranch(t, seedDir, "main")
	commitFile(t, repo, seedDir, "project/__init__.py", `"""Project package."""`, "add package")

	ws := t.TempDir()
	client := NewClient(ws)
	if err := client.EnsureWorkspace(); err != nil {
		t.Fatalf("EnsureWorkspace: %v", err)
	}

	path, err := client.CloneSource(sourceConfig(seedDir))
	if err != nil {
		t.Fatalf("CloneSource: %v", err)
	}
	if path != filepath.Join(ws, "project") {
		t.Errorf("clone path = %s", path)
	}
	if _, err := os.Stat(filepath.Join(path, "project", "__init__.py")); err != nil {
		t.Errorf("cloned file missing: %v", err)
	}
}

func TestUpdateSourcePullsNewCommits(t *testing.T) {
	seedDir := filepath.Join(t.TempDir(), "seed")
	repo := initRepoOnBranch(t, seedDir, "main")

	ws := t.TempDir()
	client := NewClient(ws)

	// First update falls back to clone.
	path, err := client.UpdateSource(sourceConfig(seedDir))
	if err != nil {
		t.Fatalf("UpdateSource (initial): %v", err)
	}

	// Advance upstream and update again.
	want := commitFile(t, repo, seedDir, "CHANGES.md", "v2", "second commit")
	if _, err := client.UpdateSource(sourceConfig(seedDir)); err != nil {
		t.Fatalf("UpdateSource (pull): %v", err)
	}

	head, err := client.Head(path)
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	if head != want.String() {
		t.Errorf("HEAD = %s, want %s", head, want)
	}

	// Up-to-date pull is not an error.
	if _, err := client.UpdateSource(sourceConfig(seedDir)); err != nil {
		t.Errorf("UpdateSource (up to date): %v", err)
	}
}

func TestCloneSourceMissingRepo(t *testing.T) {
	client := NewClient(t.TempDir())
	if _, err := client.CloneSource(sourceConfig(filepath.Join(t.TempDir(), "nope"))); err == nil {
		t.Fatal("expected clone of missing repository to fail")
	}
}
