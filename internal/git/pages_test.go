package git

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/docpress/docpress/internal/config"
)

// initRepoOnBranch creates a local repository whose default branch is name,
// with one initial commit.
func initRepoOnBranch(t *testing.T, dir, branch string) *gogit.Repository {
	t.Helper()
	repo, err := gogit.PlainInitWithOptions(dir, &gogit.PlainInitOptions{
		InitOptions: gogit.InitOptions{
			DefaultBranch: plumbing.ReferenceName("refs/heads/" + branch),
		},
	})
	if err != nil {
		t.Fatalf("init repo: %v", err)
	}
	commitFile(t, repo, dir, "README.md", "seed", "initial commit")
	return repo
}

func commitFile(t *testing.T, repo *gogit.Repository, dir, name, content, msg string) plumbing.Hash {
	t.Helper()
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}
	full := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	if _, err := wt.Add(name); err != nil {
		t.Fatalf("add %s: %v", name, err)
	}
	hash, err := wt.Commit(msg, &gogit.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "t@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	return hash
}

// bareCloneFrom creates a bare clone that acts as the push target remote.
func bareCloneFrom(t *testing.T, srcDir, branch string) string {
	t.Helper()
	bareDir := filepath.Join(t.TempDir(), "upstream.git")
	_, err := gogit.PlainClone(bareDir, true, &gogit.CloneOptions{
		URL:           srcDir,
		ReferenceName: plumbing.ReferenceName("refs/heads/" + branch),
		SingleBranch:  true,
	})
	if err != nil {
		t.Fatalf("bare clone: %v", err)
	}
	return bareDir
}

func pagesConfig(url string) config.PublishConfig {
	return config.PublishConfig{
		URL:         url,
		Branch:      "gh-pages",
		Subdir:      "docs",
		AuthorName:  "GitHub Action",
		AuthorEmail: "action@github.com",
		Retry:       config.RetryConfig{Backoff: config.RetryBackoffFixed, Initial: "1ms", Max: "5ms", MaxRetries: 1},
	}
}

func TestClonePagesMissingBranch(t *testing.T) {
	seedDir := filepath.Join(t.TempDir(), "seed")
	initRepoOnBranch(t, seedDir, "main")

	cfg := pagesConfig(seedDir) // branch gh-pages does not exist
	if _, err := ClonePages(cfg, filepath.Join(t.TempDir(), "pages")); err == nil {
		t.Fatal("expected clone of missing pages branch to fail")
	}
}

func TestCommitSiteNoopOnCleanWorktree(t *testing.T) {
	seedDir := filepath.Join(t.TempDir(), "seed")
	initRepoOnBranch(t, seedDir, "gh-pages")

	pages, err := ClonePages(pagesConfig(seedDir), filepath.Join(t.TempDir(), "pages"))
	if err != nil {
		t.Fatalf("ClonePages: %v", err)
	}

	hash, committed, err := pages.CommitSite("Update documentation")
	if err != nil {
		t.Fatalf("CommitSite on clean tree: %v", err)
	}
	if committed {
		t.Error("expected no commit for clean worktree")
	}
	if hash != "" {
		t.Errorf("expected empty hash for no-op, got %s", hash)
	}
}

func TestCommitSiteCreatesCommitWithFixedAuthor(t *testing.T) {
	seedDir := filepath.Join(t.TempDir(), "seed")
	initRepoOnBranch(t, seedDir, "gh-pages")

	pages, err := ClonePages(pagesConfig(seedDir), filepath.Join(t.TempDir(), "pages"))
	if err != nil {
		t.Fatalf("ClonePages: %v", err)
	}

	docsFile := filepath.Join(pages.Path(), "docs", "index.html")
	if err := os.MkdirAll(filepath.Dir(docsFile), 0o750); err != nil {
		t.Fatalf("mkdir docs: %v", err)
	}
	if err := os.WriteFile(docsFile, []byte("<html></html>"), 0o600); err != nil {
		t.Fatalf("write site file: %v", err)
	}

	hash, committed, err := pages.CommitSite("Update documentation")
	if err != nil {
		t.Fatalf("CommitSite: %v", err)
	}
	if !committed {
		t.Fatal("expected a commit for dirty worktree")
	}

	commit, err := pages.repo.CommitObject(plumbing.NewHash(hash))
	if err != nil {
		t.Fatalf("lookup commit: %v", err)
	}
	if commit.Author.Name != "GitHub Action" || commit.Author.Email != "action@github.com" {
		t.Errorf("commit author = %s <%s>, want GitHub Action <action@github.com>",
			commit.Author.Name, commit.Author.Email)
	}

	// Second commit attempt with no further changes must be a no-op.
	_, committed, err = pages.CommitSite("Update documentation")
	if err != nil {
		t.Fatalf("second CommitSite: %v", err)
	}
	if committed {
		t.Error("expected idempotent second commit to be a no-op")
	}
}

func TestPushUpdatesRemote(t *testing.T) {
	seedDir := filepath.Join(t.TempDir(), "seed")
	initRepoOnBranch(t, seedDir, "gh-pages")
	upstream := bareCloneFrom(t, seedDir, "gh-pages")

	pages, err := ClonePages(pagesConfig(upstream), filepath.Join(t.TempDir(), "pages"))
	if err != nil {
		t.Fatalf("ClonePages: %v", err)
	}

	if err := os.WriteFile(filepath.Join(pages.Path(), ".nojekyll"), nil, 0o600); err != nil {
		t.Fatalf("write .nojekyll: %v", err)
	}
	hash, committed, err := pages.CommitSite("Update documentation")
	if err != nil || !committed {
		t.Fatalf("CommitSite: committed=%v err=%v", committed, err)
	}

	if err := pages.Push(); err != nil {
		t.Fatalf("Push: %v", err)
	}

	remote, err := gogit.PlainOpen(upstream)
	if err != nil {
		t.Fatalf("open upstream: %v", err)
	}
	ref, err := remote.Reference(plumbing.ReferenceName("refs/heads/gh-pages"), true)
	if err != nil {
		t.Fatalf("upstream ref: %v", err)
	}
	if ref.Hash().String() != hash {
		t.Errorf("upstream gh-pages = %s, want %s", ref.Hash(), hash)
	}

	// Pushing again with nothing new must succeed (already up to date).
	if err := pages.Push(); err != nil {
		t.Errorf("idempotent push: %v", err)
	}
}
