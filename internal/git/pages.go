package git

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/docpress/docpress/internal/config"
	"github.com/docpress/docpress/internal/logfields"
)

// PagesRepo wraps a checkout of the pages branch the rendered site is
// published into.
type PagesRepo struct {
	repo *git.Repository
	path string
	cfg  config.PublishConfig
}

// ClonePages clones the configured pages branch into dir. The branch must
// already exist on the remote; publishing never creates it.
func ClonePages(pub config.PublishConfig, dir string) (*PagesRepo, error) {
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("failed to clear pages directory: %w", err)
	}

	slog.Debug("Cloning pages branch", logfields.URL(pub.URL), logfields.Branch(pub.Branch), logfields.Path(dir))

	cloneOptions := &git.CloneOptions{
		URL:           pub.URL,
		ReferenceName: plumbing.ReferenceName("refs/heads/" + pub.Branch),
		SingleBranch:  true,
	}

	if !pub.Auth.IsZero() {
		auth, err := authMethod(pub.Auth)
		if err != nil {
			return nil, fmt.Errorf("failed to setup authentication: %w", err)
		}
		cloneOptions.Auth = auth
	}

	repository, err := git.PlainClone(dir, false, cloneOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to clone pages branch %s of %s: %w", pub.Branch, pub.URL, err)
	}

	slog.Info("Pages branch cloned", logfields.URL(pub.URL), logfields.Branch(pub.Branch))
	return &PagesRepo{repo: repository, path: dir, cfg: pub}, nil
}

// Path returns the pages checkout directory.
func (p *PagesRepo) Path() string { return p.path }

// Head returns the current HEAD commit hash of the pages checkout.
func (p *PagesRepo) Head() (string, error) {
	ref, err := p.repo.Head()
	if err != nil {
		return "", err
	}
	return ref.Hash().String(), nil
}

// CommitSite stages everything in the pages worktree and commits with the
// configured author identity. A clean worktree is not an error: nothing is
// committed and committed=false is returned. This mirrors the tolerated
// empty-diff commit of the publishing workflow this pipeline replaces.
func (p *PagesRepo) CommitSite(message string) (hash string, committed bool, err error) {
	worktree, err := p.repo.Worktree()
	if err != nil {
		return "", false, fmt.Errorf("failed to get pages worktree: %w", err)
	}

	if err := worktree.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return "", false, fmt.Errorf("failed to stage site files: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return "", false, fmt.Errorf("failed to read worktree status: %w", err)
	}
	if status.IsClean() {
		slog.Info("Pages worktree unchanged, skipping commit", logfields.Branch(p.cfg.Branch))
		return "", false, nil
	}

	signature := &object.Signature{
		Name:  p.cfg.AuthorName,
		Email: p.cfg.AuthorEmail,
		When:  time.Now(),
	}

	commit, err := worktree.Commit(message, &git.CommitOptions{
		Author:    signature,
		Committer: signature,
	})
	if err != nil {
		return "", false, fmt.Errorf("failed to commit site: %w", err)
	}

	slog.Info("Site committed",
		logfields.Branch(p.cfg.Branch),
		logfields.Commit(shortHash(commit.String())),
		slog.String("author", fmt.Sprintf("%s <%s>", p.cfg.AuthorName, p.cfg.AuthorEmail)))

	return commit.String(), true, nil
}

// Push pushes the pages branch to its remote, retrying transient failures
// according to the policy from the publish config. A remote that is already
// up to date is a success.
func (p *PagesRepo) Push() error {
	pushOptions := &git.PushOptions{
		RemoteName: "origin",
	}

	if !p.cfg.Auth.IsZero() {
		auth, err := authMethod(p.cfg.Auth)
		if err != nil {
			return fmt.Errorf("failed to setup authentication: %w", err)
		}
		pushOptions.Auth = auth
	}

	err := pushWithRetry(p.cfg, func() error {
		err := p.repo.Push(pushOptions)
		if err == git.NoErrAlreadyUpToDate {
			return nil
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to push pages branch %s: %w", p.cfg.Branch, err)
	}

	slog.Info("Pages branch pushed", logfields.URL(p.cfg.URL), logfields.Branch(p.cfg.Branch))
	return nil
}
