package git

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"github.com/docpress/docpress/internal/config"
	"github.com/docpress/docpress/internal/logfields"
)

// Client handles Git operations rooted at a workspace directory.
type Client struct {
	workspaceDir string
}

// NewClient creates a new Git client with the specified workspace directory
func NewClient(workspaceDir string) *Client {
	return &Client{
		workspaceDir: workspaceDir,
	}
}

// CloneSource clones the documented source repository into the workspace and
// returns its checkout path.
func (c *Client) CloneSource(src config.SourceConfig) (string, error) {
	repoPath := filepath.Join(c.workspaceDir, src.Name)

	slog.Debug("Cloning source repository", logfields.URL(src.URL), logfields.Name(src.Name), logfields.Branch(src.Branch), logfields.Path(repoPath))

	// Remove existing directory if it exists
	if err := os.RemoveAll(repoPath); err != nil {
		return "", fmt.Errorf("failed to remove existing directory: %w", err)
	}

	cloneOptions := &git.CloneOptions{
		URL: src.URL,
	}

	if src.Branch != "" {
		cloneOptions.ReferenceName = plumbing.ReferenceName("refs/heads/" + src.Branch)
		cloneOptions.SingleBranch = true
	}

	if !src.Auth.IsZero() {
		auth, err := authMethod(src.Auth)
		if err != nil {
			return "", fmt.Errorf("failed to setup authentication: %w", err)
		}
		cloneOptions.Auth = auth
	}

	repository, err := git.PlainClone(repoPath, false, cloneOptions)
	if err != nil {
		return "", fmt.Errorf("failed to clone repository %s: %w", src.URL, err)
	}

	if ref, err := repository.Head(); err == nil {
		slog.Info("Source repository cloned",
			logfields.Name(src.Name),
			logfields.URL(src.URL),
			logfields.Commit(shortHash(ref.Hash().String())),
			logfields.Path(repoPath))
	} else {
		slog.Info("Source repository cloned",
			logfields.Name(src.Name),
			logfields.URL(src.URL),
			logfields.Path(repoPath))
	}

	return repoPath, nil
}

// UpdateSource updates an existing source checkout or clones it if missing.
// Used by daemon mode to avoid a full clone on every triggered build.
func (c *Client) UpdateSource(src config.SourceConfig) (string, error) {
	repoPath := filepath.Join(c.workspaceDir, src.Name)

	if _, err := os.Stat(filepath.Join(repoPath, ".git")); err == nil {
		slog.Debug("Updating existing source checkout", logfields.Name(src.Name), logfields.Path(repoPath))
		return c.pullExisting(repoPath, src)
	}

	slog.Debug("Source checkout doesn't exist, cloning", logfields.Name(src.Name))
	return c.CloneSource(src)
}

func (c *Client) pullExisting(repoPath string, src config.SourceConfig) (string, error) {
	repository, err := git.PlainOpen(repoPath)
	if err != nil {
		return "", fmt.Errorf("failed to open repository: %w", err)
	}

	worktree, err := repository.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}

	pullOptions := &git.PullOptions{
		RemoteName: "origin",
	}

	if !src.Auth.IsZero() {
		auth, err := authMethod(src.Auth)
		if err != nil {
			return "", fmt.Errorf("failed to setup authentication: %w", err)
		}
		pullOptions.Auth = auth
	}

	err = worktree.Pull(pullOptions)
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return "", fmt.Errorf("failed to pull repository %s: %w", src.URL, err)
	}

	if err == git.NoErrAlreadyUpToDate {
		slog.Info("Source already up to date", logfields.Name(src.Name))
	} else if ref, headErr := repository.Head(); headErr == nil {
		slog.Info("Source updated",
			logfields.Name(src.Name),
			logfields.Commit(shortHash(ref.Hash().String())))
	} else {
		slog.Info("Source updated", logfields.Name(src.Name))
	}

	return repoPath, nil
}

// Head resolves the HEAD commit hash of a local checkout. Build results
// carry it so history records which source revision was documented.
func (c *Client) Head(repoPath string) (string, error) {
	repository, err := git.PlainOpen(repoPath)
	if err != nil {
		return "", fmt.Errorf("failed to open repository: %w", err)
	}
	ref, err := repository.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	return ref.Hash().String(), nil
}

// authMethod creates transport authentication based on config
func authMethod(auth *config.AuthConfig) (transport.AuthMethod, error) {
	if auth == nil {
		return nil, nil
	}
	switch auth.Type {
	case config.AuthTypeNone, "":
		return nil, nil // No authentication needed for public repositories

	case config.AuthTypeSSH:
		keyPath := auth.KeyPath
		if keyPath == "" {
			keyPath = filepath.Join(os.Getenv("HOME"), ".ssh", "id_rsa")
		}

		publicKeys, err := ssh.NewPublicKeysFromFile("git", keyPath, "")
		if err != nil {
			return nil, fmt.Errorf("failed to load SSH key from %s: %w", keyPath, err)
		}
		return publicKeys, nil

	case config.AuthTypeToken:
		if auth.Token == "" {
			return nil, fmt.Errorf("token authentication requires a token")
		}
		return &http.BasicAuth{
			Username: "token", // GitHub/GitLab use "token" as username
			Password: auth.Token,
		}, nil

	case config.AuthTypeBasic:
		if auth.Username == "" || auth.Password == "" {
			return nil, fmt.Errorf("basic authentication requires username and password")
		}
		return &http.BasicAuth{
			Username: auth.Username,
			Password: auth.Password,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported authentication type: %s", auth.Type)
	}
}

// EnsureWorkspace creates the workspace directory if it doesn't exist
func (c *Client) EnsureWorkspace() error {
	if err := os.MkdirAll(c.workspaceDir, 0o750); err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}
	return nil
}

func shortHash(h string) string {
	if len(h) > 8 {
		return h[:8]
	}
	return h
}
