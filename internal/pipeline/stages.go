package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/docpress/docpress/internal/apidoc"
	derrors "github.com/docpress/docpress/internal/errors"
	"github.com/docpress/docpress/internal/git"
	"github.com/docpress/docpress/internal/linkcheck"
	"github.com/docpress/docpress/internal/metrics"
	"github.com/docpress/docpress/internal/site"
)

// checkoutStage clones or updates the documented source repository.
type checkoutStage struct {
	workDir string
}

func (s *checkoutStage) Name() StageName     { return StageCheckout }
func (s *checkoutStage) Description() string { return "clone or update the source repository" }

func (s *checkoutStage) Execute(ctx context.Context, bs *BuildState) StageExecution {
	client := git.NewClient(s.workDir)
	if err := client.EnsureWorkspace(); err != nil {
		return ExecutionFailure(err)
	}
	repoPath, err := client.UpdateSource(bs.Config.Source)
	if err != nil {
		return ExecutionFailure(err)
	}
	bs.CheckoutDir = repoPath
	if head, err := client.Head(repoPath); err == nil {
		bs.SourceHash = head
	}
	return ExecutionSuccess()
}

// apidocStage scans the Python package and writes markdown stub pages.
type apidocStage struct {
	workDir string
}

func (s *apidocStage) Name() StageName     { return StageApidoc }
func (s *apidocStage) Description() string { return "extract docstrings into stub pages" }

func (s *apidocStage) Execute(ctx context.Context, bs *BuildState) StageExecution {
	scanner := apidoc.NewScanner(bs.Config.Python, bs.Config.Apidoc)
	tree, err := scanner.Scan(bs.CheckoutDir)
	if err != nil {
		return ExecutionFailure(err)
	}
	bs.Tree = tree

	pagesDir := filepath.Join(s.workDir, "pages")
	if _, err := apidoc.NewGenerator(bs.Config.Python).Generate(tree, pagesDir); err != nil {
		return ExecutionFailure(err)
	}
	bs.PagesDir = pagesDir
	return ExecutionSuccess()
}

// renderStage converts the stub pages into the static HTML site.
type renderStage struct {
	recorder metrics.Recorder
}

func (s *renderStage) Name() StageName     { return StageRender }
func (s *renderStage) Description() string { return "render stub pages to static HTML" }

func (s *renderStage) Execute(ctx context.Context, bs *BuildState) StageExecution {
	manifest, err := site.NewRenderer(bs.Config.Site).Render(bs.PagesDir)
	if err != nil {
		return ExecutionFailure(err)
	}
	bs.Manifest = manifest
	bs.SiteDir = bs.Config.Site.Output
	s.recorder.SetPagesGenerated(len(manifest.Pages))
	return ExecutionSuccess()
}

// linkcheckStage verifies internal links in the rendered site. Broken links
// degrade the build to a warning but never block publishing.
type linkcheckStage struct{}

func (s *linkcheckStage) Name() StageName     { return StageLinkcheck }
func (s *linkcheckStage) Description() string { return "verify internal links in the rendered site" }

func (s *linkcheckStage) Execute(ctx context.Context, bs *BuildState) StageExecution {
	result, err := linkcheck.Verify(bs.SiteDir)
	if err != nil {
		return ExecutionFailure(err)
	}
	bs.Links = result
	if !result.OK() {
		return ExecutionWarning()
	}
	return ExecutionSuccess()
}

// publishStage clones the pages branch, overlays the rendered site into the
// configured subdirectory, commits, and pushes. A build that changes
// nothing commits nothing and still succeeds.
type publishStage struct {
	workDir  string
	recorder metrics.Recorder
}

func (s *publishStage) Name() StageName     { return StagePublish }
func (s *publishStage) Description() string { return "commit and push the site to the pages branch" }

func (s *publishStage) Execute(ctx context.Context, bs *BuildState) StageExecution {
	pub := bs.Config.Publish
	pagesDir := filepath.Join(s.workDir, "pages-checkout")

	repo, err := git.ClonePages(pub, pagesDir)
	if err != nil {
		s.recorder.IncPublishResult(metrics.PublishFailed)
		return ExecutionFailure(err)
	}

	target := filepath.Join(repo.Path(), filepath.FromSlash(pub.Subdir))
	if err := overlayDir(bs.SiteDir, target); err != nil {
		s.recorder.IncPublishResult(metrics.PublishFailed)
		return ExecutionFailure(err)
	}

	message := commitMessage(bs)
	hash, committed, err := repo.CommitSite(message)
	if err != nil {
		s.recorder.IncPublishResult(metrics.PublishFailed)
		return ExecutionFailure(err)
	}
	bs.PublishCommit = hash
	bs.Committed = committed

	if !committed {
		s.recorder.IncPublishResult(metrics.PublishNoop)
		return ExecutionSuccess()
	}

	if err := repo.Push(); err != nil {
		s.recorder.IncPublishResult(metrics.PublishFailed)
		return ExecutionFailure(err)
	}
	s.recorder.IncPublishResult(metrics.PublishCommitted)
	return ExecutionSuccess()
}

func commitMessage(bs *BuildState) string {
	if bs.SourceHash != "" && len(bs.SourceHash) >= 8 {
		return fmt.Sprintf("Update API documentation for %s (%s)", bs.Config.Source.Name, bs.SourceHash[:8])
	}
	return fmt.Sprintf("Update API documentation for %s", bs.Config.Source.Name)
}

// overlayDir replaces dst with a copy of src. Removing first keeps deleted
// pages from lingering on the published branch. The build manifest stays
// out of the overlay: it carries a generation timestamp, and publishing it
// would turn every rebuild into a new commit.
func overlayDir(src, dst string) error {
	if err := os.RemoveAll(dst); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to clear publish subdirectory")
	}
	if err := copyTree(src, dst); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to copy site into pages checkout")
	}
	return nil
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		out := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(out, 0o755)
		}
		if rel == site.ManifestFile {
			return nil
		}
		return copyFile(p, out)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
