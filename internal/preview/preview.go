// Package preview serves the rendered site from a local source tree and
// rebuilds it whenever a Python file changes. No git operations and no
// publishing: it is a tight edit-and-look loop for docstring authors.
package preview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/docpress/docpress/internal/apidoc"
	"github.com/docpress/docpress/internal/config"
	derrors "github.com/docpress/docpress/internal/errors"
	"github.com/docpress/docpress/internal/logfields"
	"github.com/docpress/docpress/internal/site"
)

const rebuildQuiet = 300 * time.Millisecond

// Server watches sourceDir and serves the rebuilt site on port.
type Server struct {
	cfg       *config.Config
	sourceDir string
	port      int

	mu        sync.RWMutex
	lastError error
}

// NewServer creates a preview server over a local checkout.
func NewServer(cfg *config.Config, sourceDir string, port int) *Server {
	return &Server{cfg: cfg, sourceDir: sourceDir, port: port}
}

// Run builds once, then serves and rebuilds on changes until ctx is
// canceled.
func (s *Server) Run(ctx context.Context) error {
	absSource, err := filepath.Abs(s.sourceDir)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to resolve source directory")
	}
	if _, err := os.Stat(absSource); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "source directory not accessible")
	}
	s.sourceDir = absSource

	if err := s.rebuild(); err != nil {
		// The first build must succeed so there is something to serve;
		// later failures keep the last good site up.
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to create file watcher")
	}
	defer watcher.Close()
	if err := watchRecursive(watcher, s.sourceDir); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.handler(),
	}
	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	slog.Info("Preview running",
		slog.Int("port", s.port),
		logfields.Path(s.sourceDir))

	err = s.watchLoop(ctx, watcher, serverErr)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	return err
}

// watchLoop coalesces change events and rebuilds after a quiet period.
func (s *Server) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, serverErr <-chan error) error {
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-serverErr:
			return err
		case err := <-watcher.Errors:
			slog.Warn("Watcher error", logfields.Error(err))
		case event := <-watcher.Events:
			if !relevantChange(event) {
				continue
			}
			// New directories need watching too.
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watchRecursive(watcher, event.Name)
				}
			}
			slog.Debug("Source changed", logfields.Path(event.Name))
			pending = time.After(rebuildQuiet)
		case <-pending:
			pending = nil
			if err := s.rebuild(); err != nil {
				slog.Error("Rebuild failed", logfields.Error(err))
				s.setError(err)
			} else {
				s.setError(nil)
			}
		}
	}
}

// rebuild scans, generates, and renders into the configured output.
func (s *Server) rebuild() error {
	scanner := apidoc.NewScanner(s.cfg.Python, s.cfg.Apidoc)
	tree, err := scanner.Scan(s.sourceDir)
	if err != nil {
		return err
	}

	pagesDir, err := os.MkdirTemp("", "docpress-preview-")
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to create pages directory")
	}
	defer os.RemoveAll(pagesDir)

	if _, err := apidoc.NewGenerator(s.cfg.Python).Generate(tree, pagesDir); err != nil {
		return err
	}
	if _, err := site.NewRenderer(s.cfg.Site).Render(pagesDir); err != nil {
		return err
	}

	slog.Info("Preview site rebuilt", slog.Int("modules", tree.ModuleCount()))
	return nil
}

// handler serves the rendered site, with the last build error surfaced on
// a separate endpoint for quick diagnosis.
func (s *Server) handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(s.cfg.Site.Output)))
	mux.HandleFunc("/_preview/status", func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		defer s.mu.RUnlock()
		if s.lastError != nil {
			http.Error(w, s.lastError.Error(), http.StatusInternalServerError)
			return
		}
		fmt.Fprintln(w, "ok")
	})
	return mux
}

func (s *Server) setError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = err
}

// relevantChange filters events down to Python source edits.
func relevantChange(event fsnotify.Event) bool {
	if event.Op.Has(fsnotify.Chmod) {
		return false
	}
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") || name == "__pycache__" {
		return false
	}
	if event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Remove) {
		// Could be a directory; let the caller sort it out.
		return true
	}
	return strings.HasSuffix(name, ".py")
}

// watchRecursive adds dir and every non-hidden subdirectory to the watcher.
func watchRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if p != dir && (strings.HasPrefix(name, ".") || name == "__pycache__") {
			return filepath.SkipDir
		}
		return watcher.Add(p)
	})
}
