package preview

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"

	"github.com/docpress/docpress/internal/config"
)

func TestRebuildProducesSite(t *testing.T) {
	sourceDir := t.TempDir()
	pkg := filepath.Join(sourceDir, "carmm")
	if err := os.MkdirAll(pkg, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(pkg, "__init__.py"), []byte("\"\"\"Utilities.\"\"\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{
		Python: config.PythonConfig{Package: "carmm"},
		Site: config.SiteConfig{
			Title:  "Preview",
			Output: filepath.Join(t.TempDir(), "site"),
		},
	}

	server := NewServer(cfg, sourceDir, 0)
	server.sourceDir = sourceDir
	if err := server.rebuild(); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(cfg.Site.Output, "index.html")); err != nil {
		t.Errorf("index.html missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Site.Output, "carmm.html")); err != nil {
		t.Errorf("carmm.html missing: %v", err)
	}
}

func TestRelevantChange(t *testing.T) {
	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"python write", fsnotify.Event{Name: "/src/carmm/run.py", Op: fsnotify.Write}, true},
		{"chmod ignored", fsnotify.Event{Name: "/src/carmm/run.py", Op: fsnotify.Chmod}, false},
		{"hidden file", fsnotify.Event{Name: "/src/.run.py.swp", Op: fsnotify.Write}, false},
		{"pycache", fsnotify.Event{Name: "/src/carmm/__pycache__", Op: fsnotify.Write}, false},
		{"non-python write", fsnotify.Event{Name: "/src/notes.txt", Op: fsnotify.Write}, false},
		{"directory create", fsnotify.Event{Name: "/src/carmm/newpkg", Op: fsnotify.Create}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := relevantChange(tt.event); got != tt.want {
				t.Errorf("relevantChange(%v) = %v", tt.event, got)
			}
		})
	}
}
