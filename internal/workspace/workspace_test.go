package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEphemeralDir(t *testing.T) {
	dir, err := Ephemeral()
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(filepath.Base(dir.Path()), "docpress-") {
		t.Errorf("unexpected directory name: %s", dir.Path())
	}
	if _, err := os.Stat(dir.Path()); err != nil {
		t.Fatalf("working directory missing: %v", err)
	}

	if err := dir.Remove(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(dir.Path()); !os.IsNotExist(err) {
		t.Errorf("working directory still exists after Remove: %s", dir.Path())
	}
}

func TestPersistentDirSurvivesRemove(t *testing.T) {
	base := t.TempDir()
	dir, err := Persistent(base)
	if err != nil {
		t.Fatal(err)
	}
	if dir.Path() != filepath.Join(base, "working") {
		t.Errorf("path = %s", dir.Path())
	}

	marker := filepath.Join(dir.Path(), "checkout.txt")
	if err := os.WriteFile(marker, []byte("kept"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := dir.Remove(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(marker); err != nil {
		t.Errorf("persistent content removed: %v", err)
	}

	// A second build reuses the same path.
	again, err := Persistent(base)
	if err != nil {
		t.Fatal(err)
	}
	if again.Path() != dir.Path() {
		t.Errorf("paths differ: %s vs %s", again.Path(), dir.Path())
	}
}
