package apidoc

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/docpress/docpress/internal/config"
)

func TestGenerateStubPages(t *testing.T) {
	root := writeFixturePackage(t)
	scanner := NewScanner(
		config.PythonConfig{Package: "carmm", SearchPaths: []string{"src"}},
		config.ApidocConfig{Exclude: []string{"examples"}},
	)
	tree, err := scanner.Scan(root)
	if err != nil {
		t.Fatal(err)
	}

	outDir := t.TempDir()
	pages, err := NewGenerator(config.PythonConfig{Version: "3.9"}).Generate(tree, outDir)
	if err != nil {
		t.Fatal(err)
	}

	if pages[0] != "index.md" {
		t.Errorf("first page = %q, want index.md", pages[0])
	}
	if len(pages) != tree.ModuleCount()+1 {
		t.Errorf("got %d pages for %d modules", len(pages), tree.ModuleCount())
	}
	for _, page := range pages {
		if _, err := os.Stat(filepath.Join(outDir, page)); err != nil {
			t.Errorf("page %s not written: %v", page, err)
		}
	}

	index := readPage(t, outDir, "index.md")
	if !strings.Contains(index, "# Carmm API Documentation") {
		t.Errorf("index title missing:\n%s", index)
	}
	if !strings.Contains(index, "Built for Python 3.9.") {
		t.Errorf("index missing Python version line:\n%s", index)
	}
	if !strings.Contains(index, "Collection of computational chemistry utilities.") {
		t.Errorf("index lost the package docstring:\n%s", index)
	}
	if !strings.Contains(index, "[carmm.analyse.bonds](carmm.analyse.bonds.md)") {
		t.Errorf("index missing module link:\n%s", index)
	}
}

func TestGenerateModulePage(t *testing.T) {
	root := writeFixturePackage(t)
	scanner := NewScanner(
		config.PythonConfig{Package: "carmm", SearchPaths: []string{"src"}},
		config.ApidocConfig{},
	)
	tree, err := scanner.Scan(root)
	if err != nil {
		t.Fatal(err)
	}

	outDir := t.TempDir()
	if _, err := NewGenerator(config.PythonConfig{}).Generate(tree, outDir); err != nil {
		t.Fatal(err)
	}

	page := readPage(t, outDir, "carmm.analyse.bonds.md")
	for _, want := range []string{
		"# carmm.analyse.bonds",
		"### get_sorted_distances",
		"def get_sorted_distances(model, atomic_range=None)",
		"## class BondAnalysis",
		"### __init__",
	} {
		if !strings.Contains(page, want) {
			t.Errorf("module page missing %q:\n%s", want, page)
		}
	}

	pkg := readPage(t, outDir, "carmm.md")
	if !strings.Contains(pkg, "## Submodules") || !strings.Contains(pkg, "[carmm.analyse](carmm.analyse.md)") {
		t.Errorf("package page missing submodule links:\n%s", pkg)
	}
}

func TestGenerateEmptyTree(t *testing.T) {
	if _, err := NewGenerator(config.PythonConfig{}).Generate(&Tree{Root: "x"}, t.TempDir()); err == nil {
		t.Fatal("expected error for empty tree")
	}
}

func readPage(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}
