package apidoc

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/docpress/docpress/internal/config"
)

// writeFixturePackage lays out a small package tree:
//
//	src/carmm/__init__.py
//	src/carmm/run.py
//	src/carmm/analyse/__init__.py
//	src/carmm/analyse/bonds.py
//	src/carmm/examples/__init__.py   (excluded by name)
//	src/carmm/scripts/helper.py      (no __init__.py, not a package)
//	src/carmm/__pycache__/           (always skipped)
func writeFixturePackage(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	files := map[string]string{
		"src/carmm/__init__.py":                   "\"\"\"Collection of computational chemistry utilities.\"\"\"\n",
		"src/carmm/run.py":                        "\"\"\"Calculator run helpers.\"\"\"\n\ndef run_calc(model):\n    \"\"\"Runs a single-point calculation.\"\"\"\n    pass\n",
		"src/carmm/analyse/__init__.py":           "",
		"src/carmm/analyse/bonds.py":              bondsSource,
		"src/carmm/examples/__init__.py":          "",
		"src/carmm/scripts/helper.py":             "def not_scanned():\n    pass\n",
		"src/carmm/__pycache__/run.cpython-39.py": "",
	}
	for rel, content := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestScannerScan(t *testing.T) {
	root := writeFixturePackage(t)

	scanner := NewScanner(
		config.PythonConfig{Package: "carmm", SearchPaths: []string{"src"}},
		config.ApidocConfig{Exclude: []string{"examples"}},
	)
	tree, err := scanner.Scan(root)
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, m := range tree.Modules {
		names = append(names, m.Name)
	}
	want := []string{"carmm", "carmm.analyse", "carmm.analyse.bonds", "carmm.run"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("modules = %v, want %v", names, want)
	}

	pkg := tree.Package()
	if pkg == nil {
		t.Fatal("root package missing from tree")
	}
	if pkg.Doc != "Collection of computational chemistry utilities." {
		t.Errorf("root docstring = %q", pkg.Doc)
	}
	if !reflect.DeepEqual(pkg.Submodules, []string{"carmm.analyse", "carmm.run"}) {
		t.Errorf("root submodules = %v", pkg.Submodules)
	}
}

func TestScannerFiltersPrivateMembers(t *testing.T) {
	root := writeFixturePackage(t)
	python := config.PythonConfig{Package: "carmm", SearchPaths: []string{"src"}}

	scanner := NewScanner(python, config.ApidocConfig{})
	tree, err := scanner.Scan(root)
	if err != nil {
		t.Fatal(err)
	}

	bonds := moduleByName(t, tree, "carmm.analyse.bonds")
	for _, fn := range bonds.Functions {
		if strings.HasPrefix(fn.Name, "_") {
			t.Errorf("private function %q survived the filter", fn.Name)
		}
	}
	methods := bonds.Classes[0].Methods
	if len(methods) != 2 || methods[0].Name != "__init__" || methods[1].Name != "analyse" {
		t.Errorf("methods = %+v", methods)
	}

	// With include_private the underscore members come back.
	scanner = NewScanner(python, config.ApidocConfig{IncludePrivate: true})
	tree, err = scanner.Scan(root)
	if err != nil {
		t.Fatal(err)
	}
	bonds = moduleByName(t, tree, "carmm.analyse.bonds")
	if len(bonds.Functions) != 3 {
		t.Errorf("got %d functions with include_private, want 3", len(bonds.Functions))
	}
}

func TestScannerSearchPathFallback(t *testing.T) {
	root := writeFixturePackage(t)

	// First search path has no package; the second one does.
	scanner := NewScanner(
		config.PythonConfig{Package: "carmm", SearchPaths: []string{"lib", "src"}},
		config.ApidocConfig{},
	)
	if _, err := scanner.Scan(root); err != nil {
		t.Fatalf("fallback search path not used: %v", err)
	}
}

func TestScannerPackageNotFound(t *testing.T) {
	scanner := NewScanner(config.PythonConfig{Package: "missing"}, config.ApidocConfig{})
	if _, err := scanner.Scan(t.TempDir()); err == nil {
		t.Fatal("expected error for missing package")
	}
}

func moduleByName(t *testing.T, tree *Tree, name string) *Module {
	t.Helper()
	for _, m := range tree.Modules {
		if m.Name == name {
			return m
		}
	}
	t.Fatalf("module %s not in tree", name)
	return nil
}
