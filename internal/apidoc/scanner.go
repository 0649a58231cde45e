package apidoc

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/docpress/docpress/internal/config"
	derrors "github.com/docpress/docpress/internal/errors"
	"github.com/docpress/docpress/internal/logfields"
)

// Scanner walks a Python package tree and extracts docstrings and
// signatures for stub page generation.
type Scanner struct {
	python config.PythonConfig
	apidoc config.ApidocConfig
}

// NewScanner creates a scanner for the configured package.
func NewScanner(python config.PythonConfig, apidoc config.ApidocConfig) *Scanner {
	return &Scanner{python: python, apidoc: apidoc}
}

// Scan locates the configured package under rootDir and parses every module
// in it. Search paths are tried in order; the first directory containing
// <package>/__init__.py wins. Only true packages are recursed into, so a
// stray scripts directory without __init__.py never ends up in the tree.
func (s *Scanner) Scan(rootDir string) (*Tree, error) {
	if s.python.Package == "" {
		return nil, derrors.New(derrors.CategoryApidoc, derrors.SeverityFatal, "no python package configured")
	}

	pkgDir, err := s.locatePackage(rootDir)
	if err != nil {
		return nil, err
	}
	slog.Debug("Located python package", logfields.Module(s.python.Package), logfields.Path(pkgDir))

	tree := &Tree{Root: s.python.Package}
	if err := s.scanPackage(pkgDir, s.python.Package, tree); err != nil {
		return nil, err
	}

	sort.Slice(tree.Modules, func(i, j int) bool {
		return tree.Modules[i].Name < tree.Modules[j].Name
	})
	slog.Info("Scanned python package",
		logfields.Module(s.python.Package),
		slog.Int("modules", tree.ModuleCount()))
	return tree, nil
}

// locatePackage resolves the package directory against the configured search
// paths, falling back to the checkout root itself.
func (s *Scanner) locatePackage(rootDir string) (string, error) {
	searchPaths := s.python.SearchPaths
	if len(searchPaths) == 0 {
		searchPaths = []string{"."}
	}

	for _, sp := range searchPaths {
		candidate := filepath.Join(rootDir, sp, s.python.Package)
		if isPackageDir(candidate) {
			return candidate, nil
		}
	}
	return "", derrors.New(derrors.CategoryApidoc, derrors.SeverityFatal,
		"python package "+s.python.Package+" not found under any search path")
}

func isPackageDir(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, "__init__.py"))
	return err == nil && !info.IsDir()
}

// scanPackage parses one package directory and recurses into subpackages.
// dotted is the fully qualified name of this package.
func (s *Scanner) scanPackage(dir, dotted string, tree *Tree) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryApidoc, "failed to read package directory")
	}

	pkg, err := s.parseFile(filepath.Join(dir, "__init__.py"), dotted, true)
	if err != nil {
		return err
	}
	tree.Modules = append(tree.Modules, pkg)

	for _, entry := range entries {
		name := entry.Name()
		if s.excluded(name) {
			slog.Debug("Skipping excluded entry", logfields.Module(dotted), logfields.Name(name))
			continue
		}

		if entry.IsDir() {
			sub := filepath.Join(dir, name)
			if !isPackageDir(sub) {
				continue
			}
			child := dotted + "." + name
			pkg.Submodules = append(pkg.Submodules, child)
			if err := s.scanPackage(sub, child, tree); err != nil {
				return err
			}
			continue
		}

		if !strings.HasSuffix(name, ".py") || name == "__init__.py" {
			continue
		}
		stem := strings.TrimSuffix(name, ".py")
		child := dotted + "." + stem
		mod, err := s.parseFile(filepath.Join(dir, name), child, false)
		if err != nil {
			return err
		}
		pkg.Submodules = append(pkg.Submodules, child)
		tree.Modules = append(tree.Modules, mod)
	}

	sort.Strings(pkg.Submodules)
	return nil
}

func (s *Scanner) parseFile(path, dotted string, isPackage bool) (*Module, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryApidoc, "failed to read module "+dotted)
	}

	rel := strings.TrimPrefix(dotted, s.python.Package)
	rel = strings.ReplaceAll(strings.TrimPrefix(rel, "."), ".", "/")
	if isPackage {
		rel = filepath.ToSlash(filepath.Join(rel, "__init__.py"))
	} else {
		rel += ".py"
	}

	mod := parseModule(dotted, rel, isPackage, src)
	if !s.apidoc.IncludePrivate {
		filterPrivate(mod)
	}
	return mod, nil
}

// excluded reports whether a directory or module file name is skipped.
// Cache directories, hidden entries, and names the configuration excludes
// never make it into the tree.
func (s *Scanner) excluded(name string) bool {
	if name == "__pycache__" || strings.HasPrefix(name, ".") {
		return true
	}
	stem := strings.TrimSuffix(name, ".py")
	for _, ex := range s.apidoc.Exclude {
		if name == ex || stem == ex {
			return true
		}
	}
	return false
}

// filterPrivate drops underscore-prefixed members, keeping dunder methods
// out as well. The module itself is kept even when private so the package
// index stays navigable.
func filterPrivate(mod *Module) {
	funcs := mod.Functions[:0]
	for _, f := range mod.Functions {
		if !isPrivateName(f.Name) {
			funcs = append(funcs, f)
		}
	}
	mod.Functions = funcs

	classes := mod.Classes[:0]
	for _, c := range mod.Classes {
		if isPrivateName(c.Name) {
			continue
		}
		methods := c.Methods[:0]
		for _, m := range c.Methods {
			if m.Name == "__init__" || !isPrivateName(m.Name) {
				methods = append(methods, m)
			}
		}
		c.Methods = methods
		classes = append(classes, c)
	}
	mod.Classes = classes
}

func isPrivateName(name string) bool {
	return strings.HasPrefix(name, "_")
}
