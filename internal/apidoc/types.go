package apidoc

// Module is a single Python module (one .py file) or package (__init__.py),
// reduced to what the stub pages need: docstrings and signatures.
type Module struct {
	// Name is the fully qualified dotted module path, e.g. "carmm.analyse.bonds".
	Name string
	// RelPath is the file path relative to the package root.
	RelPath string
	// IsPackage is true for __init__.py modules.
	IsPackage bool
	// Doc is the module-level docstring, dedented.
	Doc string

	Classes   []Class
	Functions []Function

	// Submodules lists dotted names of direct children (packages only).
	Submodules []string
}

// Class is a top-level class definition with its public methods.
type Class struct {
	Name      string
	Signature string // full header without the trailing colon, e.g. "class Foo(Base)"
	Doc       string
	Methods   []Function
}

// Function is a module-level function or a class method.
type Function struct {
	Name      string
	Signature string // full header without the trailing colon
	Doc       string
}

// Tree is the scanned package hierarchy, ordered deterministically by
// dotted module name.
type Tree struct {
	// Root is the top-level package name, e.g. "carmm".
	Root string
	// Modules holds every scanned module including the root package itself.
	Modules []*Module
}

// Package returns the module entry for the root package, or nil when the
// scan produced nothing.
func (t *Tree) Package() *Module {
	for _, m := range t.Modules {
		if m.Name == t.Root {
			return m
		}
	}
	return nil
}

// ModuleCount reports the number of scanned modules.
func (t *Tree) ModuleCount() int { return len(t.Modules) }
