package apidoc

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/docpress/docpress/internal/config"
	derrors "github.com/docpress/docpress/internal/errors"
	"github.com/docpress/docpress/internal/logfields"
)

// Generator writes markdown stub pages for a scanned package tree. Every
// module gets one page named after its dotted path, plus an index page
// linking the whole tree.
type Generator struct {
	title         cases.Caser
	pythonVersion string
}

// NewGenerator creates a stub page generator. The Python version appears on
// the index page so published docs record which interpreter they target.
func NewGenerator(python config.PythonConfig) *Generator {
	return &Generator{title: cases.Title(language.English), pythonVersion: python.Version}
}

// Generate writes one markdown file per module into outDir and returns the
// page file names it produced, index first. outDir is created if needed.
func (g *Generator) Generate(tree *Tree, outDir string) ([]string, error) {
	if tree == nil || tree.ModuleCount() == 0 {
		return nil, derrors.New(derrors.CategoryApidoc, derrors.SeverityFatal, "empty module tree, nothing to generate")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "failed to create stub output directory")
	}

	pages := make([]string, 0, tree.ModuleCount()+1)

	indexName := "index.md"
	if err := os.WriteFile(filepath.Join(outDir, indexName), []byte(g.renderIndex(tree)), 0o644); err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "failed to write index page")
	}
	pages = append(pages, indexName)

	for _, mod := range tree.Modules {
		name := mod.Name + ".md"
		if err := os.WriteFile(filepath.Join(outDir, name), []byte(renderModule(mod)), 0o644); err != nil {
			return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "failed to write stub page for "+mod.Name)
		}
		pages = append(pages, name)
	}

	slog.Info("Generated stub pages", logfields.Module(tree.Root), slog.Int("pages", len(pages)))
	return pages, nil
}

// renderIndex produces the top-level page: the root package docstring
// followed by a link per module, in dotted-name order.
func (g *Generator) renderIndex(tree *Tree) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s API Documentation\n\n", g.title.String(tree.Root))
	if g.pythonVersion != "" {
		fmt.Fprintf(&b, "Built for Python %s.\n\n", g.pythonVersion)
	}

	if root := tree.Package(); root != nil && root.Doc != "" {
		b.WriteString(root.Doc)
		b.WriteString("\n\n")
	}

	b.WriteString("## Modules\n\n")
	for _, mod := range tree.Modules {
		label := mod.Name
		if mod.IsPackage {
			label += " (package)"
		}
		fmt.Fprintf(&b, "- [%s](%s.md)\n", label, mod.Name)
	}
	return b.String()
}

func renderModule(mod *Module) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", mod.Name)

	if mod.Doc != "" {
		b.WriteString(mod.Doc)
		b.WriteString("\n\n")
	}

	if mod.IsPackage && len(mod.Submodules) > 0 {
		b.WriteString("## Submodules\n\n")
		for _, sub := range mod.Submodules {
			fmt.Fprintf(&b, "- [%s](%s.md)\n", sub, sub)
		}
		b.WriteString("\n")
	}

	if len(mod.Functions) > 0 {
		b.WriteString("## Functions\n\n")
		for _, fn := range mod.Functions {
			writeFunction(&b, "###", fn)
		}
	}

	for _, cls := range mod.Classes {
		fmt.Fprintf(&b, "## class %s\n\n", cls.Name)
		fmt.Fprintf(&b, "```python\n%s\n```\n\n", cls.Signature)
		if cls.Doc != "" {
			b.WriteString(cls.Doc)
			b.WriteString("\n\n")
		}
		for _, m := range cls.Methods {
			writeFunction(&b, "###", m)
		}
	}

	return b.String()
}

func writeFunction(b *strings.Builder, heading string, fn Function) {
	fmt.Fprintf(b, "%s %s\n\n", heading, fn.Name)
	fmt.Fprintf(b, "```python\n%s\n```\n\n", fn.Signature)
	if fn.Doc != "" {
		// Docstrings are plain text; fence them so Parameters/Returns
		// blocks keep their indentation-based layout.
		fmt.Fprintf(b, "```\n%s\n```\n\n", fn.Doc)
	}
}
