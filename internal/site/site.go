// Package site renders generated markdown stub pages into the static HTML
// tree that gets published. The output is plain files only: a .nojekyll
// sentinel keeps GitHub Pages from running the tree through Jekyll, and a
// manifest records content hashes so unchanged builds can be detected.
package site

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/docpress/docpress/internal/config"
	derrors "github.com/docpress/docpress/internal/errors"
	"github.com/docpress/docpress/internal/logfields"
)

// NojekyllFile is the sentinel that disables Jekyll processing on Pages.
const NojekyllFile = ".nojekyll"

var mdLinkPattern = regexp.MustCompile(`\]\(([^)#?\s]+)\.md((?:#|\?)[^)]*)?\)`)

// Renderer converts a directory of markdown pages into the output site.
type Renderer struct {
	cfg config.SiteConfig
	md  goldmark.Markdown
}

// NewRenderer creates a renderer for the configured site.
func NewRenderer(cfg config.SiteConfig) *Renderer {
	return &Renderer{
		cfg: cfg,
		md:  goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Render converts every .md file in pagesDir to HTML in the configured
// output directory and returns the build manifest. When site.clean is set
// the output directory is emptied first.
func (r *Renderer) Render(pagesDir string) (*Manifest, error) {
	outDir := r.cfg.Output
	if outDir == "" {
		outDir = config.DefaultSiteOutput
	}

	if r.cfg.Clean {
		if err := os.RemoveAll(outDir); err != nil {
			return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "failed to clean output directory")
		}
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "failed to create output directory")
	}

	entries, err := os.ReadDir(pagesDir)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryRender, "failed to read pages directory")
	}

	manifest := NewManifest()
	var rendered []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".md") {
			continue
		}

		src, err := os.ReadFile(filepath.Join(pagesDir, name))
		if err != nil {
			return nil, derrors.WrapError(err, derrors.CategoryRender, "failed to read page "+name)
		}

		htmlName := strings.TrimSuffix(name, ".md") + ".html"
		page, err := r.renderPage(name, src)
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(filepath.Join(outDir, htmlName), page, 0o644); err != nil {
			return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "failed to write "+htmlName)
		}
		manifest.Add(htmlName, page)
		rendered = append(rendered, htmlName)
	}

	if len(rendered) == 0 {
		return nil, derrors.New(derrors.CategoryRender, derrors.SeverityFatal, "no markdown pages to render")
	}

	// GitHub Pages would otherwise feed the tree through Jekyll, which
	// drops files and directories starting with underscores.
	nojekyll := filepath.Join(outDir, NojekyllFile)
	if err := os.WriteFile(nojekyll, nil, 0o644); err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "failed to write "+NojekyllFile)
	}
	manifest.Add(NojekyllFile, nil)

	if err := manifest.Write(outDir); err != nil {
		return nil, err
	}

	sort.Strings(rendered)
	slog.Info("Rendered site", logfields.Path(outDir), slog.Int("pages", len(rendered)))
	return manifest, nil
}

// renderPage converts one markdown page and wraps it in the site layout.
// Cross-page .md links are rewritten to their .html counterparts first.
func (r *Renderer) renderPage(name string, src []byte) ([]byte, error) {
	src = mdLinkPattern.ReplaceAll(src, []byte(`]($1.html$2)`))

	var body bytes.Buffer
	if err := r.md.Convert(src, &body); err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryRender, "markdown conversion failed for "+name)
	}

	var page bytes.Buffer
	err := layoutTemplate.Execute(&page, layoutData{
		Title:       pageTitle(name, r.cfg.Title),
		SiteTitle:   r.cfg.Title,
		Description: r.cfg.Description,
		BaseURL:     r.cfg.BaseURL,
		Body:        template.HTML(body.String()),
	})
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryRender, "layout rendering failed for "+name)
	}
	return page.Bytes(), nil
}

type layoutData struct {
	Title       string
	SiteTitle   string
	Description string
	BaseURL     string
	Body        template.HTML
}

var layoutTemplate = template.Must(template.New("layout").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{if .Title}}{{.Title}}{{else}}{{.SiteTitle}}{{end}}</title>
{{- if .Description}}
<meta name="description" content="{{.Description}}">
{{- end}}
<style>
body { font-family: system-ui, sans-serif; max-width: 56rem; margin: 0 auto; padding: 1rem 2rem; line-height: 1.6; }
pre { background: #f6f8fa; padding: 0.8rem; overflow-x: auto; border-radius: 4px; }
code { font-family: ui-monospace, monospace; font-size: 0.92em; }
a { color: #0969da; }
</style>
</head>
<body>
<nav><a href="index.html">{{.SiteTitle}}</a></nav>
<main>
{{.Body}}</main>
</body>
</html>
`))

// pageTitle is a helper for picking the document title of a rendered page.
func pageTitle(name, siteTitle string) string {
	stem := strings.TrimSuffix(name, ".md")
	if stem == "index" {
		return siteTitle
	}
	return fmt.Sprintf("%s - %s", stem, siteTitle)
}
