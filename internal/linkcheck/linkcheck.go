// Package linkcheck verifies that internal links in a rendered site resolve
// to files that actually exist in the output tree. External links are
// recorded but never fetched.
package linkcheck

import (
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/net/html"

	derrors "github.com/docpress/docpress/internal/errors"
	"github.com/docpress/docpress/internal/logfields"
)

// Issue is one broken internal link: the page it appears on and the target
// that does not exist.
type Issue struct {
	Page   string // site-relative path of the referencing page
	Target string // link destination as written
	Tag    string // html element the link came from
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: broken link <%s> to %q", i.Page, i.Tag, i.Target)
}

// Result summarizes a site verification run.
type Result struct {
	PagesChecked  int
	LinksChecked  int
	ExternalLinks int
	Issues        []Issue
}

// OK reports whether every internal link resolved.
func (r *Result) OK() bool { return len(r.Issues) == 0 }

// Verify walks every .html file under siteDir and checks that relative
// links point at existing files. Anchors-only links and absolute URLs are
// skipped.
func Verify(siteDir string) (*Result, error) {
	result := &Result{}

	err := filepath.WalkDir(siteDir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".html") {
			return nil
		}

		rel, err := filepath.Rel(siteDir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()

		checkPage(siteDir, rel, f, result)
		result.PagesChecked++
		return nil
	})
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryRender, "link verification walk failed")
	}

	sort.Slice(result.Issues, func(i, j int) bool {
		if result.Issues[i].Page != result.Issues[j].Page {
			return result.Issues[i].Page < result.Issues[j].Page
		}
		return result.Issues[i].Target < result.Issues[j].Target
	})

	if !result.OK() {
		slog.Warn("Broken internal links found",
			slog.Int("broken", len(result.Issues)),
			slog.Int("links", result.LinksChecked))
	} else {
		slog.Debug("Link verification passed",
			slog.Int("pages", result.PagesChecked),
			slog.Int("links", result.LinksChecked))
	}
	return result, nil
}

// checkPage extracts links from one parsed page and records issues.
// Parse errors are tolerated: x/net/html recovers from almost anything, so
// a failure here means an unreadable file, which the walk already surfaces.
func checkPage(siteDir, page string, r io.Reader, result *Result) {
	doc, err := html.Parse(r)
	if err != nil {
		slog.Warn("Failed to parse page", logfields.Page(page), logfields.Error(err))
		return
	}

	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if target, tag, ok := linkTarget(n); ok {
				result.LinksChecked++
				classify(siteDir, page, target, tag, result)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(doc)
}

// linkTarget returns the link destination of an element, if it has one.
func linkTarget(n *html.Node) (target, tag string, ok bool) {
	switch n.Data {
	case "a", "link":
		return getAttr(n, "href"), n.Data, getAttr(n, "href") != ""
	case "img", "script":
		return getAttr(n, "src"), n.Data, getAttr(n, "src") != ""
	}
	return "", "", false
}

func classify(siteDir, page, target, tag string, result *Result) {
	u, err := url.Parse(target)
	if err != nil {
		result.Issues = append(result.Issues, Issue{Page: page, Target: target, Tag: tag})
		return
	}
	if u.Scheme != "" || u.Host != "" {
		result.ExternalLinks++
		return
	}
	if u.Path == "" {
		return // pure anchor, always fine
	}

	// Resolve relative to the referencing page's directory.
	resolved := u.Path
	if !strings.HasPrefix(resolved, "/") {
		resolved = path.Join(path.Dir(page), resolved)
	}
	resolved = strings.TrimPrefix(resolved, "/")

	full := filepath.Join(siteDir, filepath.FromSlash(resolved))
	if info, err := os.Stat(full); err != nil || info.IsDir() {
		result.Issues = append(result.Issues, Issue{Page: page, Target: target, Tag: tag})
	}
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
