package apidoc

import (
	"strings"
)

// parseModule extracts the docstring skeleton from Python source. It is a
// line-oriented scan, not a full Python parser: it understands module, class
// and def docstrings, and multi-line signatures, which is all the stub pages
// need. Nested defs and conditionally defined classes are ignored on purpose.
func parseModule(name, relPath string, isPackage bool, src []byte) *Module {
	m := &Module{Name: name, RelPath: relPath, IsPackage: isPackage}

	lines := strings.Split(string(src), "\n")
	m.Doc = moduleDocstring(lines)

	i := 0
	for i < len(lines) {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		if indentOf(line) != 0 || !isDefOrClass(trimmed) {
			i++
			continue
		}

		if strings.HasPrefix(trimmed, "class ") {
			class, next := parseClass(lines, i)
			if class != nil {
				m.Classes = append(m.Classes, *class)
			}
			i = next
			continue
		}

		fn, next := parseFunction(lines, i)
		if fn != nil {
			m.Functions = append(m.Functions, *fn)
		}
		i = next
	}

	return m
}

func isDefOrClass(trimmed string) bool {
	return strings.HasPrefix(trimmed, "def ") ||
		strings.HasPrefix(trimmed, "async def ") ||
		strings.HasPrefix(trimmed, "class ")
}

// moduleDocstring returns the docstring that opens a module: the first
// statement after any shebang, encoding comments, and blank lines.
func moduleDocstring(lines []string) string {
	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if doc, _, ok := readDocstring(lines, i); ok {
			return doc
		}
		return ""
	}
	return ""
}

// parseFunction parses a def header starting at lines[start] and its
// docstring. Returns nil when the header never closed (truncated source).
func parseFunction(lines []string, start int) (*Function, int) {
	header, bodyStart, ok := readHeader(lines, start)
	if !ok {
		return nil, start + 1
	}

	name := defName(header)
	doc := ""
	if d, _, found := docstringAfter(lines, bodyStart); found {
		doc = d
	}

	return &Function{Name: name, Signature: header, Doc: doc}, bodyStart
}

// parseClass parses a class header, its docstring, and first-level methods.
func parseClass(lines []string, start int) (*Class, int) {
	header, bodyStart, ok := readHeader(lines, start)
	if !ok {
		return nil, start + 1
	}

	class := &Class{Name: defName(header), Signature: header}
	if d, next, found := docstringAfter(lines, bodyStart); found {
		class.Doc = d
		bodyStart = next
	}

	// Methods live at the first indentation level below the class header.
	methodIndent := -1
	i := bodyStart
	for i < len(lines) {
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			i++
			continue
		}

		indent := indentOf(line)
		if indent == 0 {
			break // end of class body
		}
		if methodIndent == -1 {
			methodIndent = indent
		}
		if indent == methodIndent && (strings.HasPrefix(trimmed, "def ") || strings.HasPrefix(trimmed, "async def ")) {
			fn, next := parseFunction(lines, i)
			if fn != nil {
				class.Methods = append(class.Methods, *fn)
			}
			i = next
			continue
		}
		i++
	}

	return class, i
}

// readHeader joins a possibly multi-line def/class header into a single
// signature string without the trailing colon. ok is false when the paren
// balance never closes.
func readHeader(lines []string, start int) (header string, bodyStart int, ok bool) {
	var parts []string
	depth := 0
	for i := start; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		parts = append(parts, trimmed)
		depth += strings.Count(trimmed, "(") - strings.Count(trimmed, ")")
		// Covers both "def f(...):" and a bare "class Foo:" with no parens.
		if depth <= 0 && strings.HasSuffix(trimmed, ":") {
			joined := strings.TrimSuffix(strings.Join(parts, " "), ":")
			return normalizeSpaces(joined), i + 1, true
		}
	}
	return "", len(lines), false
}

// docstringAfter finds a docstring as the first statement at or after idx.
func docstringAfter(lines []string, idx int) (doc string, next int, found bool) {
	for i := idx; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		return readDocstring(lines, i)
	}
	return "", idx, false
}

// readDocstring reads a triple-quoted string starting at lines[i].
// Both """ and ''' delimiters are supported.
func readDocstring(lines []string, i int) (doc string, next int, ok bool) {
	trimmed := strings.TrimSpace(lines[i])

	var quote string
	switch {
	case strings.HasPrefix(trimmed, `"""`):
		quote = `"""`
	case strings.HasPrefix(trimmed, "'''"):
		quote = "'''"
	default:
		return "", i, false
	}

	rest := trimmed[len(quote):]
	// Single-line docstring: """text"""
	if end := strings.Index(rest, quote); end >= 0 {
		return strings.TrimSpace(rest[:end]), i + 1, true
	}

	var body []string
	if strings.TrimSpace(rest) != "" {
		body = append(body, rest)
	}
	for j := i + 1; j < len(lines); j++ {
		line := lines[j]
		if end := strings.Index(line, quote); end >= 0 {
			if chunk := line[:end]; strings.TrimSpace(chunk) != "" {
				body = append(body, chunk)
			}
			return dedent(body), j + 1, true
		}
		body = append(body, line)
	}
	// Unterminated docstring: take what we have.
	return dedent(body), len(lines), true
}

// dedent strips the common leading whitespace prefix from docstring lines.
// The prefix is compared literally so tab-indented docstrings keep their
// content intact.
func dedent(lines []string) string {
	prefix := ""
	found := false
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if !found {
			prefix = indent
			found = true
			continue
		}
		prefix = commonIndent(prefix, indent)
	}
	if prefix == "" {
		return strings.TrimSpace(strings.Join(lines, "\n"))
	}

	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			out = append(out, "")
			continue
		}
		out = append(out, strings.TrimPrefix(line, prefix))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func commonIndent(a, b string) string {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}

func indentOf(line string) int {
	n := 0
	for _, r := range line {
		switch r {
		case ' ':
			n++
		case '\t':
			n += 8
		default:
			return n
		}
	}
	return n
}

// defName extracts the identifier from a def/class header.
func defName(header string) string {
	header = strings.TrimPrefix(header, "async ")
	header = strings.TrimPrefix(header, "def ")
	header = strings.TrimPrefix(header, "class ")
	for i, r := range header {
		if r == '(' || r == ':' || r == ' ' {
			return header[:i]
		}
	}
	return header
}

func normalizeSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
