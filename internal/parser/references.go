package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark/ast"
)

// Markers delimiting a declared-link block. The opening marker may carry a
// scope after the keyword: <!-- AUTO-LINKS:skills -->.
const (
	DeclaredOpen  = "<!-- AUTO-LINKS"
	DeclaredClose = "<!-- /AUTO-LINKS -->"
)

var mdLink = regexp.MustCompile(`\[[^\]]*\]\(([^)]*)\)`)

// DeclaredEntry is one entry of a declared-link block. Source is empty when
// the entry names only a target, in which case the declaring document is
// the source.
type DeclaredEntry struct {
	Source string
	Target string
	Line   int
}

// ExtractProseLinks returns the destinations of inline links in document
// order, deduplicated. Images and autolinks are not references.
func ExtractProseLinks(body []byte) []string {
	doc := parseMarkdown(body)

	seen := map[string]bool{}
	var out []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		link, ok := n.(*ast.Link)
		if !ok {
			return ast.WalkContinue, nil
		}
		dest := strings.TrimSpace(string(link.Destination))
		if dest != "" && !seen[dest] {
			seen[dest] = true
			out = append(out, dest)
		}
		return ast.WalkContinue, nil
	})
	return out
}

// ExtractDeclared scans data for declared-link blocks. Entries are
// "source -> target" or a Markdown link; a list bullet before either is
// allowed. Any other non-blank line is returned as malformed, as is an
// opening marker with no closing marker (the entries up to end of file are
// still kept).
func ExtractDeclared(data []byte) ([]DeclaredEntry, []string) {
	lines := strings.Split(string(data), "\n")

	var (
		entries   []DeclaredEntry
		malformed []string
		inBlock   bool
		openLine  int
	)
	seen := map[[2]string]bool{}
	add := func(e DeclaredEntry) {
		key := [2]string{e.Source, e.Target}
		if seen[key] {
			return
		}
		seen[key] = true
		entries = append(entries, e)
	}

	for i, raw := range lines {
		lineNo := i + 1
		line := strings.TrimSpace(strings.TrimSuffix(raw, "\r"))

		if !inBlock {
			if strings.HasPrefix(line, DeclaredOpen) {
				inBlock = true
				openLine = lineNo
			}
			continue
		}
		if line == DeclaredClose {
			inBlock = false
			continue
		}
		if line == "" || (strings.HasPrefix(line, "<!--") && strings.HasSuffix(line, "-->")) {
			continue
		}

		entry := strings.TrimSpace(trimBullet(line))
		if src, dst, ok := strings.Cut(entry, "->"); ok {
			src, dst = strings.TrimSpace(src), strings.TrimSpace(dst)
			if src == "" || dst == "" {
				malformed = append(malformed, fmt.Sprintf("line %d: %q", lineNo, line))
				continue
			}
			add(DeclaredEntry{Source: src, Target: dst, Line: lineNo})
			continue
		}

		matches := mdLink.FindAllStringSubmatch(entry, -1)
		if len(matches) == 0 {
			malformed = append(malformed, fmt.Sprintf("line %d: %q", lineNo, line))
			continue
		}
		for _, m := range matches {
			target := linkTarget(m[1])
			if target == "" {
				malformed = append(malformed, fmt.Sprintf("line %d: %q", lineNo, line))
				continue
			}
			add(DeclaredEntry{Target: target, Line: lineNo})
		}
	}

	if inBlock {
		malformed = append(malformed,
			fmt.Sprintf("line %d: declared block is not closed with %s", openLine, DeclaredClose))
	}
	return entries, malformed
}

func trimBullet(s string) string {
	for _, b := range []string{"- ", "* ", "+ "} {
		if strings.HasPrefix(s, b) {
			return s[len(b):]
		}
	}
	return s
}

// linkTarget drops an optional link title: (path "title").
func linkTarget(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		s = s[:i]
	}
	return strings.Trim(s, "<>")
}
