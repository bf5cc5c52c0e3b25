package parser

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/starford/skillgate/internal/models"
	"github.com/starford/skillgate/internal/tokens"
)

type heading struct {
	level     int
	text      string
	start     int // first byte of the heading line
	bodyStart int // first byte after the heading line(s)
}

// parseMarkdown builds a goldmark AST. A parser is created per call so
// concurrent workers never share one.
func parseMarkdown(src []byte) ast.Node {
	return goldmark.DefaultParser().Parse(text.NewReader(src))
}

// ExtractSections splits body into ordered sections. A section's body runs
// until the next heading of equal or shallower level, so parents include
// their subsections. Offsets are shifted by base so they index the whole
// document. Headings inside code blocks are not headings.
func ExtractSections(body []byte, base int, est tokens.Estimator) []models.Section {
	if est == nil {
		est = tokens.Default
	}
	hs := findHeadings(body)

	var out []models.Section
	preambleEnd := len(body)
	if len(hs) > 0 {
		preambleEnd = hs[0].start
	}
	if pre := string(body[:preambleEnd]); strings.TrimSpace(pre) != "" {
		out = append(out, models.Section{
			Level:      0,
			Body:       pre,
			TokenCount: est(pre),
			Start:      base,
			End:        base + preambleEnd,
		})
	}

	for i, h := range hs {
		end := len(body)
		for _, next := range hs[i+1:] {
			if next.level <= h.level {
				end = next.start
				break
			}
		}
		b := string(body[h.bodyStart:max(end, h.bodyStart)])
		out = append(out, models.Section{
			Heading:    h.text,
			Level:      h.level,
			Body:       b,
			TokenCount: est(b),
			Start:      base + h.start,
			End:        base + end,
		})
	}
	return out
}

func findHeadings(src []byte) []heading {
	doc := parseMarkdown(src)

	var hs []heading
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok {
			continue
		}
		lines := h.Lines()
		if lines.Len() == 0 {
			// Empty ATX heading ("##"); it has no text to match against.
			continue
		}
		first, last := lines.At(0), lines.At(lines.Len()-1)
		start := lineStart(src, first.Start)
		bodyStart := lineEnd(src, max(last.Start, last.Stop-1))
		if !isATX(src[start:]) {
			// Setext heading: skip the underline too.
			bodyStart = lineEnd(src, bodyStart)
		}
		hs = append(hs, heading{
			level:     h.Level,
			text:      nodeText(h, src),
			start:     start,
			bodyStart: bodyStart,
		})
	}
	return hs
}

func lineStart(src []byte, pos int) int {
	for pos > 0 && src[pos-1] != '\n' {
		pos--
	}
	return pos
}

// lineEnd returns the offset just past the newline ending the line at pos.
func lineEnd(src []byte, pos int) int {
	for pos < len(src) {
		if src[pos] == '\n' {
			return pos + 1
		}
		pos++
	}
	return len(src)
}

func isATX(line []byte) bool {
	s := strings.TrimLeft(string(line), " ")
	return strings.HasPrefix(s, "#")
}

func nodeText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// NormalizeHeading folds case and whitespace so headings compare verbatim
// modulo case.
func NormalizeHeading(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
