package pipeline

import (
	"html"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// LinkStyle is the inline style applied to body anchors.
const LinkStyle = "color: #007acc; text-decoration: none;"

var (
	inlineLink   = regexp.MustCompile(`\[(.+?)\]\(((?:https?://|mailto:)[^)]+)\)`)
	inlineBold   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	inlineItalic = regexp.MustCompile(`\*(.+?)\*`)
)

// plainParser is shared; goldmark parsers hold no per-document state.
var plainParser parser.Parser = goldmark.DefaultParser()

// RenderInline converts the three inline spans the newsletter supports:
// [text](url) for http, https and mailto targets, **bold** and *italic*.
// linkFn, when non-nil, rewrites each link target. Nested emphasis,
// code spans, tables and lists are not handled; other text passes through
// as-is so authors may embed HTML.
func RenderInline(s string, linkFn func(string) string) string {
	s = inlineLink.ReplaceAllStringFunc(s, func(match string) string {
		m := inlineLink.FindStringSubmatch(match)
		target := m[2]
		if linkFn != nil {
			target = linkFn(target)
		}
		return `<a href="` + html.EscapeString(target) + `" style="` + LinkStyle + `">` + m[1] + `</a>`
	})
	s = inlineBold.ReplaceAllString(s, "<strong>$1</strong>")
	s = inlineItalic.ReplaceAllString(s, "<em>$1</em>")
	return s
}

// Paragraphs splits text on blank lines, dropping empty paragraphs.
func Paragraphs(s string) []string {
	var paras []string
	for _, p := range strings.Split(strings.TrimSpace(s), "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			paras = append(paras, p)
		}
	}
	return paras
}

// PlainText strips Markdown syntax, keeping only the visible text with
// runs of whitespace collapsed to single spaces.
func PlainText(markdown string) string {
	source := []byte(markdown)
	doc := plainParser.Parse(text.NewReader(source))

	var b strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock {
				b.WriteByte(' ')
			}
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Text:
			b.Write(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(node.Value)
		case *ast.AutoLink:
			b.Write(node.Label(source))
			return ast.WalkSkipChildren, nil
		case *ast.RawHTML, *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return strings.Join(strings.Fields(b.String()), " ")
}
