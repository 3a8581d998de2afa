package corpus

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var spaceRun = regexp.MustCompile(`[ \t]+`)

// extractMarkdown parses a markdown document and returns its title (text of
// the first h1/h2, empty when the document has none) and the plain body
// text, one paragraph-like block per blank-line-separated segment. Fenced
// code blocks and structural markup are dropped; only prose survives.
func extractMarkdown(source []byte) (string, string) {
	md := goldmark.New()
	reader := text.NewReader(source)
	doc := md.Parser().Parse(reader)

	var title string
	var blocks []string
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		switch n := node.(type) {
		case *ast.Heading:
			heading := strings.TrimSpace(string(n.Text(source)))
			if title == "" && (n.Level == 1 || n.Level == 2) {
				title = heading
				continue
			}
			if heading != "" {
				blocks = append(blocks, heading)
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
			continue
		default:
			txt := blockText(node, source)
			if txt != "" {
				blocks = append(blocks, txt)
			}
		}
	}
	return title, strings.Join(blocks, "\n\n")
}

func blockText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := node.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.ListItem:
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	cleaned := spaceRun.ReplaceAllString(sb.String(), " ")
	return strings.TrimSpace(cleaned)
}
