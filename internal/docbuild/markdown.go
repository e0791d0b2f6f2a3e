package docbuild

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
)

// ParseMarkdown maps Markdown prose onto document blocks: headings cap at
// level 4, ordered and bullet lists become list items, **bold** and *italic*
// runs survive as styled inlines. Anything else degrades to plain paragraphs.
func ParseMarkdown(src string) []Block {
	source := []byte(src)
	doc := goldmark.DefaultParser().Parse(gmtext.NewReader(source))

	var out []Block
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		out = appendNode(out, n, source)
	}
	return out
}

func appendNode(out []Block, n ast.Node, source []byte) []Block {
	switch node := n.(type) {
	case *ast.Heading:
		level := node.Level
		if level > 4 {
			level = 4
		}
		out = append(out, Block{Kind: BlockHeading, Level: level, Inlines: collectInlines(node, source, false, false)})
	case *ast.Paragraph, *ast.TextBlock:
		inlines := collectInlines(n, source, false, false)
		if len(inlines) > 0 {
			out = append(out, Block{Kind: BlockParagraph, Inlines: inlines})
		}
	case *ast.List:
		number := node.Start
		if number <= 0 {
			number = 1
		}
		for item := node.FirstChild(); item != nil; item = item.NextSibling() {
			out = appendListItem(out, item, source, node.IsOrdered(), number)
			number++
		}
	case *ast.Blockquote, *ast.FencedCodeBlock, *ast.CodeBlock:
		text := strings.TrimSpace(string(rawText(n, source)))
		if text != "" {
			out = append(out, Block{Kind: BlockParagraph, Inlines: []Inline{{Text: text}}})
		}
	}
	return out
}

func appendListItem(out []Block, item ast.Node, source []byte, ordered bool, number int) []Block {
	first := true
	for c := item.FirstChild(); c != nil; c = c.NextSibling() {
		switch c.(type) {
		case *ast.TextBlock, *ast.Paragraph:
			inlines := collectInlines(c, source, false, false)
			if len(inlines) == 0 {
				continue
			}
			if first {
				out = append(out, Block{Kind: BlockListItem, Ordered: ordered, Number: number, Inlines: inlines})
				first = false
			} else {
				out = append(out, Block{Kind: BlockParagraph, Inlines: inlines})
			}
		case *ast.List:
			// Nested lists flatten to their own items.
			out = appendNode(out, c, source)
		}
	}
	return out
}

func collectInlines(n ast.Node, source []byte, bold, italic bool) []Inline {
	var out []Inline
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch node := c.(type) {
		case *ast.Text:
			text := string(node.Segment.Value(source))
			if text != "" {
				out = append(out, Inline{Text: text, Bold: bold, Italic: italic})
			}
			if node.SoftLineBreak() || node.HardLineBreak() {
				out = append(out, Inline{Text: " ", Bold: bold, Italic: italic})
			}
		case *ast.Emphasis:
			b, i := bold, italic
			if node.Level >= 2 {
				b = true
			} else {
				i = true
			}
			out = append(out, collectInlines(node, source, b, i)...)
		case *ast.CodeSpan:
			out = append(out, Inline{Text: string(rawText(node, source)), Bold: bold, Italic: italic})
		case *ast.Link:
			out = append(out, collectInlines(node, source, bold, italic)...)
		default:
			out = append(out, collectInlines(c, source, bold, italic)...)
		}
	}
	return out
}

func rawText(n ast.Node, source []byte) []byte {
	var b strings.Builder
	if lines := n.Lines(); lines != nil && lines.Len() > 0 {
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			b.Write(seg.Value(source))
		}
		return []byte(b.String())
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			b.Write(t.Segment.Value(source))
		} else {
			b.Write(rawText(c, source))
		}
	}
	return []byte(b.String())
}
