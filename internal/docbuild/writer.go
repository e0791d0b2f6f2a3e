package docbuild

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/fumiama/go-docx"
)

// WriteDocx renders the block list as a .docx stream.
func WriteDocx(blocks []Block, w io.Writer) error {
	doc := docx.New().WithDefaultTheme()
	for _, b := range blocks {
		switch b.Kind {
		case BlockPageBreak:
			doc.AddParagraph().AddPageBreaks()
		case BlockHeading:
			p := doc.AddParagraph().Style("Heading" + strconv.Itoa(b.Level))
			addInlines(p, b.Inlines)
		case BlockParagraph:
			addInlines(doc.AddParagraph(), b.Inlines)
		case BlockListItem:
			p := doc.AddParagraph().Style("ListParagraph")
			marker := "• "
			if b.Ordered {
				marker = strconv.Itoa(b.Number) + ". "
			}
			p.AddText(marker)
			addInlines(p, b.Inlines)
		case BlockImage:
			if len(b.PNG) == 0 {
				continue
			}
			if _, err := doc.AddParagraph().AddInlineDrawing(b.PNG); err != nil {
				return fmt.Errorf("embed image: %w", err)
			}
		}
	}
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}

// Bytes renders the document body to .docx bytes.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteDocx(d.BlockList, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func addInlines(p *docx.Paragraph, inlines []Inline) {
	for _, in := range inlines {
		r := p.AddText(in.Text)
		if in.Bold {
			r.Bold()
		}
		if in.Italic {
			r.Italic()
		}
	}
}
