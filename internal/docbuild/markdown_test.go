package docbuild

import "testing"

func TestParseMarkdownHeadingsAndLists(t *testing.T) {
	src := "## Enfoque\n\nTexto con **énfasis** normal.\n\n1. primero\n2. segundo\n\n- punto"
	blocks := ParseMarkdown(src)
	if len(blocks) != 5 {
		t.Fatalf("expected 5 blocks, got %d: %+v", len(blocks), blocks)
	}
	if blocks[0].Kind != BlockHeading || blocks[0].Level != 2 {
		t.Fatalf("heading not mapped: %+v", blocks[0])
	}
	if blocks[1].Kind != BlockParagraph {
		t.Fatalf("paragraph not mapped: %+v", blocks[1])
	}
	bold := false
	for _, in := range blocks[1].Inlines {
		if in.Text == "énfasis" && in.Bold {
			bold = true
		}
	}
	if !bold {
		t.Fatalf("bold run lost: %+v", blocks[1].Inlines)
	}
	if !blocks[2].Ordered || blocks[2].Number != 1 || !blocks[3].Ordered || blocks[3].Number != 2 {
		t.Fatalf("ordered list numbering wrong: %+v %+v", blocks[2], blocks[3])
	}
	if blocks[4].Kind != BlockListItem || blocks[4].Ordered {
		t.Fatalf("bullet item wrong: %+v", blocks[4])
	}
}

func TestParseMarkdownDeepHeadingCaps(t *testing.T) {
	blocks := ParseMarkdown("###### Muy profundo")
	if len(blocks) != 1 || blocks[0].Level != 4 {
		t.Fatalf("heading level not capped: %+v", blocks)
	}
}

func TestDocumentHeadingClamp(t *testing.T) {
	d := &Document{}
	d.AddHeading("x", 9)
	if d.BlockList[0].Level != 4 {
		t.Fatalf("level not clamped: %+v", d.BlockList[0])
	}
}
