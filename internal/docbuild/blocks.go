// Package docbuild turns cleaned model output into a Word document. Content
// is accumulated as a flat block list first; the block list is what the
// assembly workflow checkpoints, the .docx bytes are only produced at the
// end.
package docbuild

type BlockKind string

const (
	BlockHeading   BlockKind = "heading"
	BlockParagraph BlockKind = "paragraph"
	BlockListItem  BlockKind = "list_item"
	BlockImage     BlockKind = "image"
	BlockPageBreak BlockKind = "page_break"
)

type Inline struct {
	Text   string `json:"text"`
	Bold   bool   `json:"bold,omitempty"`
	Italic bool   `json:"italic,omitempty"`
}

type Block struct {
	Kind    BlockKind `json:"kind"`
	Level   int       `json:"level,omitempty"`
	Ordered bool      `json:"ordered,omitempty"`
	Number  int       `json:"number,omitempty"`
	Inlines []Inline  `json:"inlines,omitempty"`
	PNG     []byte    `json:"png,omitempty"`
}

// Document is the in-memory body artifact built by the assembler.
type Document struct {
	BlockList []Block `json:"blocks"`
}

func (d *Document) AddHeading(text string, level int) {
	if level < 1 {
		level = 1
	}
	if level > 4 {
		level = 4
	}
	d.BlockList = append(d.BlockList, Block{Kind: BlockHeading, Level: level, Inlines: []Inline{{Text: text}}})
}

func (d *Document) AddPageBreak() {
	d.BlockList = append(d.BlockList, Block{Kind: BlockPageBreak})
}

func (d *Document) AddParagraphText(text string) {
	d.BlockList = append(d.BlockList, Block{Kind: BlockParagraph, Inlines: []Inline{{Text: text}}})
}

func (d *Document) AddImage(png []byte) {
	d.BlockList = append(d.BlockList, Block{Kind: BlockImage, PNG: png})
}

// AppendMarkdown parses Markdown prose and appends the resulting blocks.
func (d *Document) AppendMarkdown(src string) {
	d.BlockList = append(d.BlockList, ParseMarkdown(src)...)
}

func (d *Document) Append(other *Document) {
	d.BlockList = append(d.BlockList, other.BlockList...)
}
