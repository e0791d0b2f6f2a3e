package docbuild

import "memoflow/internal/models"

// ComposeFinal builds the deliverable: title page, table of contents from
// the index structure, the generated introduction, then the body on a fresh
// page.
func ComposeFinal(titulo string, estructura []models.Apartado, introMarkdown string, body *Document) *Document {
	final := &Document{}
	final.AddHeading(titulo, 1)

	final.AddHeading("Índice", 2)
	for _, ap := range estructura {
		final.AddParagraphText(ap.Apartado)
		for _, sub := range ap.Subapartados {
			final.AddParagraphText("    " + sub)
		}
	}

	final.AddPageBreak()
	final.AddHeading("Introducción", 1)
	final.AppendMarkdown(introMarkdown)

	final.AddPageBreak()
	final.Append(body)
	return final
}
