package util

import (
	"strings"
	"testing"
)

func TestLooksLikeHTMLByPromptID(t *testing.T) {
	if !LooksLikeHTML("1_2_HTML_1", "da igual el contenido") {
		t.Fatal("HTML prompt id was not classified as HTML")
	}
	if !LooksLikeHTML("2_1_VISUAL_3", "tabla comparativa") {
		t.Fatal("VISUAL prompt id was not classified as HTML")
	}
}

func TestLooksLikeHTMLSniffsFencedResponse(t *testing.T) {
	fenced := "```html\n<div class=\"resumen\"><p>Hitos del plan</p></div>\n```"
	if !LooksLikeHTML("1_2_TEXTO_1", fenced) {
		t.Fatal("html-fenced response was not classified as HTML")
	}
	bare := "```\n<table><tr><td>Fase 1</td></tr></table>\n```"
	if !LooksLikeHTML("1_2_TEXTO_1", bare) {
		t.Fatal("fenced table response was not classified as HTML")
	}
}

func TestLooksLikeHTMLRejectsMarkdown(t *testing.T) {
	if LooksLikeHTML("1_2_TEXTO_1", "## Metodología\nTexto normal.") {
		t.Fatal("markdown prose was classified as HTML")
	}
	if LooksLikeHTML("1_2_TEXTO_1", "```markdown\nContenido en prosa.\n```") {
		t.Fatal("fenced markdown was classified as HTML")
	}
}

func TestWrapHTMLFragmentDropsCodeFence(t *testing.T) {
	fenced := "```html\n<div class=\"resumen\"><p>Hitos del plan</p></div>\n```"
	doc := WrapHTMLFragment(fenced)
	if strings.Contains(doc, "```") {
		t.Fatalf("fence markers survived wrapping:\n%s", doc)
	}
	if !strings.Contains(doc, "<div class=\"tarjeta\">") {
		t.Fatalf("card wrapper missing:\n%s", doc)
	}
	if !strings.Contains(doc, "<div class=\"resumen\"><p>Hitos del plan</p></div>") {
		t.Fatalf("fragment body missing:\n%s", doc)
	}
}

func TestWrapHTMLFragmentKeepsFullDocument(t *testing.T) {
	full := "```html\n<!DOCTYPE html>\n<html><body><p>Documento completo</p></body></html>\n```"
	doc := WrapHTMLFragment(full)
	if strings.Contains(doc, "```") {
		t.Fatalf("fence markers survived wrapping:\n%s", doc)
	}
	if strings.Count(doc, "<!DOCTYPE") != 1 {
		t.Fatalf("full document was wrapped again:\n%s", doc)
	}
}
