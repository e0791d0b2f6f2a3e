package util

import "testing"

func TestCleanFolderName(t *testing.T) {
	if out := CleanFolderName(`Lote 2: "Vigilancia" <norte>/sur`); out != "Lote 2 Vigilancia nortesur" {
		t.Fatalf("unexpected cleaned name: %q", out)
	}
}

func TestLotFileSuffix(t *testing.T) {
	if out := LotFileSuffix("Lote 2: Mantenimiento integral"); out != "Lote_2_Mantenimiento_integral" {
		t.Fatalf("unexpected suffix: %q", out)
	}
}

func TestLooksLikeHTML(t *testing.T) {
	if !LooksLikeHTML("P3_VISUAL_TABLA", "cualquier cosa") {
		t.Fatalf("prompt id convention not detected")
	}
	if !LooksLikeHTML("P1_TEXTO", "<table><tr><td>x</td></tr></table>") {
		t.Fatalf("leading table token not detected")
	}
	if LooksLikeHTML("P1_TEXTO", "Texto normal con <b>énfasis</b>.") {
		t.Fatalf("prose misclassified as HTML")
	}
}
