package plan

import (
	"testing"

	"memoflow/internal/models"
)

func TestCountFragmentsAndSubstitution(t *testing.T) {
	tasks := []models.PromptTask{
		{ApartadoReferencia: "1", SubapartadoReferencia: "1.1", PromptID: "P1_TEXTO"},
		{ApartadoReferencia: "1", SubapartadoReferencia: "1.1", PromptID: "P2_VISUAL"},
		{ApartadoReferencia: "2", SubapartadoReferencia: "2.1", PromptID: "P3_TEXTO"},
	}
	counts := CountFragments(tasks)
	if FragmentsFor(counts, "1", "1.1") != 2 {
		t.Fatalf("expected 2 fragments for 1.1")
	}
	if FragmentsFor(counts, "9", "9.9") != 1 {
		t.Fatalf("unknown subapartado must default to 1 fragment")
	}

	prompt := "Escribe entre {min_chars_fragmento} y {max_chars_fragmento} caracteres."
	if !NeedsFragmentBudget(prompt) {
		t.Fatalf("placeholder not detected")
	}
	out := SubstituteFragmentBudget(prompt, 7000, 7600, 2)
	if out != "Escribe entre 3500 y 3800 caracteres." {
		t.Fatalf("unexpected substitution: %q", out)
	}
}

func TestSubapartadoBudgetFallback(t *testing.T) {
	cal := DefaultCalibration()
	idx := models.TenderIndex{}
	minC, maxC := SubapartadoBudget(idx, "1", "1.1", cal)
	if minC != cal.MinCharsPerPage || maxC != cal.MaxCharsPerPage {
		t.Fatalf("unexpected fallback budget %d %d", minC, maxC)
	}
}
