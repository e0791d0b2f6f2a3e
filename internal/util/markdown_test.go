package util

import "testing"

func TestRenumberOrderedListsSkippedNumbers(t *testing.T) {
	in := "3. primero\n7. segundo\n9. tercero"
	want := "1. primero\n2. segundo\n3. tercero"
	if out := RenumberOrderedLists(in); out != want {
		t.Fatalf("unexpected renumbering:\n%s", out)
	}
}

func TestRenumberOrderedListsRestartsAfterInterruption(t *testing.T) {
	in := "2. uno\n5. dos\n\npárrafo intermedio\n\n4. otra lista\n8. sigue"
	want := "1. uno\n2. dos\n\npárrafo intermedio\n\n1. otra lista\n2. sigue"
	if out := RenumberOrderedLists(in); out != want {
		t.Fatalf("unexpected renumbering:\n%s", out)
	}
}

func TestRenumberOrderedListsLeavesProseAlone(t *testing.T) {
	in := "El plazo es de 3. No obstante...\nTexto normal."
	if out := RenumberOrderedLists(in); out != in {
		t.Fatalf("prose was modified:\n%s", out)
	}
}

func TestStripResponseWrapperFenceAndIntro(t *testing.T) {
	in := "Aquí tienes el desarrollo:\n## Metodología\nEl equipo propuesto cubre todas las fases."
	out := StripResponseWrapper(in, "Metodología")
	if out != "El equipo propuesto cubre todas las fases." {
		t.Fatalf("unexpected strip result: %q", out)
	}
}

func TestStripResponseWrapperCodeFence(t *testing.T) {
	in := "```markdown\nContenido real.\n```"
	if out := StripResponseWrapper(in, ""); out != "Contenido real." {
		t.Fatalf("unexpected strip result: %q", out)
	}
}

func TestStripResponseWrapperKeepsUnrelatedHeading(t *testing.T) {
	in := "## Plan de trabajo\nDetalle."
	out := StripResponseWrapper(in, "Metodología")
	if out != in {
		t.Fatalf("unrelated heading was stripped: %q", out)
	}
}
