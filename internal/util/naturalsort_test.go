package util

import "testing"

func TestSortNaturalNumericRuns(t *testing.T) {
	items := []string{"Apartado 2", "Apartado 10", "Apartado 1"}
	SortNatural(items)
	want := []string{"Apartado 1", "Apartado 2", "Apartado 10"}
	for i := range want {
		if items[i] != want[i] {
			t.Fatalf("unexpected order: %v", items)
		}
	}
}

func TestNaturalCompareMixed(t *testing.T) {
	if !NaturalLess("2.3 Medios", "2.10 Medios") {
		t.Fatalf("2.3 should sort before 2.10")
	}
	if NaturalLess("b1", "a2") {
		t.Fatalf("letters should dominate digits")
	}
	if NaturalCompare("Anexo 07", "Anexo 7") != 0 {
		t.Fatalf("leading zeros should not affect ordering")
	}
}
