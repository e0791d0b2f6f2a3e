package plan

import (
	"math"
	"testing"

	"memoflow/internal/models"
)

func sampleIndex(maxPaginas string) models.TenderIndex {
	return models.TenderIndex{
		Configuracion: models.TenderConfig{MaxPaginas: maxPaginas},
		PlanExtension: []models.ApartadoPlan{
			{
				Apartado:                 "1. Metodología",
				PaginasSugeridasApartado: 6,
				DesgloseSubapartados: []models.SubapartadoPlan{
					{Subapartado: "1.1", PaginasSugeridas: 4, MinCaracteresSugeridos: 14000, MaxCaracteresSugeridos: 15200},
					{Subapartado: "1.2", PaginasSugeridas: 2, MinCaracteresSugeridos: 7000, MaxCaracteresSugeridos: 7600},
				},
			},
			{
				Apartado:                 "2. Equipo",
				PaginasSugeridasApartado: 4,
				DesgloseSubapartados: []models.SubapartadoPlan{
					{Subapartado: "2.1", PaginasSugeridas: 4, MinCaracteresSugeridos: 14000, MaxCaracteresSugeridos: 15200},
				},
			},
		},
	}
}

func TestApplySafetyMarginPreservesProportions(t *testing.T) {
	cal := DefaultCalibration()
	in := sampleIndex("máximo 25 páginas")
	out := ApplySafetyMargin(in, cal)

	sum := 0.0
	for _, ap := range out.PlanExtension {
		sum += ap.PaginasSugeridasApartado.Float()
	}
	if math.Abs(sum-10*cal.SafetyFactor) > 1e-6 {
		t.Fatalf("adjusted total %.4f, want %.4f", sum, 10*cal.SafetyFactor)
	}

	origShare := 6.0 / 10.0
	gotShare := out.PlanExtension[0].PaginasSugeridasApartado.Float() / sum
	if math.Abs(gotShare-origShare) > 1e-9 {
		t.Fatalf("apartado share changed: %.6f vs %.6f", gotShare, origShare)
	}

	sub := out.PlanExtension[0].DesgloseSubapartados[0]
	wantPages := 6 * cal.SafetyFactor * (4.0 / 6.0)
	if math.Abs(sub.PaginasSugeridas.Float()-wantPages) > 1e-6 {
		t.Fatalf("subapartado pages %.4f, want %.4f", sub.PaginasSugeridas.Float(), wantPages)
	}
	wantMin := int(math.Round(wantPages * float64(cal.MinCharsPerPage)))
	if sub.MinCaracteresSugeridos != wantMin {
		t.Fatalf("min chars %d, want %d", sub.MinCaracteresSugeridos, wantMin)
	}
}

func TestApplySafetyMarginSkipsSmallPlans(t *testing.T) {
	in := sampleIndex("20")
	in.PlanExtension = in.PlanExtension[:1]
	in.PlanExtension[0].PaginasSugeridasApartado = 3
	out := ApplySafetyMargin(in, DefaultCalibration())
	if out.PlanExtension[0].PaginasSugeridasApartado != 3 {
		t.Fatalf("small plan was adjusted: %+v", out.PlanExtension[0])
	}
	if out.PlanExtension[0].DesgloseSubapartados[0].MinCaracteresSugeridos != 14000 {
		t.Fatalf("small plan chars were adjusted")
	}
}

func TestApplySafetyMarginToleratesUnparseableMaxPages(t *testing.T) {
	for _, v := range []string{"N/D", "sin límite", ""} {
		in := sampleIndex(v)
		out := ApplySafetyMargin(in, DefaultCalibration())
		if out.PlanExtension[0].PaginasSugeridasApartado != in.PlanExtension[0].PaginasSugeridasApartado {
			t.Fatalf("max_paginas %q: structure was adjusted", v)
		}
	}
}

func TestApplySafetyMarginZeroDenominator(t *testing.T) {
	in := sampleIndex("20")
	for i := range in.PlanExtension {
		in.PlanExtension[i].PaginasSugeridasApartado = 0
	}
	out := ApplySafetyMargin(in, DefaultCalibration())
	if out.PlanExtension[0].DesgloseSubapartados[0].MinCaracteresSugeridos != 14000 {
		t.Fatalf("zero-total plan was adjusted")
	}
}

func TestApplySafetyMarginZeroSubTotalSkipsApartado(t *testing.T) {
	cal := DefaultCalibration()
	in := sampleIndex("20")
	for j := range in.PlanExtension[1].DesgloseSubapartados {
		in.PlanExtension[1].DesgloseSubapartados[j].PaginasSugeridas = 0
	}
	out := ApplySafetyMargin(in, cal)

	// The apartado with an undefined breakdown stays untouched, pages included.
	if out.PlanExtension[1].PaginasSugeridasApartado != 4 {
		t.Fatalf("apartado pages rescaled despite zero breakdown: %v", out.PlanExtension[1].PaginasSugeridasApartado)
	}
	if out.PlanExtension[1].DesgloseSubapartados[0].MinCaracteresSugeridos != 14000 {
		t.Fatalf("breakdown chars adjusted despite zero breakdown")
	}

	// Siblings with a valid breakdown still rescale.
	want := 10 * cal.SafetyFactor * (6.0 / 10.0)
	if math.Abs(out.PlanExtension[0].PaginasSugeridasApartado.Float()-want) > 1e-6 {
		t.Fatalf("sibling apartado pages %.4f, want %.4f", out.PlanExtension[0].PaginasSugeridasApartado.Float(), want)
	}
}

func TestFirstInt(t *testing.T) {
	if n, ok := firstInt("máximo 25 páginas, Arial 11"); !ok || n != 25 {
		t.Fatalf("got %d %v", n, ok)
	}
	if _, ok := firstInt("N/D"); ok {
		t.Fatalf("expected no integer")
	}
}
