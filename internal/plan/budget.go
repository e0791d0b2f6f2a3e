// Package plan implements the page/character budget arithmetic applied to
// the plan_extension breakdown of a tender index.
package plan

import (
	"math"
	"unicode"

	"memoflow/internal/models"
)

// Calibration fixes the characters-per-page conversion and the shrink factor
// applied to avoid overshooting declared page limits.
type Calibration struct {
	SafetyFactor    float64
	MinCharsPerPage int
	MaxCharsPerPage int
}

func DefaultCalibration() Calibration {
	return Calibration{SafetyFactor: 0.85, MinCharsPerPage: 3500, MaxCharsPerPage: 3800}
}

// ApplySafetyMargin shrinks the total page target by the safety factor and
// rescales every apartado and subapartado proportionally, then recomputes the
// character ranges. The input is returned unchanged (and no error is ever
// raised) when: max_paginas has no parseable integer, the plan's page total
// is zero, or the total is 3 pages or fewer.
func ApplySafetyMargin(idx models.TenderIndex, cal Calibration) models.TenderIndex {
	if _, ok := firstInt(idx.Configuracion.MaxPaginas); !ok {
		return idx
	}
	total := 0.0
	for _, ap := range idx.PlanExtension {
		total += ap.PaginasSugeridasApartado.Float()
	}
	if total == 0 || total <= 3 {
		return idx
	}

	adjustedTotal := total * cal.SafetyFactor
	out := idx
	out.PlanExtension = make([]models.ApartadoPlan, len(idx.PlanExtension))
	for i, ap := range idx.PlanExtension {
		subTotal := 0.0
		for _, sp := range ap.DesgloseSubapartados {
			subTotal += sp.PaginasSugeridas.Float()
		}
		// A zero subapartado sum makes per-subapartado shares undefined, so
		// that apartado keeps its declared pages and breakdown as-is.
		if subTotal == 0 {
			out.PlanExtension[i] = ap
			continue
		}

		scaled := ap
		scale := ap.PaginasSugeridasApartado.Float() / total
		adjPages := adjustedTotal * scale
		scaled.PaginasSugeridasApartado = models.FlexFloat(adjPages)

		scaled.DesgloseSubapartados = make([]models.SubapartadoPlan, len(ap.DesgloseSubapartados))
		for j, sp := range ap.DesgloseSubapartados {
			adj := sp
			subPages := adjPages * (sp.PaginasSugeridas.Float() / subTotal)
			adj.PaginasSugeridas = models.FlexFloat(subPages)
			adj.MinCaracteresSugeridos = int(math.Round(subPages * float64(cal.MinCharsPerPage)))
			adj.MaxCaracteresSugeridos = int(math.Round(subPages * float64(cal.MaxCharsPerPage)))
			scaled.DesgloseSubapartados[j] = adj
		}
		out.PlanExtension[i] = scaled
	}
	return out
}

// firstInt extracts the first integer run from free text like
// "máximo 25 páginas a una cara". Returns false when no digits exist.
func firstInt(s string) (int, bool) {
	n := 0
	found := false
	for _, r := range s {
		if unicode.IsDigit(r) {
			n = n*10 + int(r-'0')
			found = true
			continue
		}
		if found {
			break
		}
	}
	return n, found
}
