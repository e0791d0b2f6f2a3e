package index

import (
	"strings"

	"memoflow/internal/models"
	"memoflow/internal/plan"
)

// Normalize trims names and fills the gaps the model left: every subapartado
// declared in estructura_memoria ends up with a matiz entry and a
// plan_extension breakdown entry, defaulting to one page at the calibration's
// character range. The invariant is best effort on input, guaranteed on
// output.
func Normalize(idx models.TenderIndex, cal plan.Calibration) models.TenderIndex {
	matices := make(map[string]struct{}, len(idx.Matices))
	for _, m := range idx.Matices {
		matices[key(m.Apartado, m.Subapartado)] = struct{}{}
	}
	planByApartado := make(map[string]int, len(idx.PlanExtension))
	for i, ap := range idx.PlanExtension {
		planByApartado[clean(ap.Apartado)] = i
	}

	for ai := range idx.Estructura {
		idx.Estructura[ai].Apartado = clean(idx.Estructura[ai].Apartado)
		ap := &idx.Estructura[ai]
		subs := ap.Subapartados[:0]
		for _, s := range ap.Subapartados {
			if s = clean(s); s != "" {
				subs = append(subs, s)
			}
		}
		ap.Subapartados = subs

		pi, ok := planByApartado[ap.Apartado]
		if !ok {
			idx.PlanExtension = append(idx.PlanExtension, models.ApartadoPlan{Apartado: ap.Apartado})
			pi = len(idx.PlanExtension) - 1
			planByApartado[ap.Apartado] = pi
		}
		existing := make(map[string]struct{}, len(idx.PlanExtension[pi].DesgloseSubapartados))
		for _, sp := range idx.PlanExtension[pi].DesgloseSubapartados {
			existing[clean(sp.Subapartado)] = struct{}{}
		}

		for _, sub := range ap.Subapartados {
			if _, ok := matices[key(ap.Apartado, sub)]; !ok {
				idx.Matices = append(idx.Matices, models.Matiz{Apartado: ap.Apartado, Subapartado: sub})
				matices[key(ap.Apartado, sub)] = struct{}{}
			}
			if _, ok := existing[sub]; !ok {
				idx.PlanExtension[pi].DesgloseSubapartados = append(idx.PlanExtension[pi].DesgloseSubapartados, models.SubapartadoPlan{
					Subapartado:            sub,
					PaginasSugeridas:       1,
					MinCaracteresSugeridos: cal.MinCharsPerPage,
					MaxCaracteresSugeridos: cal.MaxCharsPerPage,
				})
				existing[sub] = struct{}{}
			}
		}
	}
	return idx
}

// MatizFor returns the authoring guidance for a subapartado, or an empty
// value when the index has none.
func MatizFor(idx models.TenderIndex, apartado, subapartado string) models.Matiz {
	for _, m := range idx.Matices {
		if strings.EqualFold(clean(m.Apartado), clean(apartado)) && strings.EqualFold(clean(m.Subapartado), clean(subapartado)) {
			return m
		}
	}
	return models.Matiz{Apartado: apartado, Subapartado: subapartado}
}

func clean(s string) string { return strings.TrimSpace(s) }

func key(apartado, sub string) string {
	return strings.ToLower(clean(apartado)) + "\x00" + strings.ToLower(clean(sub))
}
