package plan

import (
	"strconv"
	"strings"

	"memoflow/internal/models"
)

const (
	minFragmentPlaceholder = "{min_chars_fragmento}"
	maxFragmentPlaceholder = "{max_chars_fragmento}"
)

func fragmentKey(apartado, subapartado string) string {
	return apartado + "\x00" + subapartado
}

// CountFragments returns, per subapartado, how many generation tasks the
// unified plan holds for it. The assembler divides each subapartado's
// character budget evenly across that count.
func CountFragments(tasks []models.PromptTask) map[string]int {
	out := make(map[string]int, len(tasks))
	for _, t := range tasks {
		out[fragmentKey(t.ApartadoReferencia, t.SubapartadoReferencia)]++
	}
	return out
}

func FragmentsFor(counts map[string]int, apartado, subapartado string) int {
	if n := counts[fragmentKey(apartado, subapartado)]; n > 0 {
		return n
	}
	return 1
}

// SubapartadoBudget looks up the character range planned for a subapartado,
// falling back to one page at the calibration's chars-per-page when the plan
// has no entry (the index tolerates missing breakdown entries).
func SubapartadoBudget(idx models.TenderIndex, apartado, subapartado string, cal Calibration) (minChars, maxChars int) {
	for _, ap := range idx.PlanExtension {
		if !strings.EqualFold(strings.TrimSpace(ap.Apartado), strings.TrimSpace(apartado)) {
			continue
		}
		for _, sp := range ap.DesgloseSubapartados {
			if strings.EqualFold(strings.TrimSpace(sp.Subapartado), strings.TrimSpace(subapartado)) {
				if sp.MinCaracteresSugeridos > 0 && sp.MaxCaracteresSugeridos > 0 {
					return sp.MinCaracteresSugeridos, sp.MaxCaracteresSugeridos
				}
			}
		}
	}
	return cal.MinCharsPerPage, cal.MaxCharsPerPage
}

// NeedsFragmentBudget reports whether a prompt still carries budget
// placeholders to substitute.
func NeedsFragmentBudget(prompt string) bool {
	return strings.Contains(prompt, minFragmentPlaceholder) || strings.Contains(prompt, maxFragmentPlaceholder)
}

// SubstituteFragmentBudget fills the per-fragment placeholders with the
// subapartado budget divided by its fragment count.
func SubstituteFragmentBudget(prompt string, minChars, maxChars, fragments int) string {
	if fragments <= 0 {
		fragments = 1
	}
	prompt = strings.ReplaceAll(prompt, minFragmentPlaceholder, strconv.Itoa(minChars/fragments))
	prompt = strings.ReplaceAll(prompt, maxFragmentPlaceholder, strconv.Itoa(maxChars/fragments))
	return prompt
}
