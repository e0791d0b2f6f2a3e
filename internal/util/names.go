package util

import "strings"

// CleanFolderName strips the characters the document store rejects in
// folder and file names.
func CleanFolderName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch r {
		case '[', ']', '\\', '/', '*', '?', ':', '"', '<', '>', '|':
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// LotFileSuffix turns a lot name into the suffix used in per-lot filenames,
// e.g. "Lote 2: Mantenimiento" -> "Lote_2_Mantenimiento".
func LotFileSuffix(lot string) string {
	cleaned := CleanFolderName(lot)
	return strings.Join(strings.Fields(cleaned), "_")
}
