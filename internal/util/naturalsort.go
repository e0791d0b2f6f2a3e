package util

import (
	"sort"
	"strings"
	"unicode"
)

// NaturalCompare orders strings the way a person reading section numbers
// expects: digit runs compare as integers, so "2" sorts before "10".
// Non-digit runs compare case-insensitively.
func NaturalCompare(a, b string) int {
	ar, br := []rune(a), []rune(b)
	i, j := 0, 0
	for i < len(ar) && j < len(br) {
		if unicode.IsDigit(ar[i]) && unicode.IsDigit(br[j]) {
			si := i
			for i < len(ar) && unicode.IsDigit(ar[i]) {
				i++
			}
			sj := j
			for j < len(br) && unicode.IsDigit(br[j]) {
				j++
			}
			na := strings.TrimLeft(string(ar[si:i]), "0")
			nb := strings.TrimLeft(string(br[sj:j]), "0")
			if len(na) != len(nb) {
				if len(na) < len(nb) {
					return -1
				}
				return 1
			}
			if na != nb {
				if na < nb {
					return -1
				}
				return 1
			}
			continue
		}
		ca := unicode.ToLower(ar[i])
		cb := unicode.ToLower(br[j])
		if ca != cb {
			if ca < cb {
				return -1
			}
			return 1
		}
		i++
		j++
	}
	switch {
	case i < len(ar):
		return 1
	case j < len(br):
		return -1
	default:
		return 0
	}
}

func NaturalLess(a, b string) bool { return NaturalCompare(a, b) < 0 }

func SortNatural(items []string) {
	sort.SliceStable(items, func(i, j int) bool { return NaturalLess(items[i], items[j]) })
}
