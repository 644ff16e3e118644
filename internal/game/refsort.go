package game

import (
	"strings"
	"unicode"
)

// CompareRefs orders two reference numbers for reporting and display:
// numeric-prefix-aware ("2" before "10", "2a" after "2"), case-insensitive,
// blanks last. Returns <0, 0, >0 in the usual comparator convention.
func CompareRefs(a, b string) int {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)

	if a == "" && b == "" {
		return 0
	}
	if a == "" {
		return 1
	}
	if b == "" {
		return -1
	}
	return compareNatural(strings.ToLower(a), strings.ToLower(b))
}

// compareNatural compares alternating runs of digits and non-digits; digit
// runs compare as numbers, the rest lexically.
func compareNatural(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	i, j := 0, 0
	for i < len(ra) && j < len(rb) {
		da, db := unicode.IsDigit(ra[i]), unicode.IsDigit(rb[j])
		switch {
		case da && db:
			na, ni := takeNumber(ra, i)
			nb, nj := takeNumber(rb, j)
			if na != nb {
				if na < nb {
					return -1
				}
				return 1
			}
			i, j = ni, nj
		case da != db:
			// A digit run sorts before a non-digit run at the same position.
			if da {
				return -1
			}
			return 1
		default:
			if ra[i] != rb[j] {
				if ra[i] < rb[j] {
					return -1
				}
				return 1
			}
			i++
			j++
		}
	}
	switch {
	case i < len(ra):
		return 1
	case j < len(rb):
		return -1
	default:
		return 0
	}
}

// takeNumber parses the digit run starting at i, returning its value and the
// index just past it. Values are capped rather than overflowing.
func takeNumber(r []rune, i int) (int64, int) {
	var n int64
	for i < len(r) && unicode.IsDigit(r[i]) {
		if n < 1<<53 {
			n = n*10 + int64(r[i]-'0')
		}
		i++
	}
	return n, i
}
