// Package natsort implements natural string ordering: digit runs compare by
// numeric value instead of character code, so "img2" sorts before "img10".
package natsort

import (
	"path/filepath"
	"sort"
	"strings"
)

// Compare returns -1, 0 or 1 comparing a and b naturally.
// Non-digit runs compare case-insensitively; digit runs compare by value
// without parsing, so arbitrarily long runs cannot overflow.
func Compare(a, b string) int {
	for a != "" || b != "" {
		ca, ra, da := chunk(a)
		cb, rb, db := chunk(b)
		a, b = ra, rb

		if da && db {
			if c := compareDigits(ca, cb); c != 0 {
				return c
			}
			continue
		}
		// A digit run sorts before a non-digit run, matching plain byte
		// order ('0'-'9' precede letters).
		if da != db {
			if da {
				return -1
			}
			return 1
		}
		if c := strings.Compare(strings.ToLower(ca), strings.ToLower(cb)); c != 0 {
			return c
		}
	}
	return 0
}

// Less reports whether a sorts before b.
func Less(a, b string) bool {
	return Compare(a, b) < 0
}

// Sort orders the strings naturally in place.
func Sort(ss []string) {
	sort.SliceStable(ss, func(i, j int) bool { return Less(ss[i], ss[j]) })
}

// SortPaths orders file paths by natural comparison of their base names.
func SortPaths(paths []string) {
	sort.SliceStable(paths, func(i, j int) bool {
		return Less(filepath.Base(paths[i]), filepath.Base(paths[j]))
	})
}

// chunk splits off the leading run of digits or non-digits.
func chunk(s string) (head, tail string, digits bool) {
	if s == "" {
		return "", "", false
	}
	digits = isDigit(s[0])
	i := 1
	for i < len(s) && isDigit(s[i]) == digits {
		i++
	}
	return s[:i], s[i:], digits
}

// compareDigits compares two digit runs numerically. Leading zeros are
// stripped first; equal values with different padding compare equal so the
// remaining chunks decide.
func compareDigits(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
