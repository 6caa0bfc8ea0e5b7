package sortutil

import (
	"sort"
	"strings"
)

// Sorted returns a sorted copy of list. A nil or empty input yields an
// empty, non-nil slice so canonical encodings do not differ on nil vs [].
func Sorted(list []string) []string {
	out := make([]string, len(list))
	copy(out, list)
	sort.Strings(out)
	return out
}

// SortedLower maps every element through lower (strings.ToLower when nil),
// trims surrounding space and returns the results sorted.
func SortedLower(list []string, lower func(string) string) []string {
	if lower == nil {
		lower = strings.ToLower
	}
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = lower(strings.TrimSpace(s))
	}
	sort.Strings(out)
	return out
}
