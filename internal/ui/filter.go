package ui

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/hirmes/hirmes/internal/results"
)

// FilterRows returns the indexes of v's rows whose path or matched terms
// fuzzily contain term, in view order. An empty term keeps every row.
func FilterRows(v results.View, term string) []int {
	term = strings.TrimSpace(term)
	out := make([]int, 0, len(v.Rows))
	for i, cells := range v.Rows {
		if term == "" || matches(term, cells) {
			out = append(out, i)
		}
	}
	return out
}

func matches(term string, cells []string) bool {
	if len(cells) == 0 {
		return false
	}
	if fuzzy.MatchFold(term, cells[0]) {
		return true
	}
	if len(cells) > 2 {
		for _, t := range strings.Split(cells[2], "\n") {
			if fuzzy.MatchFold(term, t) {
				return true
			}
		}
	}
	return false
}
