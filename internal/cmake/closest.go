package cmake

import (
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const (
	closeMatchCutoff = 0.6
	closeMatchLimit  = 3
)

// closeMatches returns up to three candidates whose similarity ratio to
// word is at least the cutoff, best first.
func closeMatches(word string, candidates []string) []string {
	type scored struct {
		name  string
		ratio float64
	}

	wordChars := strings.Split(word, "")
	var matches []scored
	for _, candidate := range candidates {
		m := difflib.NewMatcher(strings.Split(candidate, ""), wordChars)
		if ratio := m.Ratio(); ratio >= closeMatchCutoff {
			matches = append(matches, scored{candidate, ratio})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].ratio > matches[j].ratio
	})
	if len(matches) > closeMatchLimit {
		matches = matches[:closeMatchLimit]
	}

	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.name
	}
	return out
}
