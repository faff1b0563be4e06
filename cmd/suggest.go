package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

const maxSuggestDistance = 3

// suggest returns the candidate closest to name: fuzzy subsequence matches
// first, then anything within a small edit distance.
func suggest(name string, candidates []string) (string, bool) {
	if name == "" || len(candidates) == 0 {
		return "", false
	}

	ranks := fuzzy.RankFindFold(name, candidates)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target, true
	}

	best, bestDist := "", maxSuggestDistance+1
	lower := strings.ToLower(name)
	for _, c := range candidates {
		if d := fuzzy.LevenshteinDistance(lower, strings.ToLower(c)); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, best != ""
}

// notFoundMessage builds "<kind> '<name>' not found", adding a suggestion
// when one is close enough.
func notFoundMessage(kind, name string, candidates []string) string {
	msg := fmt.Sprintf("%s '%s' not found", kind, name)
	if s, ok := suggest(name, candidates); ok {
		msg += fmt.Sprintf(" (did you mean '%s'?)", s)
	}
	return msg
}
