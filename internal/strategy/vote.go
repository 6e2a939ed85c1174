package strategy

import (
	"fmt"
	"sort"
	"strings"
)

// fillerPrefixes are stripped from the front of an answer during
// normalization, in order; only the first match is removed.
var fillerPrefixes = []string{"the answer is", "therefore", "so", "thus", "hence"}

// NormalizeAnswer canonicalizes an answer for equality comparison during
// voting. The chain keeps the original text; the normalized form is only a
// comparison key. Idempotent.
func NormalizeAnswer(answer string) string {
	normalized := strings.TrimSpace(strings.ToLower(answer))
	for _, prefix := range fillerPrefixes {
		if strings.HasPrefix(normalized, prefix) {
			normalized = strings.TrimSpace(normalized[len(prefix):])
			break
		}
	}
	return strings.TrimRight(normalized, ".,!?")
}

// Candidate pairs a normalized answer with the original phrasing it came
// from.
type Candidate struct {
	Normalized string
	Original   string
}

// MajorityVote selects the most frequent normalized answer among the
// candidates. Ties go to the first-encountered group, and the returned text
// is the first original phrasing seen in the winning group. Confidence is
// the winning group's share of the candidates. Zero candidates yield
// ("", 0.0).
func MajorityVote(candidates []Candidate) (string, float64) {
	if len(candidates) == 0 {
		return "", 0.0
	}

	counts := make(map[string]int, len(candidates))
	var order []string
	for _, c := range candidates {
		if _, seen := counts[c.Normalized]; !seen {
			order = append(order, c.Normalized)
		}
		counts[c.Normalized]++
	}

	winner := order[0]
	for _, n := range order[1:] {
		if counts[n] > counts[winner] {
			winner = n
		}
	}

	var winningAnswer string
	for _, c := range candidates {
		if c.Normalized == winner {
			winningAnswer = c.Original
			break
		}
	}

	return winningAnswer, float64(counts[winner]) / float64(len(candidates))
}

// voteDistribution renders the vote counts as "'answer': count" pairs in
// descending frequency, ties broken by first-encountered order.
func voteDistribution(candidates []Candidate) string {
	counts := make(map[string]int, len(candidates))
	var order []string
	for _, c := range candidates {
		if _, seen := counts[c.Normalized]; !seen {
			order = append(order, c.Normalized)
		}
		counts[c.Normalized]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	parts := make([]string, 0, len(order))
	for _, n := range order {
		parts = append(parts, fmt.Sprintf("'%s': %d", n, counts[n]))
	}
	return strings.Join(parts, ", ")
}
