package ingest

import (
	"sort"
	"strings"
)

// scoreboard accumulates weighted counts per label. Ties rank in
// first-seen order, so repeated runs over the same data stay stable.
type scoreboard struct {
	scores map[string]int
	order  []string
}

func newScoreboard() *scoreboard {
	return &scoreboard{scores: make(map[string]int)}
}

func (s *scoreboard) add(label string, weight int) {
	if _, seen := s.scores[label]; !seen {
		s.order = append(s.order, label)
	}
	s.scores[label] += weight
}

func (s *scoreboard) top(n int) []string {
	ranked := make([]string, len(s.order))
	copy(ranked, s.order)
	sort.SliceStable(ranked, func(i, j int) bool {
		return s.scores[ranked[i]] > s.scores[ranked[j]]
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func joinTop(labels []string) string {
	return strings.Join(labels, ", ")
}
