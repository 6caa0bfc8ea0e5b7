package reconcile

import "lore-history/internal/entry"

// Summary counts pair statuses across a document comparison.
type Summary struct {
	Same    int `json:"same"`
	Changed int `json:"changed"`
	Added   int `json:"added"`
	Removed int `json:"removed"`
}

// Add records one status.
func (s *Summary) Add(st Status) {
	switch st {
	case StatusSame:
		s.Same++
	case StatusChanged:
		s.Changed++
	case StatusAdded:
		s.Added++
	case StatusRemoved:
		s.Removed++
	}
}

// Total is the number of pairs counted.
func (s Summary) Total() int { return s.Same + s.Changed + s.Added + s.Removed }

// Equivalent reports whether every pair was the same.
func (s Summary) Equivalent() bool { return s.Changed+s.Added+s.Removed == 0 }

// Summarize classifies all pairs and returns the counts together with the
// per-pair labels, index-aligned with pairs.
func Summarize(pairs []Pair, policy Policy) (Summary, []Classification) {
	var sum Summary
	labels := make([]Classification, len(pairs))
	for i, p := range pairs {
		labels[i] = ClassifyWith(p, policy)
		sum.Add(labels[i].Status)
	}
	return sum, labels
}

// Equivalent reports whether left and right are diff-equivalent: every
// entry pairs up as same under policy. It stops at the first difference.
func Equivalent(left, right entry.Document, policy Policy) bool {
	if left.Len() != right.Len() {
		return false
	}
	for _, p := range MatchDocuments(left, right) {
		if ClassifyWith(p, policy).Status != StatusSame {
			return false
		}
	}
	return true
}
