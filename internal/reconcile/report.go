package reconcile

import (
	"strings"

	"lore-history/internal/diff"
	"lore-history/internal/entry"
)

// FieldDiffs holds the line edit scripts of the visible fields of one pair.
// Keys are rendered one per line so a reordered or renamed key shows up as
// a line change.
type FieldDiffs struct {
	Title         diff.Result `json:"title"`
	Keys          diff.Result `json:"keys"`
	SecondaryKeys diff.Result `json:"secondaryKeys"`
	Content       diff.Result `json:"content"`
}

// EntryReport is one pair with its label and, unless it is unchanged, the
// field diffs.
type EntryReport struct {
	Pair           Pair           `json:"-"`
	LeftIndex      int            `json:"leftIndex"`
	RightIndex     int            `json:"rightIndex"`
	Title          string         `json:"title"`
	Via            Via            `json:"via"`
	Classification Classification `json:"classification"`
	Diffs          *FieldDiffs    `json:"diffs,omitempty"`
}

// Report is a full document comparison.
type Report struct {
	Policy  string        `json:"policy"`
	Summary Summary       `json:"summary"`
	Entries []EntryReport `json:"entries"`
}

// Compare matches, classifies and renders two documents. Field diffs are
// computed only for pairs that are not the same.
func Compare(left, right entry.Document, policy Policy, opt diff.Options) Report {
	pairs := MatchDocuments(left, right)
	sum, labels := Summarize(pairs, policy)
	rep := Report{Policy: policy.String(), Summary: sum, Entries: make([]EntryReport, len(pairs))}
	for i, p := range pairs {
		er := EntryReport{
			Pair:           p,
			LeftIndex:      p.LeftIndex,
			RightIndex:     p.RightIndex,
			Title:          displayTitle(p),
			Via:            p.Via,
			Classification: labels[i],
		}
		if labels[i].Status != StatusSame {
			d := RenderPair(p, opt)
			er.Diffs = &d
		}
		rep.Entries[i] = er
	}
	return rep
}

// RenderPair diffs the visible fields of p. A missing side is treated as
// an entry with empty fields, so added and removed entries render fully.
func RenderPair(p Pair, opt diff.Options) FieldDiffs {
	var l, r entry.Entry
	if p.Left != nil {
		l = *p.Left
	}
	if p.Right != nil {
		r = *p.Right
	}
	return FieldDiffs{
		Title:         diff.Compute(l.Title, r.Title, opt),
		Keys:          diff.Compute(keyLines(l.Keys), keyLines(r.Keys), opt),
		SecondaryKeys: diff.Compute(keyLines(l.SecondaryKeys), keyLines(r.SecondaryKeys), opt),
		Content:       diff.Compute(l.Content, r.Content, opt),
	}
}

func keyLines(keys []string) string {
	return strings.Join(keys, "\n")
}

func displayTitle(p Pair) string {
	if p.Right != nil && p.Right.Title != "" {
		return p.Right.Title
	}
	if p.Left != nil {
		return p.Left.Title
	}
	return ""
}
