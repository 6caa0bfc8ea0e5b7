package diff

import (
	"lore-history/internal/textutil"
)

// Default size guards. They bound CPU time and output size for a single
// field diff regardless of how large the entry text is.
const (
	DefaultMaxChars   = 16_000
	DefaultMaxLines   = 240
	DefaultCellBudget = 70_000

	// TruncatedMarker is appended as a synthetic last line to a side that
	// hit one of the size guards.
	TruncatedMarker = "... (truncated)"
)

// Kind is the classification of a single line in an edit script.
type Kind int

const (
	Same Kind = iota
	Changed
	Added
	Removed
)

func (k Kind) String() string {
	switch k {
	case Same:
		return "same"
	case Changed:
		return "changed"
	case Added:
		return "added"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// MarshalText renders the kind as its lowercase name in JSON output.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// LineOp is one step of a line-level edit script.
//
// Left holds the line from the left (older) text and Right the line from the
// right (newer) text. Same ops carry the line on both sides, Added only on
// the right, Removed only on the left. LeftLine and RightLine are 1-based
// line numbers, 0 when the op has no line on that side. Left and Right are
// always encoded, so a blank line reads as "" rather than a missing side.
type LineOp struct {
	Kind      Kind   `json:"kind"`
	Left      string `json:"left"`
	Right     string `json:"right"`
	LeftLine  int    `json:"leftLine,omitempty"`
	RightLine int    `json:"rightLine,omitempty"`
}

// Options controls the size guards of Compute. Zero fields take the defaults.
type Options struct {
	// MaxChars caps the number of characters (runes) read from each side.
	MaxChars int
	// MaxLines caps the number of lines kept from each side.
	MaxLines int
	// CellBudget caps len(left)*len(right); above it the exact alignment is
	// replaced by positional pairing.
	CellBudget int
}

func (o Options) withDefaults() Options {
	if o.MaxChars <= 0 {
		o.MaxChars = DefaultMaxChars
	}
	if o.MaxLines <= 0 {
		o.MaxLines = DefaultMaxLines
	}
	if o.CellBudget <= 0 {
		o.CellBudget = DefaultCellBudget
	}
	return o
}

// Result is the outcome of Compute. Truncation and approximation are
// degradations, never errors.
type Result struct {
	Ops            []LineOp `json:"ops"`
	LeftTruncated  bool     `json:"leftTruncated,omitempty"`
	RightTruncated bool     `json:"rightTruncated,omitempty"`
	// Approximate is set when the cell budget was exceeded and lines were
	// paired by position instead of aligned.
	Approximate bool `json:"approximate,omitempty"`
}

// Lines diffs a against b with the default size guards.
func Lines(a, b string) []LineOp {
	return Compute(a, b, Options{}).Ops
}

// Compute produces the line-level edit script turning a into b.
func Compute(a, b string, opt Options) Result {
	opt = opt.withDefaults()

	left, lt := guardLines(a, opt)
	right, rt := guardLines(b, opt)
	res := Result{LeftTruncated: lt, RightTruncated: rt}

	if len(left)*len(right) > opt.CellBudget {
		res.Ops = positional(left, right)
		res.Approximate = true
		return res
	}
	res.Ops = coalesce(align(left, right))
	return res
}

// guardLines splits s into lines after applying the character and line caps.
func guardLines(s string, opt Options) ([]string, bool) {
	s, cut := textutil.TruncateRunes(s, opt.MaxChars)
	lines := textutil.SplitLines(s)
	if len(lines) > opt.MaxLines {
		lines = lines[:opt.MaxLines]
		cut = true
	}
	if cut {
		lines = append(lines, TruncatedMarker)
	}
	return lines, cut
}

// positional pairs line i of a with line i of b. It never backtracks and
// always returns max(len(a), len(b)) ops.
func positional(a, b []string) []LineOp {
	n := max(len(a), len(b))
	ops := make([]LineOp, 0, n)
	for i := 0; i < n; i++ {
		switch {
		case i >= len(a):
			ops = append(ops, LineOp{Kind: Added, Right: b[i], RightLine: i + 1})
		case i >= len(b):
			ops = append(ops, LineOp{Kind: Removed, Left: a[i], LeftLine: i + 1})
		case a[i] == b[i]:
			ops = append(ops, LineOp{Kind: Same, Left: a[i], Right: b[i], LeftLine: i + 1, RightLine: i + 1})
		default:
			ops = append(ops, LineOp{Kind: Changed, Left: a[i], Right: b[i], LeftLine: i + 1, RightLine: i + 1})
		}
	}
	return ops
}

// align computes the LCS table over lines and backtracks from (0,0).
// On ties a removal is emitted before an addition.
func align(a, b []string) []LineOp {
	n, m := len(a), len(b)
	w := m + 1
	// dp[i*w+j] = LCS length of a[i:] and b[j:]
	dp := make([]int, (n+1)*w)
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if a[i] == b[j] {
				dp[i*w+j] = dp[(i+1)*w+j+1] + 1
			} else {
				dp[i*w+j] = max(dp[(i+1)*w+j], dp[i*w+j+1])
			}
		}
	}

	ops := make([]LineOp, 0, max(n, m))
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case a[i] == b[j]:
			ops = append(ops, LineOp{Kind: Same, Left: a[i], Right: b[j], LeftLine: i + 1, RightLine: j + 1})
			i++
			j++
		case dp[(i+1)*w+j] >= dp[i*w+j+1]:
			ops = append(ops, LineOp{Kind: Removed, Left: a[i], LeftLine: i + 1})
			i++
		default:
			ops = append(ops, LineOp{Kind: Added, Right: b[j], RightLine: j + 1})
			j++
		}
	}
	for ; i < n; i++ {
		ops = append(ops, LineOp{Kind: Removed, Left: a[i], LeftLine: i + 1})
	}
	for ; j < m; j++ {
		ops = append(ops, LineOp{Kind: Added, Right: b[j], RightLine: j + 1})
	}
	return ops
}

// coalesce folds every maximal run of removes and adds into changed pairs
// followed by the leftover removes or adds.
func coalesce(ops []LineOp) []LineOp {
	out := make([]LineOp, 0, len(ops))
	var removed, added []LineOp
	flush := func() {
		k := min(len(removed), len(added))
		for x := 0; x < k; x++ {
			out = append(out, LineOp{
				Kind:      Changed,
				Left:      removed[x].Left,
				Right:     added[x].Right,
				LeftLine:  removed[x].LeftLine,
				RightLine: added[x].RightLine,
			})
		}
		out = append(out, removed[k:]...)
		out = append(out, added[k:]...)
		removed, added = removed[:0], added[:0]
	}
	for _, op := range ops {
		switch op.Kind {
		case Removed:
			removed = append(removed, op)
		case Added:
			added = append(added, op)
		default:
			flush()
			out = append(out, op)
		}
	}
	flush()
	return out
}

// LeftText rebuilds the left side from an edit script.
func LeftText(ops []LineOp) string {
	lines := make([]string, 0, len(ops))
	for _, op := range ops {
		if op.Kind != Added {
			lines = append(lines, op.Left)
		}
	}
	return textutil.JoinLines(lines)
}

// RightText applies an edit script: same lines are kept, removed lines are
// dropped and changed/added lines contribute their right side.
func RightText(ops []LineOp) string {
	lines := make([]string, 0, len(ops))
	for _, op := range ops {
		if op.Kind != Removed {
			lines = append(lines, op.Right)
		}
	}
	return textutil.JoinLines(lines)
}

// Counts tallies ops by kind.
func Counts(ops []LineOp) map[Kind]int {
	c := make(map[Kind]int, 4)
	for _, op := range ops {
		c[op.Kind]++
	}
	return c
}
