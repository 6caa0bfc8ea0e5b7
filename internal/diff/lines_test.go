package diff

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(ops []LineOp) []Kind {
	out := make([]Kind, len(ops))
	for i, op := range ops {
		out[i] = op.Kind
	}
	return out
}

func TestLinesIdentical(t *testing.T) {
	ops := Lines("a\nb\nc", "a\nb\nc")
	assert.Equal(t, []Kind{Same, Same, Same}, kinds(ops))
}

func TestLinesEmptySides(t *testing.T) {
	assert.Equal(t, []Kind{Added, Added}, kinds(Lines("", "x\ny")))
	assert.Equal(t, []Kind{Removed, Removed}, kinds(Lines("x\ny", "")))
	assert.Empty(t, Lines("", ""))
}

func TestLinesCoalescesReplacementRun(t *testing.T) {
	ops := Lines("keep\na\nb\nc\ntail", "keep\nx\ny\nz\ntail")
	require.Equal(t, []Kind{Same, Changed, Changed, Changed, Same}, kinds(ops))
	assert.Equal(t, "a", ops[1].Left)
	assert.Equal(t, "x", ops[1].Right)
	assert.Equal(t, 2, ops[1].LeftLine)
	assert.Equal(t, 2, ops[1].RightLine)
}

func TestLinesUnevenRunLeavesRemainder(t *testing.T) {
	ops := Lines("a\nb\nc", "x")
	assert.Equal(t, []Kind{Changed, Removed, Removed}, kinds(ops))

	ops = Lines("a", "x\ny\nz")
	assert.Equal(t, []Kind{Changed, Added, Added}, kinds(ops))
}

func TestLinesPrefersRemoveOnTies(t *testing.T) {
	// "a b" -> "b a": both alignments keep one line; the tie-break removes
	// the leading "a" first and re-adds it after "b".
	ops := align([]string{"a", "b"}, []string{"b", "a"})
	assert.Equal(t, []Kind{Removed, Same, Added}, kinds(ops))
}

func TestLinesRoundTrip(t *testing.T) {
	cases := [][2]string{
		{"", ""},
		{"a", ""},
		{"", "b\n"},
		{"one\ntwo\nthree\n", "one\n2\nthree\nfour\n"},
		{"x\ny\nz", "z\ny\nx"},
		{"same\n\n\nlines", "same\n\nlines\n\n"},
		{"alpha\nbeta\ngamma\ndelta", "beta\nalpha\ndelta\ngamma\nepsilon"},
	}
	for _, c := range cases {
		ops := Lines(c[0], c[1])
		assert.Equal(t, c[1], RightText(ops), "right of %q -> %q", c[0], c[1])
		assert.Equal(t, c[0], LeftText(ops), "left of %q -> %q", c[0], c[1])
	}
}

func TestComputeTruncatesByLines(t *testing.T) {
	long := strings.Repeat("line\n", 10)
	res := Compute(long, "line", Options{MaxLines: 3})
	assert.True(t, res.LeftTruncated)
	assert.False(t, res.RightTruncated)
	last := res.Ops[len(res.Ops)-1]
	assert.Equal(t, TruncatedMarker, last.Left)
	assert.Equal(t, 4, len(res.Ops))
}

func TestComputeTruncatesByChars(t *testing.T) {
	res := Compute(strings.Repeat("é", 50), "", Options{MaxChars: 10})
	require.True(t, res.LeftTruncated)
	require.Len(t, res.Ops, 2)
	assert.Equal(t, strings.Repeat("é", 10), res.Ops[0].Left)
	assert.Equal(t, TruncatedMarker, res.Ops[1].Left)
}

func TestComputeFallsBackToPositional(t *testing.T) {
	a := "a\nb\nc\nd\ne"
	b := "a\nX\nc"
	res := Compute(a, b, Options{CellBudget: 10})
	require.True(t, res.Approximate)
	assert.Len(t, res.Ops, 5)
	assert.Equal(t, []Kind{Same, Changed, Same, Removed, Removed}, kinds(res.Ops))

	res = Compute(b, a, Options{CellBudget: 10})
	assert.Equal(t, []Kind{Same, Changed, Same, Added, Added}, kinds(res.Ops))
}

func TestComputeFallbackLengthIsMaxOfSides(t *testing.T) {
	a := strings.TrimSuffix(strings.Repeat("left\n", 200), "\n")
	b := strings.TrimSuffix(strings.Repeat("right\n", 150), "\n")
	res := Compute(a, b, Options{CellBudget: 1000})
	require.True(t, res.Approximate)
	assert.Len(t, res.Ops, 200)
}

func TestKindMarshalText(t *testing.T) {
	b, err := Changed.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "changed", string(b))
}

func TestLineOpJSONKeepsBlankLines(t *testing.T) {
	ops := Lines("a\n\nb", "a\n\nc")
	require.Len(t, ops, 3)
	require.Equal(t, Same, ops[1].Kind)

	b, err := json.Marshal(ops[1])
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"same","left":"","right":"","leftLine":2,"rightLine":2}`, string(b))

	b, err = json.Marshal(LineOp{Kind: Changed, Left: "x", Right: ""})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"right":""`)
}
