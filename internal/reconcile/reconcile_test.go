package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lore-history/internal/diff"
	"lore-history/internal/entry"
)

func e(title, content string, keys ...string) entry.Entry {
	return entry.Entry{Title: title, Content: content, Keys: keys}
}

func statuses(pairs []Pair, policy Policy) []Status {
	out := make([]Status, len(pairs))
	for i, p := range pairs {
		out[i] = ClassifyWith(p, policy).Status
	}
	return out
}

func TestMatchIdenticalIsSame(t *testing.T) {
	x := entry.Entry{Title: "A", Content: "body", Keys: []string{"k"}, SecondaryKeys: []string{"s"},
		Extra: map[string]any{"depth": 4.0}}
	pairs := Match([]entry.Entry{x}, []entry.Entry{x})
	require.Len(t, pairs, 1)
	c := Classify(pairs[0])
	assert.Equal(t, StatusSame, c.Status)
	assert.False(t, c.Fields.Any())
	assert.Equal(t, ViaStable, pairs[0].Via)
}

func TestMatchAgainstEmpty(t *testing.T) {
	l := []entry.Entry{e("a", "1"), e("b", "2"), e("c", "3")}

	pairs := Match(l, nil)
	require.Len(t, pairs, 3)
	for i, p := range pairs {
		assert.Equal(t, StatusRemoved, Classify(p).Status)
		assert.Equal(t, i, p.LeftIndex)
		assert.Equal(t, allChanged, Classify(p).Fields)
	}

	pairs = Match(nil, l)
	require.Len(t, pairs, 3)
	for i, p := range pairs {
		assert.Equal(t, StatusAdded, Classify(p).Status)
		assert.Equal(t, i, p.RightIndex)
	}
}

func TestMatchUIDWinsOverQuickSignature(t *testing.T) {
	l := []entry.Entry{
		{Title: "Old name", Content: "old", Keys: []string{"x"}, DurableUID: "u1"},
		{Title: "Other", Content: "o", DurableUID: "u2"},
	}
	r := []entry.Entry{
		{Title: "Other", Content: "o", DurableUID: "u2"},
		{Title: "Completely new", Content: "new", Keys: []string{"y"}, DurableUID: "u1"},
	}
	pairs := Match(l, r)
	require.Len(t, pairs, 2)
	assert.Equal(t, 1, pairs[0].RightIndex)
	assert.Equal(t, ViaUID, pairs[0].Via)
	assert.Equal(t, 0, pairs[1].RightIndex)

	c := Classify(pairs[0])
	assert.Equal(t, StatusChanged, c.Status)
	assert.Equal(t, ChangedFields{Title: true, Keys: true, Content: true}, c.Fields)
}

func TestMatchNeverGuessesBetweenDuplicateUIDs(t *testing.T) {
	l := []entry.Entry{
		{Title: "first", Content: "1", DurableUID: "dup"},
		{Title: "second", Content: "2", DurableUID: "dup"},
	}
	r := []entry.Entry{
		{Title: "second", Content: "2", DurableUID: "dup"},
		{Title: "first", Content: "1", DurableUID: "dup"},
	}
	pairs := Match(l, r)
	require.Len(t, pairs, 2)
	for _, p := range pairs {
		assert.NotEqual(t, ViaUID, p.Via)
	}
	// stable signatures still tell them apart
	assert.Equal(t, 1, pairs[0].RightIndex)
	assert.Equal(t, 0, pairs[1].RightIndex)
	assert.Equal(t, []Status{StatusSame, StatusSame}, statuses(pairs, PolicyStrict))
}

func TestMatchDuplicateUIDsFallBackToPosition(t *testing.T) {
	l := []entry.Entry{
		{Content: "a", DurableUID: "dup"},
		{Content: "b", DurableUID: "dup"},
	}
	r := []entry.Entry{
		{Content: "a2", DurableUID: "dup"},
		{Content: "b2", DurableUID: "dup"},
	}
	pairs := Match(l, r)
	require.Len(t, pairs, 2)
	assert.Equal(t, ViaPosition, pairs[0].Via)
	assert.Equal(t, 0, pairs[0].RightIndex)
	assert.Equal(t, ViaPosition, pairs[1].Via)
	assert.Equal(t, 1, pairs[1].RightIndex)
}

func TestMatchPriorityLadder(t *testing.T) {
	l := []entry.Entry{
		{Title: "legacy", Content: "v1", LegacyUID: "7"},
		{Title: "quick", Keys: []string{"K"}, Content: "before"},
		{Title: "same", Content: "unchanged"},
	}
	r := []entry.Entry{
		{Title: "same", Content: "unchanged"},
		{Title: "QUICK", Keys: []string{"k"}, Content: "after"},
		{Title: "legacy renamed", Content: "v2", LegacyUID: "7"},
	}
	pairs := Match(l, r)
	require.Len(t, pairs, 3)
	assert.Equal(t, ViaLegacyUID, pairs[0].Via)
	assert.Equal(t, 2, pairs[0].RightIndex)
	assert.Equal(t, ViaQuick, pairs[1].Via)
	assert.Equal(t, 1, pairs[1].RightIndex)
	assert.Equal(t, ViaStable, pairs[2].Via)
	assert.Equal(t, 0, pairs[2].RightIndex)
}

func TestMatchPositionalFallbackAndLeftovers(t *testing.T) {
	l := []entry.Entry{e("", "one"), e("", "two")}
	r := []entry.Entry{e("", "uno"), e("", "dos"), e("", "tres")}
	pairs := Match(l, r)
	require.Len(t, pairs, 3)
	assert.Equal(t, 0, pairs[0].RightIndex)
	assert.Equal(t, 1, pairs[1].RightIndex)
	assert.Nil(t, pairs[2].Left)
	assert.Equal(t, 2, pairs[2].RightIndex)
	assert.Equal(t, []Status{StatusChanged, StatusChanged, StatusAdded}, statuses(pairs, PolicyStrict))
}

func TestMatchUntitledEntryByQuickSignature(t *testing.T) {
	// The only untitled, keyless entry on each side pairs by its quick
	// signature even though it moved.
	l := []entry.Entry{{Content: "x"}, {Title: "c", Content: "1"}}
	r := []entry.Entry{{Title: "c2", Content: "2"}, {Content: "y"}}
	pairs := Match(l, r)
	require.Len(t, pairs, 2)
	assert.Equal(t, 1, pairs[0].RightIndex)
	assert.Equal(t, ViaQuick, pairs[0].Via)
	assert.Equal(t, 0, pairs[1].RightIndex)
	assert.Equal(t, ViaPosition, pairs[1].Via)
}

func TestMatchCoversEveryEntryOnce(t *testing.T) {
	l := []entry.Entry{e("a", "1", "x"), e("b", "2"), e("c", "3", "z"), e("d", "4")}
	r := []entry.Entry{e("c", "3", "z"), e("new", "9"), e("a", "1 edited", "x")}
	pairs := Match(l, r)

	seenL := map[int]bool{}
	seenR := map[int]bool{}
	for i, p := range pairs {
		if i < len(l) {
			require.NotNil(t, p.Left)
			assert.Equal(t, i, p.LeftIndex)
		} else {
			assert.Nil(t, p.Left)
		}
		if p.Left != nil {
			assert.False(t, seenL[p.LeftIndex])
			seenL[p.LeftIndex] = true
		}
		if p.Right != nil {
			assert.False(t, seenR[p.RightIndex])
			seenR[p.RightIndex] = true
		}
	}
	assert.Len(t, seenL, len(l))
	assert.Len(t, seenR, len(r))
}

func TestClassifyContentOnlyChange(t *testing.T) {
	pairs := Match([]entry.Entry{e("A", "x", "k")}, []entry.Entry{e("A", "y", "k")})
	require.Len(t, pairs, 1)
	c := Classify(pairs[0])
	assert.Equal(t, StatusChanged, c.Status)
	assert.Equal(t, ChangedFields{Title: false, Keys: false, Content: true}, c.Fields)
}

func TestClassifyPolicies(t *testing.T) {
	l := entry.Entry{Title: "A", Content: "x", Keys: []string{"k1", "k2"}, Extra: map[string]any{"depth": 4.0}}
	hidden := l
	hidden.Extra = map[string]any{"depth": 5.0}
	reordered := l
	reordered.Keys = []string{"k2", "k1"}

	p := Pair{Left: &l, Right: &hidden}
	assert.Equal(t, StatusChanged, ClassifyWith(p, PolicyStrict).Status)
	assert.False(t, ClassifyWith(p, PolicyStrict).Fields.Any())
	assert.Equal(t, StatusSame, ClassifyWith(p, PolicyVisible).Status)

	p = Pair{Left: &l, Right: &reordered}
	assert.Equal(t, StatusSame, ClassifyWith(p, PolicyStrict).Status)
	c := ClassifyWith(p, PolicyVisible)
	assert.Equal(t, StatusChanged, c.Status)
	assert.True(t, c.Fields.Keys)
}

func TestEquivalent(t *testing.T) {
	a := entry.Document{Entries: []entry.Entry{e("A", "x", "k"), e("B", "y")}}
	b := entry.Document{Entries: []entry.Entry{e("B", "y"), e("A", "x", "k")}}
	assert.True(t, Equivalent(a, b, PolicyVisible))
	assert.True(t, Equivalent(a, b, PolicyStrict))

	c := entry.Document{Entries: []entry.Entry{e("A", "x", "k")}}
	assert.False(t, Equivalent(a, c, PolicyVisible))

	d := entry.Document{Entries: []entry.Entry{e("A", "x", "k"), e("B", "changed")}}
	assert.False(t, Equivalent(a, d, PolicyVisible))
}

func TestSummarize(t *testing.T) {
	l := []entry.Entry{e("keep", "1", "a"), e("edit", "2", "b"), e("gone", "3", "c")}
	r := []entry.Entry{e("keep", "1", "a"), e("edit", "2!", "b")}
	sum, labels := Summarize(Match(l, r), PolicyStrict)
	assert.Equal(t, Summary{Same: 1, Changed: 1, Removed: 1}, sum)
	assert.Equal(t, 3, sum.Total())
	assert.False(t, sum.Equivalent())
	assert.Len(t, labels, 3)
}

func TestCompareRendersChangedFields(t *testing.T) {
	left := entry.Document{Entries: []entry.Entry{e("A", "line1\nline2", "k"), e("B", "same", "b")}}
	right := entry.Document{Entries: []entry.Entry{e("A", "line1\nline2 edited", "k"), e("B", "same", "b"), e("C", "fresh")}}
	rep := Compare(left, right, PolicyVisible, diff.Options{})

	assert.Equal(t, Summary{Same: 1, Changed: 1, Added: 1}, rep.Summary)
	require.Len(t, rep.Entries, 3)

	changed := rep.Entries[0]
	require.NotNil(t, changed.Diffs)
	ops := changed.Diffs.Content.Ops
	require.Len(t, ops, 2)
	assert.Equal(t, diff.Same, ops[0].Kind)
	assert.Equal(t, diff.Changed, ops[1].Kind)
	assert.Equal(t, "line2 edited", ops[1].Right)

	assert.Nil(t, rep.Entries[1].Diffs)

	added := rep.Entries[2]
	require.NotNil(t, added.Diffs)
	assert.Equal(t, "C", added.Title)
	assert.Equal(t, diff.Added, added.Diffs.Content.Ops[0].Kind)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("STRICT")
	require.NoError(t, err)
	assert.Equal(t, PolicyStrict, p)

	p, err = ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyVisible, p)

	_, err = ParsePolicy("loose")
	assert.Error(t, err)
}
