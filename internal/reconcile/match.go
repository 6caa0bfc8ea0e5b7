// Package reconcile pairs the entries of two document versions and labels
// each pairing as same, changed, added or removed.
//
// Entries carry no identity that is guaranteed to survive external edits, so
// matching walks a ladder of signatures (durable uid, legacy uid, stable
// content signature, quick title/keys signature) and only accepts a match
// when it is unambiguous. Whatever is left is paired by position, which is
// how documents that predate durable uids still show an edited entry as one
// modification instead of a removal plus an unrelated addition.
//
// Everything here is pure: no I/O, no shared state, safe for concurrent use.
package reconcile

import (
	"lore-history/internal/entry"
)

// Via records how a pair was formed.
type Via int

const (
	ViaNone Via = iota
	ViaUID
	ViaLegacyUID
	ViaStable
	ViaQuick
	ViaPosition
)

func (v Via) String() string {
	switch v {
	case ViaUID:
		return "uid"
	case ViaLegacyUID:
		return "legacy_uid"
	case ViaStable:
		return "stable"
	case ViaQuick:
		return "quick"
	case ViaPosition:
		return "position"
	default:
		return "none"
	}
}

// MarshalText renders the match method by name.
func (v Via) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

func viaFor(k entry.Kind) Via {
	switch k {
	case entry.KindUID:
		return ViaUID
	case entry.KindLegacyUID:
		return ViaLegacyUID
	case entry.KindStable:
		return ViaStable
	default:
		return ViaQuick
	}
}

// Pair is the correspondence between one left and one right entry. Exactly
// one nil side means the entry was added (Left nil) or removed (Right nil).
// LeftIndex/RightIndex are positions in the input documents, -1 when absent.
type Pair struct {
	Left       *entry.Entry
	Right      *entry.Entry
	LeftIndex  int
	RightIndex int
	Via        Via

	// stable signatures computed during matching, reused by Classify
	leftStable, rightStable string
}

// Match pairs every entry of left with at most one entry of right.
//
// The result holds exactly len(left) pairs with a non-nil Left, in left's
// order, followed by one added-only pair per right entry nobody claimed.
// Every input entry appears in exactly one pair.
func Match(left, right []entry.Entry) []Pair {
	lsig := signAll(left)
	rsig := signAll(right)
	index := buildIndex(rsig)
	consumed := make([]bool, len(right))

	pairs := make([]Pair, len(left), len(left)+len(right))
	var needsFallback []int
	for i := range left {
		pairs[i] = Pair{Left: &left[i], LeftIndex: i, RightIndex: -1, leftStable: lsig[i].Stable}
		j, via := lookup(lsig[i], index, consumed)
		if j < 0 {
			needsFallback = append(needsFallback, i)
			continue
		}
		consumed[j] = true
		pairs[i].Right = &right[j]
		pairs[i].RightIndex = j
		pairs[i].Via = via
		pairs[i].rightStable = rsig[j].Stable
	}

	pool := make([]int, 0, len(right))
	for j := range right {
		if !consumed[j] {
			pool = append(pool, j)
		}
	}

	// positional fallback, relative order kept on both sides
	n := min(len(needsFallback), len(pool))
	for k := 0; k < n; k++ {
		i, j := needsFallback[k], pool[k]
		consumed[j] = true
		pairs[i].Right = &right[j]
		pairs[i].RightIndex = j
		pairs[i].Via = ViaPosition
		pairs[i].rightStable = rsig[j].Stable
	}

	for _, j := range pool[n:] {
		pairs = append(pairs, Pair{Right: &right[j], LeftIndex: -1, RightIndex: j, rightStable: rsig[j].Stable})
	}
	return pairs
}

// MatchDocuments is Match over two documents.
func MatchDocuments(left, right entry.Document) []Pair {
	return Match(left.Entries, right.Entries)
}

// signatureIndex maps, per signature kind, a signature value to the right
// entries that share it.
type signatureIndex map[entry.Kind]map[string][]int

func signAll(es []entry.Entry) []entry.Signature {
	out := make([]entry.Signature, len(es))
	for i := range es {
		out[i] = entry.Sign(es[i])
	}
	return out
}

func buildIndex(sigs []entry.Signature) signatureIndex {
	idx := make(signatureIndex, len(entry.Kinds))
	for _, k := range entry.Kinds {
		idx[k] = make(map[string][]int)
	}
	for j, s := range sigs {
		for _, k := range entry.Kinds {
			if v := s.Value(k); v != "" {
				idx[k][v] = append(idx[k][v], j)
			}
		}
	}
	return idx
}

// lookup tries each signature kind in priority order. A kind succeeds only
// when exactly one right entry carries the value and it is still free;
// duplicates are never guessed between. Absent uids are skipped; the quick
// signature is always present.
func lookup(sig entry.Signature, idx signatureIndex, consumed []bool) (int, Via) {
	for _, k := range entry.Kinds {
		v := sig.Value(k)
		if v == "" {
			continue
		}
		cands := idx[k][v]
		if len(cands) == 1 && !consumed[cands[0]] {
			return cands[0], viaFor(k)
		}
	}
	return -1, ViaNone
}
