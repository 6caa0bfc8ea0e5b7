package reconcile

import (
	"fmt"
	"strings"

	"lore-history/internal/entry"
)

// Status is the reconciliation outcome of one pair.
type Status int

const (
	StatusSame Status = iota
	StatusChanged
	StatusAdded
	StatusRemoved
)

func (s Status) String() string {
	switch s {
	case StatusSame:
		return "same"
	case StatusChanged:
		return "changed"
	case StatusAdded:
		return "added"
	case StatusRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// MarshalText renders the status by name.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Policy selects which fields decide whether two paired entries are the same.
type Policy int

const (
	// PolicyStrict compares the stable signature: every non-volatile field,
	// key order ignored.
	PolicyStrict Policy = iota
	// PolicyVisible compares only what the editor renders: title, content,
	// primary and secondary keys (in order).
	PolicyVisible
)

func (p Policy) String() string {
	if p == PolicyVisible {
		return "visible"
	}
	return "strict"
}

// ParsePolicy accepts "strict" or "visible" (case-insensitive); empty means visible.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "visible":
		return PolicyVisible, nil
	case "strict":
		return PolicyStrict, nil
	default:
		return PolicyVisible, fmt.Errorf("unknown equivalence policy %q (want strict or visible)", s)
	}
}

// ChangedFields flags which visible fields differ within a pair.
type ChangedFields struct {
	Title   bool `json:"title"`
	Keys    bool `json:"keys"`
	Content bool `json:"content"`
}

// Any reports whether any field is flagged.
func (c ChangedFields) Any() bool { return c.Title || c.Keys || c.Content }

var allChanged = ChangedFields{Title: true, Keys: true, Content: true}

// Classification is the label of one pair.
type Classification struct {
	Status Status        `json:"status"`
	Fields ChangedFields `json:"changedFields"`
}

// Classify labels p with the strict policy.
func Classify(p Pair) Classification {
	return ClassifyWith(p, PolicyStrict)
}

// ClassifyWith labels p under the given policy. Added and removed pairs get
// every field flagged so renderers highlight the whole entry.
func ClassifyWith(p Pair, policy Policy) Classification {
	switch {
	case p.Left == nil && p.Right == nil:
		return Classification{Status: StatusSame}
	case p.Left == nil:
		return Classification{Status: StatusAdded, Fields: allChanged}
	case p.Right == nil:
		return Classification{Status: StatusRemoved, Fields: allChanged}
	}

	fields := fieldChanges(*p.Left, *p.Right)
	switch policy {
	case PolicyVisible:
		if !fields.Any() {
			return Classification{Status: StatusSame}
		}
	default:
		if p.stable(true) == p.stable(false) {
			return Classification{Status: StatusSame}
		}
	}
	return Classification{Status: StatusChanged, Fields: fields}
}

func fieldChanges(l, r entry.Entry) ChangedFields {
	return ChangedFields{
		Title:   !entry.TitleEqual(l, r),
		Keys:    !entry.KeysEqual(l, r),
		Content: !entry.ContentEqual(l, r),
	}
}

// stable returns the cached stable signature of one side, computing it for
// pairs built outside Match.
func (p Pair) stable(left bool) string {
	if left {
		if p.leftStable != "" {
			return p.leftStable
		}
		return entry.StableSignature(*p.Left)
	}
	if p.rightStable != "" {
		return p.rightStable
	}
	return entry.StableSignature(*p.Right)
}
