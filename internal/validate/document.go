// Package validate reports lorebook documents whose entries cannot be
// reconciled reliably. It never rejects a document: matching still works,
// it just falls further down the signature ladder.
//
// Checks:
//   - Durable uids (st_manager_uid) must be unique within a document
//   - Legacy uids must be unique within a document
//   - Entries sharing a title and key set cannot pair by quick signature
package validate

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"lore-history/internal/entry"
)

// Document checks doc and returns nil, or a single aggregated error
// describing all the issues found.
func Document(doc entry.Document) error {
	var errs errlist

	durable := map[string][]int{}
	legacy := map[string][]int{}
	quick := map[string][]int{}
	for i, e := range doc.Entries {
		if e.DurableUID != "" {
			durable[e.DurableUID] = append(durable[e.DurableUID], i)
		}
		if e.LegacyUID != "" {
			legacy[e.LegacyUID] = append(legacy[e.LegacyUID], i)
		}
		q := entry.QuickSignature(e)
		quick[q] = append(quick[q], i)
	}
	for _, uid := range duplicates(durable) {
		errs.add("%s %q is shared by entries %v", entry.FieldDurableUID, uid, durable[uid])
	}
	for _, uid := range duplicates(legacy) {
		errs.add("%s %q is shared by entries %v", entry.FieldLegacyUID, uid, legacy[uid])
	}

	for _, q := range duplicates(quick) {
		errs.add("entries %v share title and keys, they pair only by content or position", quick[q])
	}

	return errs.err()
}

// duplicates returns the ids used more than once, sorted for stable output.
func duplicates(m map[string][]int) []string {
	var out []string
	for id, idx := range m {
		if len(idx) > 1 {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// errlist aggregates multiple validation issues into a single error.
type errlist struct {
	msgs []string
}

func (e *errlist) add(format string, args ...any) {
	if e == nil {
		return
	}
	e.msgs = append(e.msgs, fmt.Sprintf(format, args...))
}

func (e *errlist) err() error {
	if e == nil || len(e.msgs) == 0 {
		return nil
	}
	return errors.New(strings.Join(e.msgs, "\n"))
}
