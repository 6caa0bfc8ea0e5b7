package entry

import (
	"strings"

	"github.com/google/uuid"
)

// NewUID returns a fresh durable entry identifier.
func NewUID() string {
	return uuid.NewString()
}

// EnsureUIDs assigns a durable uid to every entry of doc that lacks one and
// returns how many were assigned. Existing uids are never changed.
func EnsureUIDs(doc *Document) int {
	n := 0
	for i := range doc.Entries {
		if strings.TrimSpace(doc.Entries[i].DurableUID) != "" {
			continue
		}
		doc.Entries[i].DurableUID = NewUID()
		n++
	}
	return n
}
