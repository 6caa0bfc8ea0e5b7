// Package entry defines the in-memory shape of a versioned lorebook entry and
// the identity signatures used to pair entries across two snapshots.
//
// Documents reach this package already normalized (see internal/loader):
// keys are string slices, title and content are strings and every field the
// engine does not interpret is kept in Extra for structural comparison.
package entry

// Well-known field names of the on-disk entry object.
const (
	FieldTitle         = "comment"
	FieldContent       = "content"
	FieldKeys          = "keys"
	FieldSecondaryKeys = "secondary_keys"
	FieldLegacyUID     = "uid"
	FieldID            = "id"
	FieldDisplayIndex  = "displayIndex"
	FieldDurableUID    = "st_manager_uid"
)

// Volatile fields are reassigned on export or reorder and never take part in
// the stable signature.
var volatileFields = map[string]struct{}{
	FieldID:           {},
	FieldLegacyUID:    {},
	FieldDisplayIndex: {},
	FieldDurableUID:   {},
}

// IsVolatile reports whether name is one of the volatile entry fields.
func IsVolatile(name string) bool {
	_, ok := volatileFields[name]
	return ok
}

// Entry is one record inside a document.
type Entry struct {
	Title         string
	Content       string
	Keys          []string
	SecondaryKeys []string

	// DurableUID is assigned by the editor and survives saves made with it.
	DurableUID string
	// LegacyUID is the older per-book identifier. It may collide or be reset.
	LegacyUID string

	// Extra holds every other field, compared only structurally.
	Extra map[string]any
}

// Document is an ordered collection of entries.
type Document struct {
	Name    string
	Entries []Entry
}

// Len returns the number of entries.
func (d Document) Len() int { return len(d.Entries) }

// Single wraps one entry as a document, which is how single-entry history
// views reuse the document pipeline.
func Single(e Entry) Document {
	return Document{Entries: []Entry{e}}
}
