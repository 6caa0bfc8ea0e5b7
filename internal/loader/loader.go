// Package loader normalizes raw lorebook JSON into entry.Document.
//
// Accepted shapes:
//   - a bare list of entries (V2 world info export)
//   - an object with "entries" as a list, or as a dict keyed by index (V3)
//   - a character card carrying the book at data.character_book or
//     character_book
//
// Entry field aliases are folded here so the reconciliation engine never
// sees them: keys/key, secondary_keys/keysecondary, comment (or name) as the
// title, uid (or id) as the legacy uid and st_manager_uid as the durable uid.
// Values that are not objects are skipped and counted, never fatal.
package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"lore-history/internal/entry"
)

// ErrUnsupportedShape is returned when a blob holds no recognisable
// lorebook structure.
var ErrUnsupportedShape = errors.New("unsupported document shape")

// Shape records which on-disk layout a document was read from.
type Shape string

const (
	ShapeList      Shape = "list"
	ShapeEntryList Shape = "entries-list"
	ShapeEntryMap  Shape = "entries-map"
	ShapeCard      Shape = "card"
)

// Result is a parsed document plus loading diagnostics.
type Result struct {
	Document entry.Document
	Shape    Shape
	// Skipped counts entries that were not JSON objects.
	Skipped int
}

// Parse decodes blob and normalizes it into a document.
func Parse(blob []byte) (Result, error) {
	root, err := decode(blob)
	if err != nil {
		return Result{}, err
	}
	raw, name, shape, err := locateEntries(root)
	if err != nil {
		return Result{}, err
	}
	res := Result{Shape: shape, Document: entry.Document{Name: name}}
	res.Document.Entries = make([]entry.Entry, 0, len(raw))
	for _, v := range raw {
		m, ok := v.(map[string]any)
		if !ok {
			res.Skipped++
			continue
		}
		res.Document.Entries = append(res.Document.Entries, FromMap(m))
	}
	return res, nil
}

// Digest returns the canonical content hash of a whole JSON blob, entries
// and every surrounding field included.
func Digest(blob []byte) (string, error) {
	root, err := decode(blob)
	if err != nil {
		return "", err
	}
	return entry.Digest(root), nil
}

func decode(blob []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(blob))
	dec.UseNumber()
	var root any
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return root, nil
}

// locateEntries finds the entry container inside root and returns its
// values in document order.
func locateEntries(root any) ([]any, string, Shape, error) {
	switch t := root.(type) {
	case []any:
		return t, "", ShapeList, nil
	case map[string]any:
		if book, ok := cardBook(t); ok {
			raw, name, _, err := locateEntries(book)
			if err != nil {
				return nil, "", "", err
			}
			if name == "" {
				name = cardName(t)
			}
			return raw, name, ShapeCard, nil
		}
		name, _ := t["name"].(string)
		switch entries := t["entries"].(type) {
		case []any:
			return entries, name, ShapeEntryList, nil
		case map[string]any:
			return orderedValues(entries), name, ShapeEntryMap, nil
		}
	}
	return nil, "", "", ErrUnsupportedShape
}

func cardBook(m map[string]any) (any, bool) {
	if data, ok := m["data"].(map[string]any); ok {
		if book, ok := data["character_book"]; ok && book != nil {
			return book, true
		}
	}
	if book, ok := m["character_book"]; ok && book != nil {
		return book, true
	}
	return nil, false
}

func cardName(m map[string]any) string {
	if data, ok := m["data"].(map[string]any); ok {
		if s, ok := data["name"].(string); ok {
			return s
		}
	}
	s, _ := m["name"].(string)
	return s
}

// orderedValues returns the values of an index-keyed entry dict ordered by
// numeric key, falling back to lexical order when any key is not a number.
func orderedValues(m map[string]any) []any {
	keys := make([]string, 0, len(m))
	numeric := true
	for k := range m {
		keys = append(keys, k)
		if _, err := strconv.Atoi(k); err != nil {
			numeric = false
		}
	}
	if numeric {
		sort.Slice(keys, func(i, j int) bool {
			a, _ := strconv.Atoi(keys[i])
			b, _ := strconv.Atoi(keys[j])
			return a < b
		})
	} else {
		sort.Strings(keys)
	}
	out := make([]any, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

// consumed lists the fields FromMap folds into typed Entry fields.
var consumed = map[string]struct{}{
	"comment": {}, "content": {},
	"keys": {}, "key": {},
	"secondary_keys": {}, "keysecondary": {},
}

// FromMap converts one decoded entry object.
func FromMap(m map[string]any) entry.Entry {
	e := entry.Entry{
		Content:       stringField(m[entry.FieldContent]),
		Keys:          keyList(first(m, "keys", "key")),
		SecondaryKeys: keyList(first(m, "secondary_keys", "keysecondary")),
		DurableUID:    idString(m[entry.FieldDurableUID]),
		LegacyUID:     idString(first(m, entry.FieldLegacyUID, entry.FieldID)),
		Extra:         make(map[string]any, len(m)),
	}
	titleFromName := false
	if v, ok := m["comment"]; ok && v != nil {
		e.Title = stringField(v)
	} else {
		e.Title = stringField(m["name"])
		titleFromName = e.Title != ""
	}
	for k, v := range m {
		if _, ok := consumed[k]; ok || entry.IsVolatile(k) {
			continue
		}
		if titleFromName && k == "name" {
			continue
		}
		e.Extra[k] = v
	}
	return e
}

// first returns the first non-nil value among keys.
func first(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func stringField(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// idString renders identifier values, numbers included, as strings.
func idString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

// keyList accepts a list of strings (non-string scalars are stringified,
// empty items dropped) or a single comma-separated string.
func keyList(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, x := range t {
			if s := strings.TrimSpace(stringField(x)); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		out := make([]string, 0, len(t))
		for _, s := range t {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		out := make([]string, 0, 4)
		for _, s := range strings.Split(t, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{}
	}
}
