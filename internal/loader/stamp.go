package loader

import (
	"bytes"
	"encoding/json"

	"lore-history/internal/entry"
)

// StampUIDs assigns a durable uid to every entry object in blob that lacks
// one and re-encodes the document. An entry counts as having one exactly
// when Parse would read a durable uid from it, numbers included. All other
// fields are preserved; object keys come out sorted. It returns the new blob
// and the number of entries stamped. When nothing needed stamping the
// original blob is returned.
func StampUIDs(blob []byte) ([]byte, int, error) {
	root, err := decode(blob)
	if err != nil {
		return nil, 0, err
	}
	raw, _, _, err := locateEntries(root)
	if err != nil {
		return nil, 0, err
	}

	var doc entry.Document
	var objs []map[string]any
	for _, v := range raw {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		doc.Entries = append(doc.Entries, FromMap(m))
		objs = append(objs, m)
	}
	n := entry.EnsureUIDs(&doc)
	if n == 0 {
		return blob, 0, nil
	}
	for i, m := range objs {
		// entries share their maps with root, so this edits the tree in place
		if idString(m[entry.FieldDurableUID]) == "" {
			m[entry.FieldDurableUID] = doc.Entries[i].DurableUID
		}
	}
	out, err := encode(root)
	if err != nil {
		return nil, 0, err
	}
	return out, n, nil
}

// Normalize re-encodes a lorebook blob in the canonical on-disk layout:
// sorted object keys, two-space indent, no HTML escaping. Numbers keep their
// original text. Blobs that are not a recognised document are rejected.
func Normalize(blob []byte) ([]byte, error) {
	root, err := decode(blob)
	if err != nil {
		return nil, err
	}
	if _, _, _, err := locateEntries(root); err != nil {
		return nil, err
	}
	return encode(root)
}

func encode(root any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(root); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
