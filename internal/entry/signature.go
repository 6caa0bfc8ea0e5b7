package entry

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/minio/highwayhash"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"lore-history/internal/sortutil"
)

// hashKey is the fixed HighwayHash key. Signatures are compared, never
// exchanged, so the key only has to be constant.
var hashKey = []byte("lore-history/stable-signature/01")

// Signature bundles the identity keys of an entry, strongest first.
// An empty UID or LegacyUID means the key is absent; Stable and Quick are
// always set.
type Signature struct {
	UID       string
	LegacyUID string
	Stable    string
	Quick     string
}

// Sign derives all signature keys of e.
func Sign(e Entry) Signature {
	return Signature{
		UID:       strings.TrimSpace(e.DurableUID),
		LegacyUID: strings.TrimSpace(e.LegacyUID),
		Stable:    StableSignature(e),
		Quick:     QuickSignature(e),
	}
}

// StableSignature is a digest of the canonical form of e with the volatile
// fields removed. Map keys are sorted and key lists are order-independent,
// so two independently loaded copies of the same entry hash identically.
func StableSignature(e Entry) string {
	return digest(Canonical(e))
}

// Digest hashes the canonical JSON form of any decoded JSON value. Object
// key order and formatting do not affect it; every field does.
func Digest(v any) string {
	var buf bytes.Buffer
	writeCanonical(&buf, v)
	return digest(buf.Bytes())
}

func digest(b []byte) string {
	h, err := highwayhash.New64(hashKey)
	if err != nil {
		// Only possible with a key that is not 32 bytes long.
		panic(err)
	}
	_, _ = h.Write(b)
	return hex.EncodeToString(h.Sum(nil))
}

// Canonical returns the deterministic JSON form of e used by StableSignature.
func Canonical(e Entry) []byte {
	m := make(map[string]any, len(e.Extra)+4)
	for k, v := range e.Extra {
		if IsVolatile(k) {
			continue
		}
		m[k] = v
	}
	m[FieldTitle] = e.Title
	m[FieldContent] = e.Content
	m[FieldKeys] = sortutil.Sorted(e.Keys)
	m[FieldSecondaryKeys] = sortutil.Sorted(e.SecondaryKeys)

	var buf bytes.Buffer
	writeCanonical(&buf, m)
	return buf.Bytes()
}

// writeCanonical serializes v with object keys in lexicographic order and
// sequences in their original order.
func writeCanonical(buf *bytes.Buffer, v any) {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeScalar(buf, k)
			buf.WriteByte(':')
			writeCanonical(buf, t[k])
		}
		buf.WriteByte('}')
	case []any:
		buf.WriteByte('[')
		for i, x := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeCanonical(buf, x)
		}
		buf.WriteByte(']')
	case []string:
		buf.WriteByte('[')
		for i, x := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeScalar(buf, x)
		}
		buf.WriteByte(']')
	default:
		writeScalar(buf, t)
	}
}

func writeScalar(buf *bytes.Buffer, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		// Values come from JSON decoding; anything else is hashed by its
		// printed form so the signature stays total.
		b, _ = json.Marshal(fmt.Sprintf("%#v", v))
	}
	buf.Write(b)
}

// QuickSignature is a coarse fingerprint that survives content-only edits:
// the lowercased title plus the sorted, lowercased primary and secondary keys.
// Every entry has one; an entry with no title and no keys still gets the
// bare separator form, which matches only while it is unique.
func QuickSignature(e Entry) string {
	// A Caser is stateful; one per call keeps Sign safe for concurrent use.
	lower := cases.Lower(language.Und)
	var b strings.Builder
	b.WriteString(lower.String(strings.TrimSpace(e.Title)))
	b.WriteByte(0x1f)
	b.WriteString(strings.Join(sortutil.SortedLower(e.Keys, lower.String), "\x1e"))
	b.WriteByte(0x1f)
	b.WriteString(strings.Join(sortutil.SortedLower(e.SecondaryKeys, lower.String), "\x1e"))
	return b.String()
}

// Value returns the signature key of the given kind.
func (s Signature) Value(k Kind) string {
	switch k {
	case KindUID:
		return s.UID
	case KindLegacyUID:
		return s.LegacyUID
	case KindStable:
		return s.Stable
	case KindQuick:
		return s.Quick
	default:
		return ""
	}
}

// Kind names one of the signature keys.
type Kind int

const (
	KindUID Kind = iota
	KindLegacyUID
	KindStable
	KindQuick
)

// Kinds lists the signature keys in matching priority order.
var Kinds = []Kind{KindUID, KindLegacyUID, KindStable, KindQuick}

func (k Kind) String() string {
	switch k {
	case KindUID:
		return "uid"
	case KindLegacyUID:
		return "legacy_uid"
	case KindStable:
		return "stable"
	case KindQuick:
		return "quick"
	default:
		return "unknown"
	}
}
