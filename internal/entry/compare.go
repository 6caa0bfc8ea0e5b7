package entry

import "strings"

// JoinKeys renders a key list the way it is compared field by field:
// order-sensitive, '|'-separated.
func JoinKeys(keys []string) string {
	return strings.Join(keys, "|")
}

// TitleEqual compares entry titles.
func TitleEqual(a, b Entry) bool { return a.Title == b.Title }

// KeysEqual covers both primary and secondary keys and, unlike the
// signatures, is sensitive to key order.
func KeysEqual(a, b Entry) bool {
	return JoinKeys(a.Keys) == JoinKeys(b.Keys) &&
		JoinKeys(a.SecondaryKeys) == JoinKeys(b.SecondaryKeys)
}

// ContentEqual compares entry content.
func ContentEqual(a, b Entry) bool { return a.Content == b.Content }

// VisibleEqual reports whether a and b are equal in every field the editor
// renders: title, content, primary and secondary keys.
func VisibleEqual(a, b Entry) bool {
	return TitleEqual(a, b) && KeysEqual(a, b) && ContentEqual(a, b)
}
