// Package diff computes edit scripts between two versions of an entry field.
//
// Two renderings are provided:
//   - Compute / Lines: a line-level edit script (same, changed, added,
//     removed) aligned by longest common subsequence, with character, line
//     and cell-budget guards that degrade to truncation or positional
//     pairing instead of failing.
//   - Unified / AddedPatch / RemovedPatch: classic unified patches (---/+++ headers,
//     @@ hunks) through github.com/pmezard/go-difflib/difflib, used when a
//     field diff is exported as text.
//
// Both operate on in-memory strings only.
package diff

import (
	"fmt"
	"strings"

	difflib "github.com/pmezard/go-difflib/difflib"

	"lore-history/internal/textutil"
)

// PatchOptions controls unified patch generation.
type PatchOptions struct {
	// MaxBytes is a guardrail on input size (old+new). When exceeded,
	// a minimal placeholder patch is returned and oversize=true.
	// 0 means "no limit".
	MaxBytes int

	// Context controls the number of context lines in unified hunks.
	// If 0, default to 4.
	Context int
}

func (o PatchOptions) context() int {
	if o.Context <= 0 {
		return 4
	}
	return o.Context
}

// Unified produces a unified patch for a↦b.
// Returns the patch body and a flag indicating it was omitted due to size.
// Identical inputs yield an empty body.
func Unified(aName, bName, a, b string, opt PatchOptions) (body string, oversize bool) {
	if opt.MaxBytes > 0 && len(a)+len(b) > opt.MaxBytes {
		return omitted(aName, bName), true
	}
	u := difflib.UnifiedDiff{
		A:        splitLinesKeepNL(a),
		B:        splitLinesKeepNL(b),
		FromFile: aName,
		ToFile:   bName,
		Context:  opt.context(),
	}
	s, err := difflib.GetUnifiedDiffString(u)
	if err != nil {
		return omitted(aName, bName), false
	}
	return s, false
}

// AddedPatch produces a patch that adds the entire content b (no old version).
func AddedPatch(bName, b string, opt PatchOptions) (string, bool) {
	return Unified("/dev/null", bName, "", b, opt)
}

// RemovedPatch produces a patch that deletes the entire content a.
func RemovedPatch(aName, a string, opt PatchOptions) (string, bool) {
	return Unified(aName, "/dev/null", a, "", opt)
}

// splitLinesKeepNL splits into lines and keeps newline characters,
// which produces better unified hunks. A missing final newline is added so
// the last line compares equal whether or not the field ended with one.
func splitLinesKeepNL(s string) []string {
	if s == "" {
		return []string{}
	}
	s = textutil.EnsureTrailingLF(textutil.NormalizeLF(s))
	// SplitAfter leaves an empty element after the final "\n".
	lines := strings.SplitAfter(s, "\n")
	return lines[:len(lines)-1]
}

// omitted returns a compact placeholder when size limits are exceeded.
func omitted(aName, bName string) string {
	return fmt.Sprintf("--- %s\n+++ %s\n@@\n# diff omitted (oversize)\n", aName, bName)
}
