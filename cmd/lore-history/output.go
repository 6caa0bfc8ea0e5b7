package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"lore-history/internal/diff"
	"lore-history/internal/history"
	"lore-history/internal/reconcile"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func printSummary(w io.Writer, s reconcile.Summary) {
	fmt.Fprintf(w, "%d entries: %d same, %d changed, %d added, %d removed\n",
		s.Total(), s.Same, s.Changed, s.Added, s.Removed)
}

func statusMark(st reconcile.Status) string {
	switch st {
	case reconcile.StatusChanged:
		return "~"
	case reconcile.StatusAdded:
		return "+"
	case reconcile.StatusRemoved:
		return "-"
	default:
		return "="
	}
}

func printEntryHeader(w io.Writer, er reconcile.EntryReport) {
	title := er.Title
	if title == "" {
		title = "(untitled)"
	}
	fmt.Fprintf(w, "\n%s %s  [%s via %s]\n", statusMark(er.Classification.Status), title,
		er.Classification.Status, er.Via)
	if f := er.Classification.Fields; er.Classification.Status == reconcile.StatusChanged && f.Any() {
		var names []string
		if f.Title {
			names = append(names, "title")
		}
		if f.Keys {
			names = append(names, "keys")
		}
		if f.Content {
			names = append(names, "content")
		}
		fmt.Fprintf(w, "  fields: %s\n", strings.Join(names, ", "))
	}
}

// printOps writes a field edit script; fields without changes are skipped.
func printOps(w io.Writer, field string, r diff.Result) {
	c := diff.Counts(r.Ops)
	if c[diff.Same] == len(r.Ops) {
		return
	}
	note := ""
	if r.Approximate {
		note = " (approximate)"
	}
	fmt.Fprintf(w, "  %s: %d changed, %d added, %d removed%s\n", field,
		c[diff.Changed], c[diff.Added], c[diff.Removed], note)
	for _, op := range r.Ops {
		switch op.Kind {
		case diff.Same:
			fmt.Fprintf(w, "      %s\n", op.Left)
		case diff.Removed:
			fmt.Fprintf(w, "    - %s\n", op.Left)
		case diff.Added:
			fmt.Fprintf(w, "    + %s\n", op.Right)
		case diff.Changed:
			fmt.Fprintf(w, "    - %s\n", op.Left)
			fmt.Fprintf(w, "    + %s\n", op.Right)
		}
	}
}

func printVersion(w io.Writer, ref history.VersionRef) {
	tag := ""
	switch {
	case ref.IsKey:
		tag = "  [key: " + ref.Label + "]"
	case ref.IsAuto:
		tag = "  [auto]"
	}
	fmt.Fprintf(w, "  %s  %8d B  %s%s\n", ref.Time.Local().Format(time.DateTime), ref.Size, ref.Filename, tag)
}
