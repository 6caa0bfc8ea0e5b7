package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"lore-history/internal/diff"
	"lore-history/internal/entry"
	"lore-history/internal/loader"
	"lore-history/internal/reconcile"
	"lore-history/internal/validate"
)

type diffFlags struct {
	unified bool
	all     bool
	strict  bool
	json    bool
}

func newDiffCmd(a *app) *cobra.Command {
	var f diffFlags
	cmd := &cobra.Command{
		Use:   "diff <left.json> <right.json>",
		Short: "Compare two versions of a lorebook entry by entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDiff(cmd, args[0], args[1], f)
		},
	}
	cmd.Flags().BoolVar(&f.unified, "unified", false, "render content changes as unified patches")
	cmd.Flags().BoolVar(&f.all, "all", false, "also list unchanged entries")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "treat any field change as a change (default: visible fields only)")
	cmd.Flags().BoolVar(&f.json, "json", false, "print the report as JSON")
	return cmd
}

func (a *app) runDiff(cmd *cobra.Command, leftPath, rightPath string, f diffFlags) error {
	left, err := a.loadDocument(leftPath)
	if err != nil {
		return err
	}
	right, err := a.loadDocument(rightPath)
	if err != nil {
		return err
	}
	policy := a.cfg.Policy()
	if f.strict {
		policy = reconcile.PolicyStrict
	}
	rep := reconcile.Compare(left, right, policy, a.cfg.DiffOptions())

	w := cmd.OutOrStdout()
	if f.json {
		return printJSON(w, rep)
	}
	printSummary(w, rep.Summary)
	for _, er := range rep.Entries {
		if er.Classification.Status == reconcile.StatusSame && !f.all {
			continue
		}
		printEntryHeader(w, er)
		if er.Diffs == nil {
			continue
		}
		printOps(w, "title", er.Diffs.Title)
		printOps(w, "keys", er.Diffs.Keys)
		printOps(w, "secondary keys", er.Diffs.SecondaryKeys)
		if f.unified {
			fmt.Fprint(w, a.contentPatch(er, leftPath, rightPath))
		} else {
			printOps(w, "content", er.Diffs.Content)
		}
	}
	return nil
}

func (a *app) contentPatch(er reconcile.EntryReport, leftPath, rightPath string) string {
	opt := a.cfg.PatchOptions()
	name := func(path string) string { return filepath.Base(path) + "#" + er.Title }
	var body string
	switch {
	case er.Pair.Left == nil:
		body, _ = diff.AddedPatch(name(rightPath), er.Pair.Right.Content, opt)
	case er.Pair.Right == nil:
		body, _ = diff.RemovedPatch(name(leftPath), er.Pair.Left.Content, opt)
	default:
		body, _ = diff.Unified(name(leftPath), name(rightPath), er.Pair.Left.Content, er.Pair.Right.Content, opt)
	}
	return body
}

func (a *app) loadDocument(path string) (entry.Document, error) {
	blob, err := readFile(path)
	if err != nil {
		return entry.Document{}, err
	}
	res, err := loader.Parse(blob)
	if err != nil {
		return entry.Document{}, fmt.Errorf("cannot load %s: %w", path, err)
	}
	if res.Skipped > 0 {
		a.logger.Warn("skipped malformed entries",
			slog.String("path", path),
			slog.Int("skipped", res.Skipped),
		)
	}
	if err := validate.Document(res.Document); err != nil {
		a.logger.Warn("entries may not reconcile reliably",
			slog.String("path", path),
			slog.String("issues", err.Error()),
		)
	}
	return res.Document, nil
}
