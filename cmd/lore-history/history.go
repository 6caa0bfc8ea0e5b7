package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lore-history/internal/history"
	"lore-history/internal/reconcile"
	"lore-history/internal/snapshot"
)

type historyFlags struct {
	kind       string
	strict     bool
	showHidden bool
	json       bool
	clear      bool
}

func newHistoryCmd(a *app) *cobra.Command {
	var f historyFlags
	cmd := &cobra.Command{
		Use:   "history <file.json>",
		Short: "List the backups of a document, hiding those equal to it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runHistory(cmd, args[0], f)
		},
	}
	cmd.Flags().StringVar(&f.kind, "kind", snapshot.KindLorebook, "backup kind (lorebook or card)")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "hide only backups identical in every field")
	cmd.Flags().BoolVar(&f.showHidden, "show-hidden", false, "also list the hidden backups")
	cmd.Flags().BoolVar(&f.json, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&f.clear, "clear", false, "delete every backup of the document")
	cmd.MarkFlagsMutuallyExclusive("clear", "json")
	return cmd
}

func (a *app) runHistory(cmd *cobra.Command, target string, f historyFlags) error {
	policy := a.cfg.Policy()
	if f.strict {
		policy = reconcile.PolicyStrict
	}
	store := a.store(f.kind)
	if f.clear {
		if err := store.Clear(target); err != nil {
			return fmt.Errorf("cannot clear backups of %s: %w", target, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "cleared backups of %s\n", target)
		return nil
	}
	pruner := history.NewPruner(store, history.WithPolicy(policy), history.WithLogger(a.logger))

	res, err := pruner.List(cmd.Context(), store, target)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if f.json {
		return printJSON(w, res)
	}
	if len(res.Kept)+res.HiddenCount == 0 {
		fmt.Fprintf(w, "No backups of %s in %s\n", target, store.Dir(target))
		return nil
	}
	fmt.Fprintf(w, "%d backups of %s (%d hidden as equal to current)\n",
		len(res.Kept)+res.HiddenCount, target, res.HiddenCount)
	if f.showHidden && res.HiddenCount > 0 {
		fmt.Fprintln(w, "hidden:")
		for _, ref := range res.Hidden {
			printVersion(w, ref)
		}
		fmt.Fprintln(w, "kept:")
	}
	for _, ref := range res.Kept {
		printVersion(w, ref)
	}
	if res.StoppedBy != nil {
		fmt.Fprintf(w, "note: pruning stopped early: %v\n", res.StoppedBy)
	}
	return nil
}
