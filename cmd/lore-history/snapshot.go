package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lore-history/internal/snapshot"
)

type snapshotFlags struct {
	kind  string
	label string
	auto  bool
}

func newSnapshotCmd(a *app) *cobra.Command {
	var f snapshotFlags
	cmd := &cobra.Command{
		Use:   "snapshot <file.json>",
		Short: "Back up a document (manual, or smart auto with --auto)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSnapshot(cmd, args[0], f)
		},
	}
	cmd.Flags().StringVar(&f.kind, "kind", snapshot.KindLorebook, "backup kind (lorebook or card)")
	cmd.Flags().StringVar(&f.label, "label", "", "mark the snapshot as a key version with this label")
	cmd.Flags().BoolVar(&f.auto, "auto", false, "skip the snapshot if a recent backup already matches")
	cmd.MarkFlagsMutuallyExclusive("label", "auto")
	return cmd
}

func (a *app) runSnapshot(cmd *cobra.Command, target string, f snapshotFlags) error {
	store := a.store(f.kind)
	w := cmd.OutOrStdout()
	if f.auto {
		out, ref, err := store.AutoSnapshot(cmd.Context(), target, nil)
		if err != nil {
			return err
		}
		if out == snapshot.OutcomeSkipped {
			fmt.Fprintf(w, "skipped: unchanged since %s\n", ref.Filename)
			return nil
		}
		fmt.Fprintf(w, "created %s\n", ref.Path)
		return nil
	}
	ref, err := store.Snapshot(cmd.Context(), target, nil, f.label)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "created %s\n", ref.Path)
	return nil
}
