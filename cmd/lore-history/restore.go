package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lore-history/internal/snapshot"
)

type restoreFlags struct {
	kind     string
	noBackup bool
}

func newRestoreCmd(a *app) *cobra.Command {
	var f restoreFlags
	cmd := &cobra.Command{
		Use:   "restore <file.json> <backup>",
		Short: "Replace a document with one of its backups",
		Long: `Restore writes a backup over the live document. The backup is a path or a
file name listed by "history". The current document is saved as an auto
snapshot first unless --no-backup is given.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRestore(cmd, args[0], args[1], f)
		},
	}
	cmd.Flags().StringVar(&f.kind, "kind", snapshot.KindLorebook, "backup kind (lorebook or card)")
	cmd.Flags().BoolVar(&f.noBackup, "no-backup", false, "do not save the current document before restoring")
	return cmd
}

func (a *app) runRestore(cmd *cobra.Command, target, backup string, f restoreFlags) error {
	store := a.store(f.kind)
	ref, err := store.Resolve(target, backup)
	if err != nil {
		return err
	}
	saved, err := store.Restore(cmd.Context(), ref, target, !f.noBackup)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "restored %s from %s\n", target, ref.Filename)
	if saved.Path != "" {
		fmt.Fprintf(w, "previous version kept as %s\n", saved.Filename)
	}
	return nil
}
