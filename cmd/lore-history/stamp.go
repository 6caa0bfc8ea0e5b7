package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"lore-history/internal/loader"
)

func newStampCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stamp <file.json>",
		Short: "Assign durable uids to entries that lack one and rewrite the file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runStamp(cmd, args[0])
		},
	}
}

func (a *app) runStamp(cmd *cobra.Command, path string) error {
	blob, err := readFile(path)
	if err != nil {
		return err
	}
	out, n, err := loader.StampUIDs(blob)
	if err != nil {
		return fmt.Errorf("cannot stamp %s: %w", path, err)
	}
	if n == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "all entries already carry a durable uid")
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, out, info.Mode().Perm()); err != nil {
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	a.logger.Debug("stamped durable uids", slog.String("path", path), slog.Int("assigned", n))
	fmt.Fprintf(cmd.OutOrStdout(), "assigned %d durable uids in %s\n", n, path)
	return nil
}
