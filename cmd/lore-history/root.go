package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"lore-history/internal/config"
	"lore-history/internal/snapshot"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "lore-history",
		Short:         "Version reconciliation and diff for lorebook documents",
		SilenceUsage:  true, // don't print usage on operational errors
		SilenceErrors: true,
		Long: `lore-history matches the entries of two lorebook versions, reports what
changed, and keeps a tidy history of backups under ~/.lore-history/backups.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ~/.lore-history/config.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newDiffCmd(a),
		newHistoryCmd(a),
		newInitCmd(a),
		newRestoreCmd(a),
		newSnapshotCmd(a),
		newStampCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("cannot load config: %w", err)
	}
	a.cfg = cfg
	a.logger.Debug("config loaded",
		slog.String("backup_dir", cfg.BackupDir),
		slog.String("policy", cfg.Policy().String()),
	)
	return nil
}

// store opens the backup store for documents of kind.
func (a *app) store(kind string) *snapshot.Store {
	return snapshot.New(a.cfg.BackupDir, kind,
		snapshot.WithLogger(a.logger),
		snapshot.WithLimits(snapshot.Limits{
			Auto:        a.cfg.Snapshot.AutoLimit,
			Manual:      a.cfg.Snapshot.ManualLimit,
			RecentCheck: a.cfg.Snapshot.RecentCheck,
		}),
	)
}

func readFile(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	return b, nil
}
