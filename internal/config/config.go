package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"lore-history/internal/diff"
	"lore-history/internal/reconcile"
)

// DiffConfig holds the line differ guards and patch context.
type DiffConfig struct {
	MaxChars   int `yaml:"max_chars,omitempty"`
	MaxLines   int `yaml:"max_lines,omitempty"`
	CellBudget int `yaml:"cell_budget,omitempty"`
	Context    int `yaml:"context,omitempty"`
}

// PruneConfig selects the equivalence policy used to hide backups.
type PruneConfig struct {
	Policy string `yaml:"policy,omitempty"`
}

// SnapshotConfig holds retention limits for the backup store.
type SnapshotConfig struct {
	AutoLimit   int `yaml:"auto_limit,omitempty"`
	ManualLimit int `yaml:"manual_limit,omitempty"`
	RecentCheck int `yaml:"recent_check,omitempty"`
}

// Config is the in-memory representation of ~/.lore-history/config.yaml.
type Config struct {
	BackupDir string         `yaml:"backup_dir"`
	Diff      DiffConfig     `yaml:"diff,omitempty"`
	Prune     PruneConfig    `yaml:"prune,omitempty"`
	Snapshot  SnapshotConfig `yaml:"snapshot,omitempty"`
}

// Dir returns the absolute path to ~/.lore-history/.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".lore-history"), nil
}

// Path returns the absolute path to ~/.lore-history/config.yaml.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

// Default returns the configuration used when no file exists.
func Default() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return &Config{
		BackupDir: filepath.Join(dir, "backups"),
		Diff: DiffConfig{
			MaxChars:   diff.DefaultMaxChars,
			MaxLines:   diff.DefaultMaxLines,
			CellBudget: diff.DefaultCellBudget,
			Context:    4,
		},
		Prune: PruneConfig{Policy: "visible"},
		Snapshot: SnapshotConfig{
			AutoLimit:   5,
			ManualLimit: 20,
			RecentCheck: 20,
		},
	}, nil
}

// Load reads and parses the config at path. An empty path means the default
// location. A missing file yields Default(); fields left out of the file
// keep their defaults.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}
	if path == "" {
		if path, err = Path(); err != nil {
			return nil, err
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	if cfg.BackupDir, err = ExpandPath(cfg.BackupDir); err != nil {
		return nil, err
	}
	if _, err := reconcile.ParsePolicy(cfg.Prune.Policy); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	cfg.clamp()
	return cfg, nil
}

// Save marshals cfg and writes it to path, creating the parent directory.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write config %s: %w", path, err)
	}
	return nil
}

// clamp puts retention limits into their supported ranges.
func (c *Config) clamp() {
	c.Snapshot.AutoLimit = clampInt(c.Snapshot.AutoLimit, 5, 1, 50)
	c.Snapshot.ManualLimit = clampInt(c.Snapshot.ManualLimit, 20, 1, 200)
	c.Snapshot.RecentCheck = clampInt(c.Snapshot.RecentCheck, 20, 1, 200)
}

func clampInt(v, def, lo, hi int) int {
	if v <= 0 {
		return def
	}
	return max(lo, min(v, hi))
}

// DiffOptions converts the diff section into differ options. Zero values
// fall back to the differ's defaults.
func (c *Config) DiffOptions() diff.Options {
	return diff.Options{
		MaxChars:   c.Diff.MaxChars,
		MaxLines:   c.Diff.MaxLines,
		CellBudget: c.Diff.CellBudget,
	}
}

// PatchOptions converts the diff section into unified patch options.
func (c *Config) PatchOptions() diff.PatchOptions {
	return diff.PatchOptions{Context: c.Diff.Context}
}

// Policy returns the configured pruning policy (visible when unset).
func (c *Config) Policy() reconcile.Policy {
	p, _ := reconcile.ParsePolicy(c.Prune.Policy)
	return p
}
