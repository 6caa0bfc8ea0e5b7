// Package snapshot stores point-in-time backups of lorebook documents on disk
// and serves them back as history.VersionRef values.
//
// Layout:
//   - Backups of one document live in <root>/<kind>/<safe name>/
//   - Files are named <name>_<YYYY-MM-DD_HH-MM-SS>[-N][__KEY__<label>|__AUTO__]<ext>
//   - Labelled (key) and plain backups count against the manual limit,
//     __AUTO__ backups against the auto limit.
//   - Writes are atomic (temp file + rename) and serialized per directory
//     with a file lock, so concurrent savers never see a partial file.
//
// The Store implements history.Loader and history.Lister.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"lore-history/internal/entry"
	"lore-history/internal/history"
	"lore-history/internal/loader"
)

// Backup kinds used as the first directory level under the root.
const (
	KindLorebook = "lorebook"
	KindCard     = "card"
)

const (
	keyMarker  = "__KEY__"
	autoMarker = "__AUTO__"
	lockName   = ".lock"
	timeLayout = "2006-01-02_15-04-05"
)

// invalidFileCharsRe contains characters that are invalid in Windows filenames.
var invalidFileCharsRe = regexp.MustCompile(`[\\/:*?"<>|]`)

// Limits bounds how many backups are retained and inspected.
type Limits struct {
	Auto        int
	Manual      int
	RecentCheck int
}

// DefaultLimits mirrors the config defaults.
var DefaultLimits = Limits{Auto: 5, Manual: 20, RecentCheck: 20}

// Store is a file-backed backup store for one kind of document.
type Store struct {
	root   string
	kind   string
	limits Limits
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLimits overrides retention limits. Non-positive fields keep defaults.
func WithLimits(l Limits) Option {
	return func(s *Store) {
		if l.Auto > 0 {
			s.limits.Auto = l.Auto
		}
		if l.Manual > 0 {
			s.limits.Manual = l.Manual
		}
		if l.RecentCheck > 0 {
			s.limits.RecentCheck = l.RecentCheck
		}
	}
}

// WithLogger sets the logger. If nil, slog.Default() is used.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now, used for backup names and modification times.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a store rooted at root for documents of the given kind.
func New(root, kind string, opts ...Option) *Store {
	if kind == "" {
		kind = KindLorebook
	}
	s := &Store{
		root:   root,
		kind:   kind,
		limits: DefaultLimits,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Dir returns the backup directory of target.
func (s *Store) Dir(target string) string {
	return filepath.Join(s.root, s.kind, SafeName(baseName(target)))
}

// SafeName replaces characters that are invalid in file names.
func SafeName(name string) string {
	out := strings.TrimSpace(invalidFileCharsRe.ReplaceAllString(name, "_"))
	if out == "" {
		return "unnamed_backup"
	}
	return out
}

func baseName(target string) string {
	b := filepath.Base(target)
	return strings.TrimSuffix(b, filepath.Ext(b))
}

// ListBackups returns the backups of target, newest first.
// A target without backups yields an empty list.
func (s *Store) ListBackups(_ context.Context, target string) ([]history.VersionRef, error) {
	dir := s.Dir(target)
	ents, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []history.VersionRef{}, nil
		}
		return nil, fmt.Errorf("list backups of %s: %w", target, err)
	}
	stem := baseName(target)
	refs := make([]history.VersionRef, 0, len(ents))
	for _, de := range ents {
		name := de.Name()
		if de.IsDir() || !isBackupFile(name) || !strings.Contains(name, stem) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		refs = append(refs, refFor(filepath.Join(dir, name), info))
	}
	sortNewestFirst(refs)
	return refs, nil
}

func isBackupFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".json" || ext == ".png"
}

func refFor(path string, info os.FileInfo) history.VersionRef {
	name := info.Name()
	ref := history.VersionRef{
		Path:     path,
		Filename: name,
		Time:     info.ModTime(),
		Size:     info.Size(),
	}
	switch {
	case strings.Contains(name, keyMarker):
		ref.IsKey = true
		parts := strings.SplitN(name, keyMarker, 2)
		ref.Label = strings.TrimSuffix(parts[1], filepath.Ext(parts[1]))
	case strings.Contains(name, autoMarker):
		ref.IsAuto = true
		ref.Label = "Auto Save"
	}
	return ref
}

func sortNewestFirst(refs []history.VersionRef) {
	sort.SliceStable(refs, func(i, j int) bool {
		if !refs[i].Time.Equal(refs[j].Time) {
			return refs[i].Time.After(refs[j].Time)
		}
		return refs[i].Filename > refs[j].Filename
	})
}

// Load reads and normalizes the document behind ref. Failures are
// *history.LoadError values wrapping history.ErrNotFound or
// history.ErrUnreadable.
func (s *Store) Load(_ context.Context, ref history.VersionRef) (entry.Document, error) {
	if strings.EqualFold(filepath.Ext(ref.Path), ".png") {
		return entry.Document{}, &history.LoadError{Ref: ref,
			Err: fmt.Errorf("%w: embedded PNG cards are not supported", history.ErrUnreadable)}
	}
	blob, err := os.ReadFile(ref.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return entry.Document{}, &history.LoadError{Ref: ref, Err: history.ErrNotFound}
		}
		return entry.Document{}, &history.LoadError{Ref: ref, Err: fmt.Errorf("%w: %v", history.ErrUnreadable, err)}
	}
	res, err := loader.Parse(blob)
	if err != nil {
		return entry.Document{}, &history.LoadError{Ref: ref, Err: fmt.Errorf("%w: %v", history.ErrUnreadable, err)}
	}
	if res.Skipped > 0 {
		s.logger.Debug("skipped malformed entries",
			slog.String("path", ref.Path),
			slog.Int("skipped", res.Skipped),
		)
	}
	return res.Document, nil
}

// Clear removes every backup of target.
// Safe to call even if the directory does not exist.
func (s *Store) Clear(target string) error {
	dir := s.Dir(target)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return os.RemoveAll(dir)
}
