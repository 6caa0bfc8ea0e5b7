package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"lore-history/internal/entry"
	"lore-history/internal/history"
	"lore-history/internal/loader"
	"lore-history/internal/reconcile"
)

// ErrInvalidContent is returned when snapshot content is not valid JSON.
var ErrInvalidContent = errors.New("snapshot content is not valid JSON")

// Outcome reports what AutoSnapshot did.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeSkipped Outcome = "skipped"
)

const lockRetry = 50 * time.Millisecond

// Snapshot writes a manual backup of target. content is the document to
// store; nil means copy the file at target as it is on disk. A non-empty
// label marks the backup as a key version. Manual backups beyond the limit
// are removed oldest first.
func (s *Store) Snapshot(ctx context.Context, target string, content []byte, label string) (history.VersionRef, error) {
	content, err := s.contentOf(target, content)
	if err != nil {
		return history.VersionRef{}, err
	}
	suffix := ""
	if label = strings.TrimSpace(label); label != "" {
		suffix = keyMarker + invalidFileCharsRe.ReplaceAllString(label, "-")
	}

	var ref history.VersionRef
	err = s.withLock(ctx, target, func(dir string) error {
		ref, err = s.write(dir, target, suffix, content)
		if err != nil {
			return err
		}
		return s.cleanup(dir, s.limits.Manual, false)
	})
	if err != nil {
		return history.VersionRef{}, err
	}
	s.logger.Info("snapshot created",
		slog.String("target", target),
		slog.String("path", ref.Path),
		slog.String("label", label),
	)
	return ref, nil
}

// AutoSnapshot writes an __AUTO__ backup of target unless one of the most
// recent backups already holds the same content: the same canonical hash of
// the whole blob and a strict entry-by-entry match. Formatting and object key
// order do not count as changes; any field does. Unreadable backups are
// skipped during the check. When skipped, the returned ref is the matching
// backup.
func (s *Store) AutoSnapshot(ctx context.Context, target string, content []byte) (Outcome, history.VersionRef, error) {
	content, err := s.contentOf(target, content)
	if err != nil {
		return "", history.VersionRef{}, err
	}
	parsed, err := loader.Parse(content)
	if err != nil {
		return "", history.VersionRef{}, fmt.Errorf("auto snapshot of %s: %w", target, err)
	}
	sum, err := loader.Digest(content)
	if err != nil {
		return "", history.VersionRef{}, fmt.Errorf("auto snapshot of %s: %w", target, err)
	}

	backups, err := s.ListBackups(ctx, target)
	if err != nil {
		return "", history.VersionRef{}, err
	}
	if len(backups) > s.limits.RecentCheck {
		backups = backups[:s.limits.RecentCheck]
	}
	for _, b := range backups {
		same, err := s.sameContent(ctx, b, sum, parsed.Document)
		if err != nil {
			s.logger.Warn("auto snapshot: cannot check backup",
				slog.String("backup", b.Path),
				slog.Any("error", err),
			)
			continue
		}
		if same {
			s.logger.Debug("auto snapshot skipped: content unchanged",
				slog.String("target", target),
				slog.String("equivalent", b.Path),
			)
			return OutcomeSkipped, b, nil
		}
	}

	var ref history.VersionRef
	err = s.withLock(ctx, target, func(dir string) error {
		ref, err = s.write(dir, target, autoMarker, content)
		if err != nil {
			return err
		}
		return s.cleanup(dir, s.limits.Auto, true)
	})
	if err != nil {
		return "", history.VersionRef{}, err
	}
	s.logger.Info("auto snapshot created",
		slog.String("target", target),
		slog.String("path", ref.Path),
	)
	return OutcomeCreated, ref, nil
}

// sameContent compares backup b with the content being saved.
func (s *Store) sameContent(ctx context.Context, b history.VersionRef, sum string, doc entry.Document) (bool, error) {
	doc2, err := s.Load(ctx, b)
	if err != nil {
		return false, err
	}
	blob, err := os.ReadFile(b.Path)
	if err != nil {
		return false, err
	}
	bsum, err := loader.Digest(blob)
	if err != nil {
		return false, err
	}
	return bsum == sum && reconcile.Equivalent(doc, doc2, reconcile.PolicyStrict), nil
}

func (s *Store) contentOf(target string, content []byte) ([]byte, error) {
	if content == nil {
		b, err := os.ReadFile(target)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", target, err)
		}
		content = b
	}
	if !json.Valid(content) {
		return nil, ErrInvalidContent
	}
	return content, nil
}

// withLock creates the backup directory of target and runs fn while holding
// the directory lock.
func (s *Store) withLock(ctx context.Context, target string, fn func(dir string) error) error {
	dir := s.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	l := flock.New(filepath.Join(dir, lockName))
	locked, err := l.TryLockContext(ctx, lockRetry)
	if err != nil {
		return fmt.Errorf("cannot acquire snapshot lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another snapshot of %s is in progress", target)
	}
	defer func() { _ = l.Unlock() }()
	return fn(dir)
}

// write stores content under a fresh backup name and stamps it with the
// store clock.
func (s *Store) write(dir, target, suffix string, content []byte) (history.VersionRef, error) {
	now := s.now()
	ext := filepath.Ext(target)
	if ext == "" || strings.EqualFold(ext, ".png") {
		ext = ".json"
	}
	stem := baseName(target) + "_" + now.Format(timeLayout)
	name := stem + suffix + ext
	for n := 2; exists(filepath.Join(dir, name)); n++ {
		name = stem + "-" + strconv.Itoa(n) + suffix + ext
	}
	path := filepath.Join(dir, name)
	if err := writeAtomic(dir, name, content); err != nil {
		return history.VersionRef{}, err
	}
	_ = os.Chtimes(path, now, now)
	info, err := os.Stat(path)
	if err != nil {
		return history.VersionRef{}, err
	}
	return refFor(path, info), nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// writeAtomic writes data into <dir>/<name>. The write is performed into a
// temporary file within the same directory, then renamed to ensure readers
// never observe a partially-written file.
func writeAtomic(dir, name string, data []byte) error {
	tmp, f, err := createTempFile(dir, name)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp) // best-effort cleanup
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, filepath.Join(dir, name))
}

// createTempFile creates a temporary file in the target directory with a
// name derived from base (".tmp-<base>-<rand>"), returning its path and an
// *os.File ready for writing. Caller is responsible for closing it.
func createTempFile(dir, base string) (string, *os.File, error) {
	f, err := os.CreateTemp(dir, ".tmp-"+base+"-")
	if err != nil {
		return "", nil, err
	}
	return f.Name(), f, nil
}

// cleanup keeps the newest limit backups of one class (auto or manual) and
// removes the rest together with same-named sidecar files.
func (s *Store) cleanup(dir string, limit int, auto bool) error {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	type file struct {
		path string
		name string
		mod  time.Time
	}
	var files []file
	for _, de := range ents {
		name := de.Name()
		if de.IsDir() || !isBackupFile(name) || strings.Contains(name, autoMarker) != auto {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		files = append(files, file{path: filepath.Join(dir, name), name: name, mod: info.ModTime()})
	}
	if len(files) <= limit {
		return nil
	}
	sort.SliceStable(files, func(i, j int) bool {
		if !files[i].mod.Equal(files[j].mod) {
			return files[i].mod.After(files[j].mod)
		}
		return files[i].name > files[j].name
	})
	for _, f := range files[limit:] {
		if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("cannot delete old snapshot", slog.String("path", f.path), slog.Any("error", err))
			continue
		}
		s.logger.Debug("deleted old snapshot", slog.String("path", f.path))
		base := strings.TrimSuffix(f.path, filepath.Ext(f.path))
		for _, ext := range append([]string{".json"}, sidecarExts...) {
			if side := base + ext; side != f.path {
				_ = os.Remove(side)
			}
		}
	}
	return nil
}
