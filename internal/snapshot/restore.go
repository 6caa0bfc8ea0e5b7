package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"lore-history/internal/history"
	"lore-history/internal/loader"
)

// sidecarExts are the image files that travel with a JSON backup of the
// same base name.
var sidecarExts = []string{".png", ".webp", ".jpg", ".jpeg"}

// Resolve turns backup into a ref. backup is either a path to an existing
// file or a file name inside the backup directory of target.
func (s *Store) Resolve(target, backup string) (history.VersionRef, error) {
	path := backup
	if _, err := os.Stat(path); err != nil {
		path = filepath.Join(s.Dir(target), filepath.Base(backup))
	}
	info, err := os.Stat(path)
	if err != nil {
		ref := history.VersionRef{Path: path}
		if errors.Is(err, os.ErrNotExist) {
			return ref, &history.LoadError{Ref: ref, Err: history.ErrNotFound}
		}
		return ref, &history.LoadError{Ref: ref, Err: err}
	}
	return refFor(path, info), nil
}

// Restore writes backup ref over target, re-encoded in the normalized
// layout, and copies the backup's sidecar image next to target. With
// keepCurrent the live file is first saved through AutoSnapshot; the
// returned ref is that backup (or the existing one it matched), zero
// otherwise.
func (s *Store) Restore(ctx context.Context, ref history.VersionRef, target string, keepCurrent bool) (history.VersionRef, error) {
	if strings.EqualFold(filepath.Ext(ref.Path), ".png") {
		return history.VersionRef{}, &history.LoadError{Ref: ref,
			Err: fmt.Errorf("%w: embedded PNG cards are not supported", history.ErrUnreadable)}
	}
	blob, err := os.ReadFile(ref.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return history.VersionRef{}, &history.LoadError{Ref: ref, Err: history.ErrNotFound}
		}
		return history.VersionRef{}, &history.LoadError{Ref: ref, Err: fmt.Errorf("%w: %v", history.ErrUnreadable, err)}
	}
	data, err := loader.Normalize(blob)
	if err != nil {
		return history.VersionRef{}, &history.LoadError{Ref: ref, Err: fmt.Errorf("%w: %v", history.ErrUnreadable, err)}
	}

	var saved history.VersionRef
	if keepCurrent && exists(target) {
		if _, saved, err = s.AutoSnapshot(ctx, target, nil); err != nil {
			return history.VersionRef{}, fmt.Errorf("cannot back up %s before restore: %w", target, err)
		}
	}

	err = s.withLock(ctx, target, func(string) error {
		mode := os.FileMode(0o644)
		if info, err := os.Stat(target); err == nil {
			mode = info.Mode().Perm()
		}
		dir, name := filepath.Split(target)
		if dir == "" {
			dir = "."
		}
		if err := writeAtomic(dir, name, data); err != nil {
			return err
		}
		if err := os.Chmod(target, mode); err != nil {
			return err
		}
		return s.restoreSidecar(ref.Path, target)
	})
	if err != nil {
		return history.VersionRef{}, err
	}
	s.logger.Info("backup restored",
		slog.String("target", target),
		slog.String("backup", ref.Path),
	)
	return saved, nil
}

// restoreSidecar copies the first sidecar image found beside backup to the
// same extension beside target. Only JSON targets carry sidecars.
func (s *Store) restoreSidecar(backup, target string) error {
	if !strings.EqualFold(filepath.Ext(target), ".json") {
		return nil
	}
	bbase := strings.TrimSuffix(backup, filepath.Ext(backup))
	tbase := strings.TrimSuffix(target, filepath.Ext(target))
	for _, ext := range sidecarExts {
		img, err := os.ReadFile(bbase + ext)
		if err != nil {
			continue
		}
		dir, name := filepath.Split(tbase + ext)
		if dir == "" {
			dir = "."
		}
		if err := writeAtomic(dir, name, img); err != nil {
			return fmt.Errorf("restore sidecar %s: %w", ext, err)
		}
		s.logger.Debug("sidecar restored", slog.String("path", tbase+ext))
		return nil
	}
	return nil
}
