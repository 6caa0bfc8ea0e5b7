// Package history decides which backups of a document are worth showing.
//
// A history list is newest first. Backups at the top that are
// diff-equivalent to the live version carry no information and are hidden;
// the first backup that differs, and everything older, is kept. Pruning
// fails open: a backup that cannot be loaded is never hidden and stops the
// walk, so a transient read error can cost a tidy list but never access to
// a version.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lore-history/internal/entry"
)

var (
	// ErrNotFound means the version no longer exists.
	ErrNotFound = errors.New("version not found")
	// ErrUnreadable means the version exists but its content could not be
	// decoded into a document.
	ErrUnreadable = errors.New("version unreadable")
)

// VersionRef identifies one point-in-time document. It is produced by the
// snapshot store and treated as read-only here.
type VersionRef struct {
	// Path is the opaque, loadable handle of the version.
	Path     string    `json:"path"`
	Filename string    `json:"filename,omitempty"`
	Time     time.Time `json:"time"`
	Size     int64     `json:"size"`
	Label    string    `json:"label,omitempty"`
	IsKey    bool      `json:"isKey,omitempty"`
	IsAuto   bool      `json:"isAuto,omitempty"`
	// Current marks the live version rather than a backup.
	Current bool `json:"current,omitempty"`
}

func (r VersionRef) String() string {
	if r.Current {
		return "current:" + r.Path
	}
	return r.Path
}

// Loader retrieves the document of a version.
type Loader interface {
	Load(ctx context.Context, ref VersionRef) (entry.Document, error)
}

// Lister enumerates the backups of a target, newest first.
type Lister interface {
	ListBackups(ctx context.Context, target string) ([]VersionRef, error)
}

// LoadError is a typed load failure. It unwraps to ErrNotFound or
// ErrUnreadable when the cause is known.
type LoadError struct {
	Ref VersionRef
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Ref, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
