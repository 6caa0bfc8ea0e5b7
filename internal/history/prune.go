package history

import (
	"context"
	"log/slog"

	"lore-history/internal/entry"
	"lore-history/internal/reconcile"
)

// Pruner hides the leading run of backups that equal the current version.
//
// Loads are sequential and stop at the first backup that differs, so only
// the backups that are actually inspected are read.
type Pruner struct {
	loader Loader
	policy reconcile.Policy
	logger *slog.Logger
}

// Option configures a Pruner.
type Option func(*Pruner)

// WithPolicy overrides the equivalence policy (visible by default).
func WithPolicy(p reconcile.Policy) Option {
	return func(pr *Pruner) { pr.policy = p }
}

// WithLogger sets the logger. If nil, slog.Default() is used.
func WithLogger(l *slog.Logger) Option {
	return func(pr *Pruner) {
		if l != nil {
			pr.logger = l
		}
	}
}

// NewPruner creates a Pruner that reads versions through loader.
func NewPruner(loader Loader, opts ...Option) *Pruner {
	p := &Pruner{loader: loader, policy: reconcile.PolicyVisible, logger: slog.Default()}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Result is the pruned list.
type Result struct {
	// Kept is the list to show, newest first.
	Kept []VersionRef `json:"kept"`
	// Hidden are the backups found equivalent to the current version.
	Hidden      []VersionRef `json:"hidden"`
	HiddenCount int          `json:"hiddenCount"`
	// StoppedBy is the load failure that ended pruning early, if any.
	StoppedBy error `json:"-"`
}

// Prune walks backups (newest first) and hides each one that is
// diff-equivalent to current, stopping at the first that is not or that
// fails to load. Load failures are reported in Result.StoppedBy and never
// returned as an error.
func (p *Pruner) Prune(ctx context.Context, current entry.Document, backups []VersionRef) Result {
	res := Result{Hidden: []VersionRef{}}
	i := 0
	for ; i < len(backups); i++ {
		doc, err := p.loader.Load(ctx, backups[i])
		if err != nil {
			p.logger.Warn("backup pruning stopped: load failed",
				slog.String("backup", backups[i].Path),
				slog.Int("hidden", len(res.Hidden)),
				slog.Any("error", err),
			)
			res.StoppedBy = err
			break
		}
		if !reconcile.Equivalent(current, doc, p.policy) {
			break
		}
		res.Hidden = append(res.Hidden, backups[i])
	}
	res.Kept = append([]VersionRef{}, backups[i:]...)
	res.HiddenCount = len(res.Hidden)
	if res.HiddenCount > 0 {
		p.logger.Debug("hid backups equal to current",
			slog.Int("hidden", res.HiddenCount),
			slog.Int("kept", len(res.Kept)),
			slog.String("policy", p.policy.String()),
		)
	}
	return res
}

// PruneRef loads the current version once and prunes backups against it.
// If current cannot be loaded nothing is hidden; the returned Result lists
// every backup as kept and the error is returned alongside it.
func (p *Pruner) PruneRef(ctx context.Context, current VersionRef, backups []VersionRef) (Result, error) {
	doc, err := p.loader.Load(ctx, current)
	if err != nil {
		p.logger.Warn("backup pruning skipped: current version unavailable",
			slog.String("current", current.Path),
			slog.Any("error", err),
		)
		return Result{
			Kept:      append([]VersionRef{}, backups...),
			Hidden:    []VersionRef{},
			StoppedBy: err,
		}, err
	}
	return p.Prune(ctx, doc, backups), nil
}

// List enumerates the backups of target through lister and prunes them
// against the live version stored at target. A failed prune still returns
// the full listing; only a failed listing is an error.
func (p *Pruner) List(ctx context.Context, lister Lister, target string) (Result, error) {
	backups, err := lister.ListBackups(ctx, target)
	if err != nil {
		return Result{}, err
	}
	res, _ := p.PruneRef(ctx, VersionRef{Path: target, Current: true}, backups)
	return res, nil
}
