package graph

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hrygo/vaultsense/internal/profile"
	"github.com/hrygo/vaultsense/vault"
)

// Engine owns the graph lifecycle: it rebuilds the snapshot from the vault
// when stale and serves all queries from the latest published generation.
// Builds are serialized behind a singleflight group, so concurrent callers
// share one in-flight build; reads always see a fully built snapshot.
type Engine struct {
	vault   *vault.Vault
	profile *profile.Profile
	logger  *slog.Logger

	group      singleflight.Group
	generation atomic.Uint64
	snapshot   atomic.Pointer[Snapshot]
}

// New creates an engine on top of a vault. A nil profile gets defaults.
func New(v *vault.Vault, p *profile.Profile) *Engine {
	if p == nil {
		p = &profile.Profile{}
		p.FromEnv()
	}
	return &Engine{
		vault:   v,
		profile: p,
		logger:  slog.Default(),
	}
}

// SetLogger replaces the engine logger. Intended for wiring at startup,
// before the engine is shared.
func (e *Engine) SetLogger(logger *slog.Logger) {
	if logger != nil {
		e.logger = logger
	}
}

func (e *Engine) stalenessThreshold() time.Duration {
	ms := e.profile.GraphStalenessMS
	if ms <= 0 {
		ms = 60000
	}
	return time.Duration(ms) * time.Millisecond
}

// BuildGraph rebuilds the graph unless a sufficiently fresh build exists
// and force is false. The previous generation stays readable until the new
// snapshot is published.
func (e *Engine) BuildGraph(ctx context.Context, force bool) error {
	if !e.needsBuild(force) {
		return nil
	}
	_, err, _ := e.group.Do("build", func() (any, error) {
		// Re-check under the flight: a caller that lost the race to a
		// just-finished build must not rebuild again.
		if !force && !e.needsBuild(false) {
			return nil, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if force {
			e.vault.Refresh(ctx)
		}
		snapshot := buildSnapshot(ctx, e.vault, buildOptions{
			clusterCap: e.profile.GraphClusterCap,
		}, e.generation.Add(1), e.logger)
		e.snapshot.Store(snapshot)
		return nil, nil
	})
	return err
}

func (e *Engine) needsBuild(force bool) bool {
	s := e.snapshot.Load()
	var builtAt time.Time
	if s != nil {
		builtAt = s.BuiltAt
	}
	return ShouldRebuild(time.Now(), builtAt, e.stalenessThreshold(), force)
}

// Snapshot returns the latest published build generation, or nil if no
// build has run yet. The snapshot is immutable.
func (e *Engine) Snapshot() *Snapshot {
	return e.snapshot.Load()
}

// GetNode returns the node with the given ID (note path or "tag:"+name),
// or nil when unknown.
func (e *Engine) GetNode(ctx context.Context, id string) (Node, error) {
	if err := e.BuildGraph(ctx, false); err != nil {
		return nil, err
	}
	s := e.snapshot.Load()
	if s == nil {
		return nil, nil
	}
	return s.Node(id), nil
}

// GetNoteNodes returns all note nodes in build order.
func (e *Engine) GetNoteNodes(ctx context.Context) ([]*NoteNode, error) {
	if err := e.BuildGraph(ctx, false); err != nil {
		return nil, err
	}
	s := e.snapshot.Load()
	if s == nil {
		return nil, nil
	}
	return s.NoteNodes(), nil
}

// GetConnectedNodes returns the notes connected to id, directly or through
// a shared tag, treating edges as undirected.
func (e *Engine) GetConnectedNodes(ctx context.Context, id string) ([]string, error) {
	if err := e.BuildGraph(ctx, false); err != nil {
		return nil, err
	}
	s := e.snapshot.Load()
	if s == nil {
		return nil, nil
	}
	return s.ConnectedNotes(id), nil
}
