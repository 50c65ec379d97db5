package manager

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"mlxd/internal/engine"
	"mlxd/internal/modelstore"
	"mlxd/pkg/types"
)

// Manager owns the single active model slot. At most one model is loaded at
// a time; loads are exclusive against in-flight generations.
type Manager struct {
	// mu guards the snapshot fields (state, name, path, vision, lastErr)
	// with short critical sections only, so health/info reads never block
	// behind a long load.
	mu sync.RWMutex
	// slot is the active-model slot lock: Load holds it exclusively for the
	// whole load; Complete/Embed hold it shared for their full duration.
	slot sync.RWMutex
	// engineCh serializes engine calls (size 1). Backends of this kind hold
	// mutable device-side state and are not assumed reentrant.
	engineCh chan struct{}

	engine  engine.Engine
	store   *modelstore.Store
	fetcher modelstore.Fetcher
	log     zerolog.Logger

	state   State
	model   engine.Model
	name    string
	path    string
	vision  bool
	lastErr string

	maxPromptChars int
	device         types.InfoResponse
}

// Snapshot returns a read-only view of the active model slot.
func (m *Manager) Snapshot() ModelState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return ModelState{
		State:     m.state,
		Name:      m.name,
		Path:      m.path,
		Vision:    m.vision,
		LastError: m.lastErr,
	}
}

// Ready reports whether a model is loaded and generation can proceed.
func (m *Manager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == StateLoaded && m.model != nil
}

// CurrentModel returns the active model name, or "" when unloaded.
func (m *Manager) CurrentModel() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.name
}

// acquireEngine takes the single-owner engine slot, honoring ctx.
func (m *Manager) acquireEngine(ctx context.Context) error {
	select {
	case m.engineCh <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) releaseEngine() { <-m.engineCh }
