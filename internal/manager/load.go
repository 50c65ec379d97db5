package manager

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mlxd/internal/engine"
)

// Load makes name the active model. It is idempotent: loading the already
// active model is a no-op. A failure anywhere rolls the slot back to
// Unloaded with all model fields cleared, leaving the service retriable
// with a different model.
func (m *Manager) Load(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrValidation("missing model name")
	}

	m.mu.RLock()
	already := m.state == StateLoaded && m.name == name
	m.mu.RUnlock()
	if already {
		m.log.Info().Str("model", name).Msg("model already loaded")
		return nil
	}

	if m.engine == nil {
		return ErrDependencyUnavailable("inference engine not configured")
	}
	if m.store == nil {
		return ErrDependencyUnavailable("model store not configured")
	}

	// Exclusive slot section: no generation may run while the model swaps.
	m.slot.Lock()
	defer m.slot.Unlock()

	// Re-check under the slot lock; a concurrent Load may have won.
	m.mu.RLock()
	already = m.state == StateLoaded && m.name == name
	m.mu.RUnlock()
	if already {
		return nil
	}

	m.setState(StateLoading, "")
	start := time.Now()
	m.log.Info().Str("model", name).Msg("loading model")

	mdl, path, vision, err := m.loadLocked(ctx, name)
	if err != nil {
		class := engine.ClassifyLoad(err)
		loadFailuresTotal.WithLabelValues(string(class)).Inc()
		m.rollback(err)
		m.log.Error().Err(err).Str("model", name).Str("class", string(class)).Msg("model load failed")
		return classifiedLoadError(name, class, err)
	}

	m.mu.Lock()
	old := m.model
	m.model = mdl
	m.name = name
	m.path = path
	m.vision = vision
	m.state = StateLoaded
	m.lastErr = ""
	m.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	loadsTotal.Inc()
	m.log.Info().
		Str("model", name).
		Bool("vision", vision).
		Dur("dur", time.Since(start)).
		Msg("model loaded")
	return nil
}

// loadLocked resolves artifacts and asks the engine for a session. Caller
// holds the slot lock.
func (m *Manager) loadLocked(ctx context.Context, name string) (engine.Model, string, bool, error) {
	if !m.store.Exists(name) {
		if m.fetcher == nil {
			return nil, "", false, fmt.Errorf("model %s not cached and remote fetch disabled: %w", name, engine.ErrNotFound)
		}
		m.log.Info().Str("model", name).Msg("cache miss, fetching from hub")
		if err := m.fetcher.Fetch(ctx, name); err != nil {
			return nil, "", false, fmt.Errorf("fetch %s: %w", name, err)
		}
	}

	manifest, err := m.store.Manifest(name)
	if err != nil {
		return nil, "", false, fmt.Errorf("read manifest for %s: %w", name, err)
	}
	vision := detectVision(manifest, name)

	path := m.store.Path(name)
	mdl, err := m.engine.Load(ctx, engine.LoadSpec{Name: name, Path: path, Vision: vision})
	if err != nil {
		return nil, "", false, fmt.Errorf("engine load %s: %w", name, err)
	}
	return mdl, path, vision, nil
}

// rollback restores Unloaded with every model field cleared; no partially
// initialized state survives a failure.
func (m *Manager) rollback(cause error) {
	m.mu.Lock()
	old := m.model
	m.model = nil
	m.name = ""
	m.path = ""
	m.vision = false
	m.state = StateUnloaded
	m.lastErr = cause.Error()
	m.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
}

func (m *Manager) setState(s State, lastErr string) {
	m.mu.Lock()
	m.state = s
	if lastErr != "" {
		m.lastErr = lastErr
	}
	m.mu.Unlock()
}

// classifiedLoadError maps a failure class onto the error taxonomy.
func classifiedLoadError(name string, class engine.FailureClass, err error) error {
	msg := fmt.Sprintf("load %s: %v", name, err)
	switch class {
	case engine.ClassNotFound:
		return ErrNotFound(msg)
	case engine.ClassNetwork:
		return ErrNetwork(msg)
	case engine.ClassResourceExhausted:
		return ErrResourceExhausted(msg)
	default:
		return ErrEngine(msg)
	}
}
