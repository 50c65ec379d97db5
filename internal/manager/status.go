package manager

import (
	"context"

	"mlxd/pkg/types"
)

// Health reports last-known slot state. It never touches the engine, so it
// stays responsive during loads and long generations.
func (m *Manager) Health() types.HealthResponse {
	snap := m.Snapshot()
	loaded := snap.State == StateLoaded
	caps := []string{"completion", "embedding", "tools"}
	if loaded && snap.Vision {
		caps = append(caps, "vision")
	}
	return types.HealthResponse{
		Status:        "ok",
		ModelLoaded:   loaded,
		CurrentModel:  snap.Name,
		IsVisionModel: loaded && snap.Vision,
		Capabilities:  caps,
	}
}

// Info describes the device backing the engine.
func (m *Manager) Info() types.InfoResponse {
	return m.device
}

// Models lists the locally cached models.
func (m *Manager) Models(ctx context.Context) ([]types.ModelInfo, error) {
	if m.store == nil {
		return nil, ErrDependencyUnavailable("model store not configured")
	}
	infos, err := m.store.List()
	if err != nil {
		return nil, ErrEngine("list models: " + err.Error())
	}
	return infos, nil
}
