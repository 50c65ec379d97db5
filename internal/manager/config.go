package manager

import (
	"github.com/rs/zerolog"

	"mlxd/internal/engine"
	"mlxd/internal/modelstore"
	"mlxd/pkg/types"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	// defaultMaxPromptChars bounds prompt length before tokenization.
	defaultMaxPromptChars = 8192
)

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	// Engine performs the actual inference. May be nil, in which case every
	// load or generation reports a dependency-unavailable error while the
	// read-only endpoints keep working.
	Engine engine.Engine
	// Store is the local model cache.
	Store *modelstore.Store
	// Fetcher resolves cache misses; nil disables remote fetch.
	Fetcher modelstore.Fetcher
	// Logger used for structured logging; zerolog.Nop() when unset is fine.
	Logger zerolog.Logger
	// MaxPromptChars bounds prompt length pre-tokenization (default 8192).
	MaxPromptChars int
	// Device describes the backing accelerator for GET /info.
	Device types.InfoResponse
}

// NewWithConfig constructs a Manager from ManagerConfig.
func NewWithConfig(cfg ManagerConfig) *Manager {
	m := &Manager{
		engineCh: make(chan struct{}, 1),
		engine:   cfg.Engine,
		store:    cfg.Store,
		fetcher:  cfg.Fetcher,
		log:      cfg.Logger,
		state:    StateUnloaded,
		device:   cfg.Device,
	}
	if cfg.MaxPromptChars <= 0 {
		m.maxPromptChars = defaultMaxPromptChars
	} else {
		m.maxPromptChars = cfg.MaxPromptChars
	}
	if m.device == (types.InfoResponse{}) {
		m.device = types.InfoResponse{
			GPU:               "MLX (Apple Silicon)",
			ComputeCapability: "Metal Performance Shaders",
			Device:            "Apple Neural Engine",
		}
	}
	return m
}
