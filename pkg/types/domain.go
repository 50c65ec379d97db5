package types

import "time"

// ModelInfo describes one locally cached model directory.
type ModelInfo struct {
	// Model identifier as requested by clients.
	// example: mlx-community/Llama-3.2-3B-Instruct-4bit
	Name string `json:"name" example:"mlx-community/Llama-3.2-3B-Instruct-4bit"`
	// Total size of the cached artifacts in bytes.
	Size int64 `json:"size"`
	// Stable digest derived from the model name.
	Digest string `json:"digest"`
	// Last modification time of the cache directory.
	ModifiedAt time.Time `json:"modified_at"`
	// Architecture family read from the manifest (e.g., LlamaForCausalLM).
	Family string `json:"family,omitempty"`
	// Rough parameter-size label derived from the manifest.
	ParameterSize string `json:"parameter_size,omitempty"`
	// Absolute cache directory; not serialized.
	LocalPath string `json:"-"`
}
