package types

import (
	"encoding/json"
	"fmt"
)

// CompletionRequest is the body of POST /completion. The options map is kept
// raw so unrecognized keys can be dropped without failing the request.
type CompletionRequest struct {
	// Required prompt text. An empty prompt is a warm-up ping and yields a
	// single terminal event without touching the engine.
	// example: Write a haiku about the ocean.
	Prompt string `json:"prompt" example:"Write a haiku about the ocean."`
	// Optional base64-encoded images for vision models.
	Images []ImageData `json:"images,omitempty"`
	// Sampling option overrides merged over server defaults.
	Options map[string]any `json:"options,omitempty"`
	// Optional tool definitions. Presence switches the response to buffered
	// delivery so tool calls can be extracted from the full text.
	Tools []Tool `json:"tools,omitempty"`
	// Streaming per-token NDJSON is the default; set to false to buffer the
	// full completion into a single terminal event. Buffered delivery is
	// forced when tools are present regardless of this flag.
	// example: true
	Stream *bool `json:"stream,omitempty"`

	// Accepted for wire compatibility with the host protocol; no semantic
	// effect in this backend.
	Format      json.RawMessage `json:"format,omitempty"`
	Grammar     string          `json:"grammar,omitempty"`
	Shift       bool            `json:"shift,omitempty"`
	Truncate    bool            `json:"truncate,omitempty"`
	Logprobs    bool            `json:"logprobs,omitempty"`
	TopLogprobs int             `json:"top_logprobs,omitempty"`
}

// ImageData carries one base64-encoded image for multimodal requests.
type ImageData struct {
	Data string `json:"data"`
	ID   int    `json:"id"`
}

// Tool describes a callable function offered to the model.
type Tool struct {
	Type     string       `json:"type,omitempty"`
	Function ToolFunction `json:"function"`
}

// ToolFunction is the schema portion of a tool definition. Parameters holds
// a JSON Schema describing the function arguments.
type ToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// LoadRequest is the body of POST /load.
type LoadRequest struct {
	// Model identifier, e.g. "mlx-community/Llama-3.2-3B-Instruct-4bit".
	Model string `json:"model"`
}

// LoadResponse is returned by POST /load.
type LoadResponse struct {
	// example: loaded
	Status string `json:"status" example:"loaded"`
	Model  string `json:"model"`
}

// HealthResponse is returned by GET /health. It reflects last-known state
// and never fails due to model problems.
type HealthResponse struct {
	// example: ok
	Status        string   `json:"status" example:"ok"`
	ModelLoaded   bool     `json:"model_loaded"`
	CurrentModel  string   `json:"current_model"`
	IsVisionModel bool     `json:"is_vision_model"`
	Capabilities  []string `json:"capabilities"`
}

// InfoResponse describes the device backing the inference engine.
type InfoResponse struct {
	GPU               string `json:"gpu"`
	ComputeCapability string `json:"compute_capability"`
	Device            string `json:"device"`
}

// EmbeddingRequest is the body of POST /embedding. The input text may arrive
// under "prompt", "input" or "content", as a single string or a list.
type EmbeddingRequest struct {
	Input []string `json:"-"`
}

// UnmarshalJSON accepts the three historical key spellings and both scalar
// and list forms.
func (r *EmbeddingRequest) UnmarshalJSON(b []byte) error {
	var raw struct {
		Prompt  json.RawMessage `json:"prompt"`
		Input   json.RawMessage `json:"input"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for _, field := range []json.RawMessage{raw.Prompt, raw.Input, raw.Content} {
		if len(field) == 0 {
			continue
		}
		texts, err := stringOrList(field)
		if err != nil {
			return err
		}
		r.Input = texts
		return nil
	}
	r.Input = nil
	return nil
}

func stringOrList(raw json.RawMessage) ([]string, error) {
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		return []string{one}, nil
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		return many, nil
	}
	return nil, fmt.Errorf("embedding input must be a string or a list of strings")
}

// EmbeddingResponse is returned by POST /embedding. Vectors preserve the
// order of the input texts.
type EmbeddingResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Model      string      `json:"model"`
}

// ModelsResponse wraps the list of cached models returned by GET /models.
type ModelsResponse struct {
	Models []ModelInfo `json:"models"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}
