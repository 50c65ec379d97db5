// Package engine defines the contract with the external inference backend.
// All neural computation (tokenization, forward pass, sampling, image
// encoding) happens behind these interfaces; the rest of the daemon only
// drives them. Keep this surface small; hot math stays in the backend.
package engine

import "context"

// LoadSpec tells the engine what to load and which loader to use.
type LoadSpec struct {
	// Name is the model identifier as requested by the client.
	Name string
	// Path is the resolved local directory with weight artifacts.
	Path string
	// Vision selects the vision-capable loader over the text-only one.
	Vision bool
}

// Engine creates model sessions. Implementations are not assumed reentrant;
// callers serialize access (see manager).
type Engine interface {
	Load(ctx context.Context, spec LoadSpec) (Model, error)
}

// Model is one loaded model. Tokenize, Forward and Stream map directly onto
// the backend's primitives.
type Model interface {
	// Tokenize encodes text to token ids.
	Tokenize(ctx context.Context, text string) ([]int, error)
	// Forward runs the transformer and returns per-token hidden states of
	// shape (sequence length, hidden dimension).
	Forward(ctx context.Context, ids []int) ([][]float32, error)
	// Stream starts sampled generation and returns a lazy token iterator.
	Stream(ctx context.Context, req StreamRequest) (TokenIterator, error)
	// Tokenizer exposes tokenizer metadata used for pooling and templating.
	Tokenizer() TokenizerInfo
	// Close releases backend resources.
	Close() error
}

// StreamRequest parameterizes one generation.
type StreamRequest struct {
	// Tokens is the encoded prompt (text path).
	Tokens []int
	// Prompt is the raw prompt text (vision path; the engine encodes it
	// together with the image).
	Prompt string
	// Image is the decoded image payload, at most one per request.
	Image []byte
	// Sampler carries the sampling knobs.
	Sampler SamplerParams
}

// SamplerParams are the sampling knobs forwarded to the engine. NumPredict
// is the engine's generation budget; the caller additionally enforces a
// liveness bound at twice this value.
type SamplerParams struct {
	Temperature      float32
	TopK             int
	TopP             float32
	NumPredict       int
	RepeatPenalty    float32
	RepeatLastN      int
	PresencePenalty  float32
	FrequencyPenalty float32
}

// TokenEvent is one produced token.
type TokenEvent struct {
	ID      int
	Text    string
	Logprob float64
}

// TokenIterator yields tokens lazily. Next returns ok=false when the engine
// signals natural termination. Implementations must honor ctx cancellation.
type TokenIterator interface {
	Next(ctx context.Context) (ev TokenEvent, ok bool, err error)
	Close() error
}

// TokenizerInfo exposes the tokenizer metadata the bridge needs: special
// token ids for embedding pooling, the image placeholder for vision prompts
// and an optional chat template.
type TokenizerInfo struct {
	// SpecialTokenIDs maps known special-token roles (pad, cls, sep, bos,
	// eos, unk) to ids. Roles the tokenizer lacks are absent.
	SpecialTokenIDs map[string]int
	// ImageToken is the placeholder inserted into vision prompts, e.g.
	// "<image>". Empty for text-only models.
	ImageToken string
	// ChatTemplate, when non-empty, is applied to vision prompts. The
	// literal "{{prompt}}" marks where the user prompt is substituted.
	ChatTemplate string
}
