package manager

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xeipuuv/gojsonschema"

	"mlxd/pkg/types"
)

// Options are the sampling knobs after defaulting and validation.
type Options struct {
	Temperature      float64
	TopK             int
	TopP             float64
	NumPredict       int
	NumCtx           int
	RepeatPenalty    float64
	RepeatLastN      int
	PresencePenalty  float64
	FrequencyPenalty float64
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		Temperature:      0.7,
		TopK:             40,
		TopP:             0.9,
		NumPredict:       16384,
		NumCtx:           32768,
		RepeatPenalty:    1.1,
		RepeatLastN:      64,
		PresencePenalty:  0.0,
		FrequencyPenalty: 0.0,
	}
}

// inertOptionKeys are accepted for wire compatibility but carry no semantic
// effect in this backend.
var inertOptionKeys = map[string]struct{}{
	"num_batch":        {},
	"num_gpu":          {},
	"main_gpu":         {},
	"low_vram":         {},
	"seed":             {},
	"stop":             {},
	"tfs_z":            {},
	"typical_p":        {},
	"mirostat":         {},
	"mirostat_tau":     {},
	"mirostat_eta":     {},
	"penalize_newline": {},
	"num_thread":       {},
}

// normalizeOptions merges the supplied overrides over defaults, silently
// dropping unrecognized keys, and rejects out-of-range values before any
// engine call.
func (m *Manager) normalizeOptions(raw map[string]any) (Options, error) {
	opts := DefaultOptions()
	for key, val := range raw {
		switch key {
		case "temperature":
			f, err := asFloat(key, val)
			if err != nil {
				return opts, err
			}
			opts.Temperature = f
		case "top_k":
			n, err := asInt(key, val)
			if err != nil {
				return opts, err
			}
			opts.TopK = n
		case "top_p":
			f, err := asFloat(key, val)
			if err != nil {
				return opts, err
			}
			opts.TopP = f
		case "num_predict":
			n, err := asInt(key, val)
			if err != nil {
				return opts, err
			}
			opts.NumPredict = n
		case "num_ctx":
			n, err := asInt(key, val)
			if err != nil {
				return opts, err
			}
			opts.NumCtx = n
		case "repeat_penalty":
			f, err := asFloat(key, val)
			if err != nil {
				return opts, err
			}
			opts.RepeatPenalty = f
		case "repeat_last_n":
			n, err := asInt(key, val)
			if err != nil {
				return opts, err
			}
			opts.RepeatLastN = n
		case "presence_penalty":
			f, err := asFloat(key, val)
			if err != nil {
				return opts, err
			}
			opts.PresencePenalty = f
		case "frequency_penalty":
			f, err := asFloat(key, val)
			if err != nil {
				return opts, err
			}
			opts.FrequencyPenalty = f
		default:
			// Inert pass-through keys and unknown keys alike are dropped;
			// forward compatibility over strictness.
			if _, inert := inertOptionKeys[key]; !inert {
				m.log.Debug().Str("key", key).Msg("dropping unrecognized option")
			}
		}
	}

	if opts.Temperature < 0 || opts.Temperature > 2 {
		return opts, ErrValidation(fmt.Sprintf("temperature %g out of range [0,2]", opts.Temperature))
	}
	if opts.TopK < 0 || opts.TopK > 1000 {
		return opts, ErrValidation(fmt.Sprintf("top_k %d out of range [0,1000]", opts.TopK))
	}
	if opts.TopP < 0 || opts.TopP > 1 {
		return opts, ErrValidation(fmt.Sprintf("top_p %g out of range [0,1]", opts.TopP))
	}
	if opts.NumCtx < 1 {
		return opts, ErrValidation(fmt.Sprintf("num_ctx %d must be positive", opts.NumCtx))
	}
	if opts.NumPredict < 1 || opts.NumPredict > opts.NumCtx {
		return opts, ErrValidation(fmt.Sprintf("num_predict %d out of range [1,%d]", opts.NumPredict, opts.NumCtx))
	}
	return opts, nil
}

func asFloat(key string, val any) (float64, error) {
	switch v := val.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	}
	return 0, ErrValidation(fmt.Sprintf("option %s must be a number", key))
}

func asInt(key string, val any) (int, error) {
	switch v := val.(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, ErrValidation(fmt.Sprintf("option %s must be an integer", key))
		}
		return int(v), nil
	case int:
		return v, nil
	}
	return 0, ErrValidation(fmt.Sprintf("option %s must be an integer", key))
}

// validatePrompt bounds the prompt length pre-tokenization. The limit is in
// characters, not bytes, so multi-byte text is not penalized.
func (m *Manager) validatePrompt(prompt string) error {
	if n := utf8.RuneCountInString(prompt); n > m.maxPromptChars {
		return ErrValidation(fmt.Sprintf("prompt length %d exceeds limit %d", n, m.maxPromptChars))
	}
	return nil
}

// validateTools checks that each tool has a name and, when parameters are
// supplied, that they compile as a JSON Schema.
func validateTools(tools []types.Tool) error {
	for i, tool := range tools {
		if strings.TrimSpace(tool.Function.Name) == "" {
			return ErrValidation(fmt.Sprintf("tool %d has no function name", i))
		}
		if tool.Function.Parameters == nil {
			continue
		}
		loader := gojsonschema.NewGoLoader(tool.Function.Parameters)
		if _, err := gojsonschema.NewSchema(loader); err != nil {
			return ErrValidation(fmt.Sprintf("tool %q has an invalid parameters schema: %v", tool.Function.Name, err))
		}
	}
	return nil
}
