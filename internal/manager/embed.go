package manager

import (
	"context"
	"fmt"

	"mlxd/internal/pooling"
)

// Embed encodes each text into a normalized embedding vector. The returned
// slice preserves input order; the second return is the active model name.
func (m *Manager) Embed(ctx context.Context, texts []string) ([][]float32, string, error) {
	if len(texts) == 0 {
		return nil, "", ErrValidation("no input text to embed")
	}
	for i, t := range texts {
		if err := m.validatePrompt(t); err != nil {
			return nil, "", ErrValidation(fmt.Sprintf("input %d: %v", i, err))
		}
	}

	m.slot.RLock()
	defer m.slot.RUnlock()

	m.mu.RLock()
	mdl := m.model
	name := m.name
	m.mu.RUnlock()
	if mdl == nil {
		return nil, "", ErrDependencyUnavailable("no model loaded")
	}

	strategy := pooling.ForModel(name)
	special := make(map[int]struct{}, len(mdl.Tokenizer().SpecialTokenIDs))
	for _, id := range mdl.Tokenizer().SpecialTokenIDs {
		special[id] = struct{}{}
	}

	if err := m.acquireEngine(ctx); err != nil {
		return nil, "", err
	}
	defer m.releaseEngine()

	out := make([][]float32, 0, len(texts))
	for i, text := range texts {
		ids, err := mdl.Tokenize(ctx, text)
		if err != nil {
			return nil, "", ErrEngine(fmt.Sprintf("tokenize input %d: %v", i, err))
		}
		hidden, err := mdl.Forward(ctx, ids)
		if err != nil {
			return nil, "", ErrEngine(fmt.Sprintf("forward pass for input %d: %v", i, err))
		}
		vec, err := pooling.Pool(hidden, strategy, ids, special)
		if err != nil {
			return nil, "", ErrEngine(fmt.Sprintf("pool input %d: %v", i, err))
		}
		out = append(out, vec)
		embeddingsTotal.Inc()
	}
	m.log.Debug().Int("texts", len(texts)).Str("strategy", string(strategy)).Msg("embedded inputs")
	return out, name, nil
}
