// Package pooling reduces per-token hidden states to a single normalized
// embedding vector. Strategy selection is a pure function of the model name,
// implemented as an ordered first-match rule table.
package pooling

import (
	"fmt"
	"math"
	"strings"
)

// Strategy names how a (sequence, hidden) matrix collapses to one vector.
type Strategy string

const (
	// CLS takes the first position (encoder-only, BERT-style families).
	CLS Strategy = "cls"
	// LastToken takes the final position (decoder-only, GPT-style families).
	LastToken Strategy = "last_token"
	// Mean averages all positions.
	Mean Strategy = "mean"
	// MeanNoSpecial averages positions excluding known special tokens. It is
	// the default for unrecognized families.
	MeanNoSpecial Strategy = "mean_no_special"
)

// epsilon floors the L2 denominator so all-zero states never divide by zero.
const epsilon = 1e-12

type rule struct {
	substr   string
	strategy Strategy
}

// First match wins; order matters. "sentence" must outrank the decoder
// families because names like sentence-transformers/all-MiniLM embed both.
var rules = []rule{
	{"sentence-transformers", MeanNoSpecial},
	{"sentence", MeanNoSpecial},
	{"bge-", MeanNoSpecial},
	{"gte-", MeanNoSpecial},
	{"e5-", MeanNoSpecial},
	{"minilm", MeanNoSpecial},
	{"bert", CLS},
	{"roberta", CLS},
	{"electra", CLS},
	{"deberta", CLS},
	{"mpnet", CLS},
	{"gpt", LastToken},
	{"llama", LastToken},
	{"mistral", LastToken},
	{"mixtral", LastToken},
	{"qwen", LastToken},
	{"phi-", LastToken},
	{"phi2", LastToken},
	{"phi3", LastToken},
	{"gemma", LastToken},
	{"smollm", LastToken},
	{"falcon", LastToken},
	{"olmo", LastToken},
}

// ForModel selects the pooling strategy for a model name, matched
// case-insensitively against known family substrings.
func ForModel(name string) Strategy {
	lower := strings.ToLower(name)
	for _, r := range rules {
		if strings.Contains(lower, r.substr) {
			return r.strategy
		}
	}
	return MeanNoSpecial
}

// Pool collapses hidden states of shape (sequence, hidden) into one
// L2-normalized vector. tokens and specialIDs are consulted only by
// MeanNoSpecial; when the keep-mask would be empty (no special ids known, or
// every position is special) it falls back to an unweighted mean.
func Pool(hidden [][]float32, strategy Strategy, tokens []int, specialIDs map[int]struct{}) ([]float32, error) {
	if len(hidden) == 0 {
		return nil, fmt.Errorf("pooling: empty hidden states")
	}
	dim := len(hidden[0])
	for i, row := range hidden {
		if len(row) != dim {
			return nil, fmt.Errorf("pooling: ragged hidden states at position %d", i)
		}
	}

	var v []float32
	switch strategy {
	case CLS:
		v = clone(hidden[0])
	case LastToken:
		v = clone(hidden[len(hidden)-1])
	case Mean:
		v = mean(hidden, nil)
	case MeanNoSpecial:
		keep := keepMask(hidden, tokens, specialIDs)
		v = mean(hidden, keep)
	default:
		return nil, fmt.Errorf("pooling: unknown strategy %q", strategy)
	}
	return Normalize(v), nil
}

// keepMask marks non-special positions. Returns nil (meaning keep all) when
// no usable mask can be built.
func keepMask(hidden [][]float32, tokens []int, specialIDs map[int]struct{}) []bool {
	if len(specialIDs) == 0 || len(tokens) != len(hidden) {
		return nil
	}
	keep := make([]bool, len(tokens))
	any := false
	for i, id := range tokens {
		if _, special := specialIDs[id]; !special {
			keep[i] = true
			any = true
		}
	}
	if !any {
		return nil
	}
	return keep
}

func mean(hidden [][]float32, keep []bool) []float32 {
	dim := len(hidden[0])
	sum := make([]float64, dim)
	n := 0
	for i, row := range hidden {
		if keep != nil && !keep[i] {
			continue
		}
		for j, x := range row {
			sum[j] += float64(x)
		}
		n++
	}
	out := make([]float32, dim)
	for j := range sum {
		out[j] = float32(sum[j] / float64(n))
	}
	return out
}

// Normalize scales v to unit L2 norm with an epsilon floor on the
// denominator.
func Normalize(v []float32) []float32 {
	var sq float64
	for _, x := range v {
		sq += float64(x) * float64(x)
	}
	norm := math.Sqrt(sq)
	if norm < epsilon {
		norm = epsilon
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func clone(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
