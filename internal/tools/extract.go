// Package tools extracts structured function calls embedded in free-form
// model output. Models prompted with tool definitions are asked to answer
// with a JSON block, but they routinely wrap it in narrative text, so the
// extractor scans the whole completion for parseable JSON candidates.
package tools

import (
	"encoding/json"
	"fmt"

	"mlxd/pkg/types"
)

// Extract scans text for an embedded tool-call payload and returns the
// normalized calls in first-seen order, or nil when none parse. The caller
// keeps the original text as content either way.
func Extract(text string) []types.ToolCall {
	for _, candidate := range candidates(text) {
		var raw any
		if err := json.Unmarshal([]byte(candidate), &raw); err != nil {
			continue
		}
		if calls := normalize(raw); len(calls) > 0 {
			return calls
		}
	}
	return nil
}

// candidates returns the top-level JSON spans in order of appearance: each
// span where {/[ nesting returns to zero is a candidate. Quoted strings and
// escapes are skipped so braces inside string literals do not open spans.
func candidates(text string) []string {
	var spans []string
	depth := 0
	start := -1
	inString := false
	escaped := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{', '[':
			if depth == 0 {
				start = i
			}
			depth++
		case '}', ']':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				spans = append(spans, text[start:i+1])
				start = -1
			}
		}
	}
	return spans
}

// normalize accepts the three container shapes (tool_calls envelope, bare
// array, single object) and returns the calls that survive per-call
// normalization.
func normalize(raw any) []types.ToolCall {
	var items []any
	switch v := raw.(type) {
	case map[string]any:
		if tc, ok := v["tool_calls"].([]any); ok {
			items = tc
		} else {
			items = []any{v}
		}
	case []any:
		items = v
	default:
		return nil
	}

	var calls []types.ToolCall
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name, args, ok := splitCall(obj)
		if !ok || name == "" {
			continue
		}
		idx := len(calls)
		calls = append(calls, types.ToolCall{
			ID: fmt.Sprintf("call_%d", idx),
			Function: types.ToolCallFunction{
				Index:     idx,
				Name:      name,
				Arguments: coerceArguments(args),
			},
		})
	}
	return calls
}

// splitCall accepts the three call shapes: nested function object, flat
// name/arguments pair, and single-key object keyed by the function name.
func splitCall(obj map[string]any) (name string, args any, ok bool) {
	if fn, isMap := obj["function"].(map[string]any); isMap {
		name, _ = fn["name"].(string)
		return name, fn["arguments"], true
	}
	if n, has := obj["name"].(string); has {
		return n, obj["arguments"], true
	}
	if len(obj) == 1 {
		for k, v := range obj {
			return k, v, true
		}
	}
	return "", nil, false
}

// coerceArguments forces arguments into a mapping. A JSON-string value is
// itself parsed as JSON, falling back to {"raw": s}; any other non-mapping
// value becomes an empty mapping.
func coerceArguments(args any) map[string]any {
	switch v := args.(type) {
	case map[string]any:
		return v
	case string:
		var m map[string]any
		if err := json.Unmarshal([]byte(v), &m); err == nil && m != nil {
			return m
		}
		return map[string]any{"raw": v}
	default:
		return map[string]any{}
	}
}
