package tools

import (
	"testing"
)

func TestExtractEnvelopeShape(t *testing.T) {
	text := `{"tool_calls":[{"function":{"name":"get_weather","arguments":{"location":"SF"}}}]}`
	calls := Extract(text)
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	if calls[0].Function.Name != "get_weather" {
		t.Fatalf("name=%q", calls[0].Function.Name)
	}
	if calls[0].Function.Arguments["location"] != "SF" {
		t.Fatalf("arguments=%v", calls[0].Function.Arguments)
	}
}

func TestExtractSingleKeyShape(t *testing.T) {
	calls := Extract(`{"get_weather":{"location":"SF"}}`)
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	if calls[0].Function.Name != "get_weather" {
		t.Fatalf("name=%q", calls[0].Function.Name)
	}
	if calls[0].Function.Arguments["location"] != "SF" {
		t.Fatalf("arguments=%v", calls[0].Function.Arguments)
	}
}

func TestExtractFlatShape(t *testing.T) {
	calls := Extract(`{"name":"lookup","arguments":{"q":"go"}}`)
	if len(calls) != 1 || calls[0].Function.Name != "lookup" {
		t.Fatalf("calls=%v", calls)
	}
}

func TestExtractBareArray(t *testing.T) {
	calls := Extract(`[{"name":"a","arguments":{}},{"name":"b","arguments":{"x":1}}]`)
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	if calls[0].Function.Name != "a" || calls[1].Function.Name != "b" {
		t.Fatalf("order lost: %v", calls)
	}
	if calls[0].ID != "call_0" || calls[1].ID != "call_1" {
		t.Fatalf("ids: %q %q", calls[0].ID, calls[1].ID)
	}
	if calls[1].Function.Index != 1 {
		t.Fatalf("index=%d", calls[1].Function.Index)
	}
}

func TestExtractPlainTextYieldsNothing(t *testing.T) {
	if calls := Extract("I think the answer is 42."); calls != nil {
		t.Fatalf("expected no calls, got %v", calls)
	}
}

func TestExtractEmbeddedInNarrative(t *testing.T) {
	text := `Sure, let me check that for you. {"tool_calls":[{"name":"get_weather","arguments":{"location":"SF"}}]} Hope that helps!`
	calls := Extract(text)
	if len(calls) != 1 || calls[0].Function.Name != "get_weather" {
		t.Fatalf("calls=%v", calls)
	}
}

func TestExtractFirstParseableCandidateWins(t *testing.T) {
	text := `{not json} {"name":"first","arguments":{}} {"name":"second","arguments":{}}`
	calls := Extract(text)
	if len(calls) != 1 || calls[0].Function.Name != "first" {
		t.Fatalf("calls=%v", calls)
	}
}

func TestExtractZeroCallCandidateRejectedScanContinues(t *testing.T) {
	// The first candidate parses but normalizes to zero calls (no name), so
	// scanning must continue to the next candidate.
	text := `{"note":"hello","extra":1} {"name":"real","arguments":{"k":"v"}}`
	calls := Extract(text)
	if len(calls) != 1 || calls[0].Function.Name != "real" {
		t.Fatalf("calls=%v", calls)
	}
}

func TestExtractStringArgumentsReparsed(t *testing.T) {
	calls := Extract(`{"name":"f","arguments":"{\"a\":1}"}`)
	if len(calls) != 1 {
		t.Fatalf("calls=%v", calls)
	}
	if v, ok := calls[0].Function.Arguments["a"].(float64); !ok || v != 1 {
		t.Fatalf("arguments=%v", calls[0].Function.Arguments)
	}
}

func TestExtractStringArgumentsFallbackRaw(t *testing.T) {
	calls := Extract(`{"name":"f","arguments":"not json at all"}`)
	if len(calls) != 1 {
		t.Fatalf("calls=%v", calls)
	}
	if calls[0].Function.Arguments["raw"] != "not json at all" {
		t.Fatalf("arguments=%v", calls[0].Function.Arguments)
	}
}

func TestExtractNonMappingArgumentsBecomeEmpty(t *testing.T) {
	calls := Extract(`{"name":"f","arguments":[1,2,3]}`)
	if len(calls) != 1 {
		t.Fatalf("calls=%v", calls)
	}
	if len(calls[0].Function.Arguments) != 0 {
		t.Fatalf("arguments=%v", calls[0].Function.Arguments)
	}
}

func TestExtractNamelessCallsDropped(t *testing.T) {
	text := `[{"arguments":{"x":1}},{"name":"keep","arguments":{}}]`
	calls := Extract(text)
	if len(calls) != 1 || calls[0].Function.Name != "keep" {
		t.Fatalf("calls=%v", calls)
	}
}

func TestCandidatesIgnoreBracesInStrings(t *testing.T) {
	text := `{"name":"f","arguments":{"expr":"if (x) { y }"}}`
	spans := candidates(text)
	if len(spans) != 1 || spans[0] != text {
		t.Fatalf("spans=%v", spans)
	}
}

func TestCandidatesUnbalancedCloser(t *testing.T) {
	spans := candidates(`} {"name":"f","arguments":{}}`)
	if len(spans) != 1 {
		t.Fatalf("spans=%v", spans)
	}
}
