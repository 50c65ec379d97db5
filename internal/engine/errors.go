package engine

import (
	"errors"
	"strings"
)

// Sentinel errors engines should wrap so callers can classify failures
// without string matching.
var (
	ErrNotFound    = errors.New("model not found")
	ErrOutOfMemory = errors.New("out of memory")
	ErrTimeout     = errors.New("operation timed out")
	ErrNetwork     = errors.New("network failure")
)

// FailureClass buckets a load failure for reporting.
type FailureClass string

const (
	ClassNotFound          FailureClass = "not_found"
	ClassNetwork           FailureClass = "network"
	ClassResourceExhausted FailureClass = "resource_exhausted"
	ClassOther             FailureClass = "other"
)

// ClassifyLoad buckets a model-load failure. Typed errors are authoritative;
// substring matching over the failure text is kept only as a compatibility
// fallback for engines that do not wrap the sentinels, and can misclassify.
func ClassifyLoad(err error) FailureClass {
	if err == nil {
		return ClassOther
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return ClassNotFound
	case errors.Is(err, ErrNetwork):
		return ClassNetwork
	case errors.Is(err, ErrOutOfMemory):
		return ClassResourceExhausted
	}
	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "not found", "no such file", "404"):
		return ClassNotFound
	case containsAny(msg, "connection refused", "connection reset", "no route to host", "dns", "network"):
		return ClassNetwork
	case containsAny(msg, "out of memory", "oom", "cannot allocate", "resource exhausted"):
		return ClassResourceExhausted
	}
	return ClassOther
}

// ClassifyGeneration buckets a mid-stream failure into the message prefix
// reported on the terminal event: out-of-memory, timeout or other.
func ClassifyGeneration(err error) string {
	if err == nil {
		return "other"
	}
	switch {
	case errors.Is(err, ErrOutOfMemory):
		return "out-of-memory"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	}
	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "out of memory", "oom", "cannot allocate"):
		return "out-of-memory"
	case containsAny(msg, "timeout", "timed out", "deadline exceeded"):
		return "timeout"
	}
	return "other"
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
