package engine

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifyLoadTypedErrorsWin(t *testing.T) {
	cases := []struct {
		err  error
		want FailureClass
	}{
		{fmt.Errorf("load: %w", ErrNotFound), ClassNotFound},
		{fmt.Errorf("fetch: %w", ErrNetwork), ClassNetwork},
		{fmt.Errorf("alloc: %w", ErrOutOfMemory), ClassResourceExhausted},
		{errors.New("weights corrupt"), ClassOther},
	}
	for _, tc := range cases {
		if got := ClassifyLoad(tc.err); got != tc.want {
			t.Fatalf("ClassifyLoad(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestClassifyLoadSubstringFallback(t *testing.T) {
	cases := []struct {
		msg  string
		want FailureClass
	}{
		{"repo returned 404", ClassNotFound},
		{"dial tcp: connection refused", ClassNetwork},
		{"metal: cannot allocate buffer", ClassResourceExhausted},
		{"something odd", ClassOther},
	}
	for _, tc := range cases {
		if got := ClassifyLoad(errors.New(tc.msg)); got != tc.want {
			t.Fatalf("ClassifyLoad(%q) = %q, want %q", tc.msg, got, tc.want)
		}
	}
}

func TestClassifyGeneration(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("step: %w", ErrOutOfMemory), "out-of-memory"},
		{fmt.Errorf("step: %w", ErrTimeout), "timeout"},
		{errors.New("sampling: oom during decode"), "out-of-memory"},
		{errors.New("context deadline exceeded"), "timeout"},
		{errors.New("kernel panic"), "other"},
		{nil, "other"},
	}
	for _, tc := range cases {
		if got := ClassifyGeneration(tc.err); got != tc.want {
			t.Fatalf("ClassifyGeneration(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
