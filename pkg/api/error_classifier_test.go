package api

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestUpstreamErrorClassifier_Classify(t *testing.T) {
	classifier := NewUpstreamErrorClassifier()

	tests := []struct {
		name     string
		err      error
		expected ErrorKind
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: ErrorKindUnknown,
		},
		{
			name:     "HTTP 401",
			err:      &StatusError{Service: "DataForSEO", StatusCode: 401},
			expected: ErrorKindAuth,
		},
		{
			name:     "wrapped HTTP 429",
			err:      fmt.Errorf("search volume: %w", &StatusError{Service: "DataForSEO", StatusCode: 429}),
			expected: ErrorKindRateLimit,
		},
		{
			name:     "HTTP 503",
			err:      &StatusError{Service: "Perplexity", StatusCode: 503},
			expected: ErrorKindServer,
		},
		{
			name:     "HTTP 400",
			err:      &StatusError{Service: "Perplexity", StatusCode: 400},
			expected: ErrorKindClient,
		},
		{
			name:     "DataForSEO task status",
			err:      &StatusError{Service: "DataForSEO", StatusCode: 50000},
			expected: ErrorKindServer,
		},
		{
			name:     "decode error",
			err:      &DecodeError{Service: "DataForSEO", Err: errors.New("unexpected EOF")},
			expected: ErrorKindDecode,
		},
		{
			name:     "context canceled",
			err:      fmt.Errorf("request: %w", context.Canceled),
			expected: ErrorKindCanceled,
		},
		{
			name:     "deadline exceeded",
			err:      context.DeadlineExceeded,
			expected: ErrorKindCanceled,
		},
		{
			name:     "invalid api key",
			err:      errors.New("invalid Perplexity API key format"),
			expected: ErrorKindAuth,
		},
		{
			name:     "connection refused",
			err:      errors.New("dial tcp: connection refused"),
			expected: ErrorKindNetwork,
		},
		{
			name:     "timeout",
			err:      errors.New("request timeout"),
			expected: ErrorKindNetwork,
		},
		{
			name:     "unknown",
			err:      errors.New("something odd"),
			expected: ErrorKindUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifier.Classify(tt.err); got != tt.expected {
				t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestErrorKind_String(t *testing.T) {
	if ErrorKindRateLimit.String() != "rate_limit" {
		t.Errorf("unexpected string %q", ErrorKindRateLimit.String())
	}
	if ErrorKind(99).String() != "unknown" {
		t.Errorf("unexpected string %q", ErrorKind(99).String())
	}
}
