package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorKind names the cause of an upstream failure
type ErrorKind int

const (
	ErrorKindUnknown ErrorKind = iota
	ErrorKindAuth
	ErrorKindRateLimit
	ErrorKindNetwork
	ErrorKindServer
	ErrorKindClient
	ErrorKindDecode
	ErrorKindCanceled
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindAuth:
		return "auth"
	case ErrorKindRateLimit:
		return "rate_limit"
	case ErrorKindNetwork:
		return "network"
	case ErrorKindServer:
		return "server"
	case ErrorKindClient:
		return "client"
	case ErrorKindDecode:
		return "decode"
	case ErrorKindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// StatusError is returned when an upstream API answers with a non-success status.
type StatusError struct {
	Service    string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API returned status %d: %s", e.Service, e.StatusCode, e.Message)
}

// DecodeError is returned when an upstream body cannot be parsed.
type DecodeError struct {
	Service string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s response: %v", e.Service, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ErrorClassifier defines interface for error classification
type ErrorClassifier interface {
	Classify(err error) ErrorKind
}

// UpstreamErrorClassifier classifies errors returned by the upstream clients
type UpstreamErrorClassifier struct{}

// NewUpstreamErrorClassifier creates new error classifier
func NewUpstreamErrorClassifier() ErrorClassifier {
	return &UpstreamErrorClassifier{}
}

// Classify maps err to an ErrorKind, typed errors first and message text second
func (c *UpstreamErrorClassifier) Classify(err error) ErrorKind {
	if err == nil {
		return ErrorKindUnknown
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrorKindCanceled
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return classifyStatus(statusErr.StatusCode)
	}

	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return ErrorKindDecode
	}

	errStr := strings.ToLower(err.Error())

	if strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") {
		return ErrorKindRateLimit
	}

	if strings.Contains(errStr, "unauthorized") ||
		strings.Contains(errStr, "forbidden") ||
		strings.Contains(errStr, "api key") {
		return ErrorKindAuth
	}

	if strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection") ||
		strings.Contains(errStr, "dns") {
		return ErrorKindNetwork
	}

	return ErrorKindUnknown
}

// classifyStatus accepts HTTP codes and five-digit DataForSEO codes (40100 is 401).
func classifyStatus(code int) ErrorKind {
	if code >= 10000 {
		code /= 100
	}
	switch {
	case code == 401 || code == 403:
		return ErrorKindAuth
	case code == 429:
		return ErrorKindRateLimit
	case code >= 500:
		return ErrorKindServer
	case code >= 400:
		return ErrorKindClient
	default:
		return ErrorKindUnknown
	}
}
