package vision

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantType  ErrorType
		retryable bool
	}{
		{"unauthorized", errors.New("HTTP 401 Unauthorized"), ErrorTypeAuth, false},
		{"invalid key", errors.New("invalid api key provided"), ErrorTypeAuth, false},
		{"model missing", errors.New("model claude-x not found"), ErrorTypeModel, false},
		{"endpoint missing", errors.New("HTTP 404 Not Found"), ErrorTypeEndpoint, false},
		{"rate limited", errors.New("HTTP 429 Too Many Requests"), ErrorTypeRateLimit, true},
		{"rate limit text", errors.New("rate limit exceeded, slow down"), ErrorTypeRateLimit, true},
		{"connection refused", errors.New("dial tcp 127.0.0.1:8080: connection refused"), ErrorTypeEndpoint, true},
		{"dns failure", errors.New("lookup api.example.com: no such host"), ErrorTypeEndpoint, true},
		{"timeout", errors.New("request timeout after 120s"), ErrorTypeEndpoint, true},
		{"deadline", context.DeadlineExceeded, ErrorTypeEndpoint, true},
		{"server error", errors.New("HTTP 503 Service Unavailable"), ErrorTypeEndpoint, true},
		{"overloaded", errors.New("overloaded_error: try again later"), ErrorTypeEndpoint, true},
		{"unknown", errors.New("something odd happened"), ErrorTypeUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := ClassifyError(tt.err)
			if e.Type != tt.wantType {
				t.Errorf("type = %s, want %s", e.Type, tt.wantType)
			}
			if e.Retryable != tt.retryable {
				t.Errorf("retryable = %v, want %v", e.Retryable, tt.retryable)
			}
			if !errors.Is(e, tt.err) {
				t.Error("classified error should wrap the cause")
			}
		})
	}
}

func TestClassifyError_StatusCode(t *testing.T) {
	e := ClassifyError(errors.New("HTTP 429 Too Many Requests"))
	if e.StatusCode != 429 {
		t.Errorf("status = %d, want 429", e.StatusCode)
	}
}

func TestClassifyError_PassThrough(t *testing.T) {
	orig := NewError(ErrorTypeRateLimit, "rate limited", true, nil)
	wrapped := fmt.Errorf("describe page: %w", orig)

	if got := ClassifyError(wrapped); got != orig {
		t.Errorf("expected the existing vision error back, got %+v", got)
	}
	if ClassifyError(nil) != nil {
		t.Error("nil in, nil out")
	}
}

func TestError_Message(t *testing.T) {
	e := &Error{Type: ErrorTypeRateLimit, Message: "rate limited", StatusCode: 429, Cause: errors.New("too many requests")}
	want := "rate_limit HTTP 429 rate limited: too many requests"
	if e.Error() != want {
		t.Errorf("got %q, want %q", e.Error(), want)
	}

	bare := &Error{Type: ErrorTypeUnknown, Message: "vision request failed"}
	if bare.Error() != "unknown vision request failed" {
		t.Errorf("got %q", bare.Error())
	}
}
