package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

type transientError struct {
	msg       string
	retryable bool
}

func (e *transientError) Error() string     { return e.msg }
func (e *transientError) IsRetryable() bool { return e.retryable }

func fastConfig(maxRetries int) *Config {
	return &Config{
		MaxRetries:   maxRetries,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
		Multiplier:   1,
	}
}

func TestDoWithResult_SucceedsFirstTry(t *testing.T) {
	calls := 0
	got, err := DoWithResult(context.Background(), fastConfig(2), func() (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil || got != "ok" {
		t.Fatalf("got (%q, %v)", got, err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDoWithResult_RetriesTransient(t *testing.T) {
	calls := 0
	got, err := DoWithResult(context.Background(), fastConfig(2), func() (string, error) {
		calls++
		if calls < 3 {
			return "", &transientError{msg: "503", retryable: true}
		}
		return "ok", nil
	})
	if err != nil || got != "ok" {
		t.Fatalf("got (%q, %v)", got, err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDoWithResult_ExhaustsRetries(t *testing.T) {
	calls := 0
	wantErr := &transientError{msg: "always failing", retryable: true}
	_, err := DoWithResult(context.Background(), fastConfig(2), func() (int, error) {
		calls++
		return 0, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("got %v, want %v", err, wantErr)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3 (initial + 2 retries)", calls)
	}
}

func TestDoWithResult_PermanentErrorNotRetried(t *testing.T) {
	calls := 0
	wantErr := &transientError{msg: "401", retryable: false}
	_, err := DoWithResult(context.Background(), fastConfig(5), func() (int, error) {
		calls++
		return 0, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("got %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDoWithResult_PlainErrorTreatedAsPermanent(t *testing.T) {
	calls := 0
	_, err := DoWithResult(context.Background(), fastConfig(5), func() (int, error) {
		calls++
		return 0, errors.New("no retryability opinion")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDoWithResult_ContextCancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	cfg := &Config{MaxRetries: 3, InitialDelay: time.Minute, MaxDelay: time.Minute, Multiplier: 1}
	done := make(chan error, 1)
	go func() {
		_, err := DoWithResult(ctx, cfg, func() (int, error) {
			return 0, &transientError{msg: "503", retryable: true}
		})
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("got %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("retry did not observe cancellation")
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(nil) {
		t.Error("nil is not retryable")
	}
	if IsRetryable(errors.New("plain")) {
		t.Error("plain errors default to permanent")
	}
	if !IsRetryable(&transientError{retryable: true}) {
		t.Error("declared transient error should be retryable")
	}
}

func TestDoWithResult_NilConfigUsesDefaults(t *testing.T) {
	got, err := DoWithResult(context.Background(), nil, func() (int, error) { return 42, nil })
	if err != nil || got != 42 {
		t.Fatalf("got (%d, %v)", got, err)
	}
}
