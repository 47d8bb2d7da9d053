package vision

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunPool_AllItemsReported(t *testing.T) {
	items := []WorkItem[string]{
		{ID: 1, Execute: func(ctx context.Context) (string, error) { return "one", nil }},
		{ID: 2, Execute: func(ctx context.Context) (string, error) { return "two", nil }},
		{ID: 3, Execute: func(ctx context.Context) (string, error) { return "three", nil }},
	}

	results := RunPool(context.Background(), PoolConfig{MaxConcurrent: 2}, items, nil)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	byID := make(map[int]string)
	for _, r := range results {
		if r.Err != nil {
			t.Errorf("item %d failed: %v", r.ID, r.Err)
		}
		byID[r.ID] = r.Result
	}
	if byID[1] != "one" || byID[2] != "two" || byID[3] != "three" {
		t.Errorf("unexpected results: %v", byID)
	}
}

func TestRunPool_FailureIsolation(t *testing.T) {
	wantErr := errors.New("page failed")
	items := []WorkItem[string]{
		{ID: 1, Execute: func(ctx context.Context) (string, error) { return "one", nil }},
		{ID: 2, Execute: func(ctx context.Context) (string, error) { return "", wantErr }},
		{ID: 3, Execute: func(ctx context.Context) (string, error) { return "three", nil }},
	}

	results := RunPool(context.Background(), PoolConfig{MaxConcurrent: 1}, items, nil)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	byID := make(map[int]WorkResult[string])
	for _, r := range results {
		byID[r.ID] = r
	}
	if byID[1].Err != nil || byID[3].Err != nil {
		t.Error("sibling items should be unaffected by one failure")
	}
	if !errors.Is(byID[2].Err, wantErr) {
		t.Errorf("item 2: want %v, got %v", wantErr, byID[2].Err)
	}
}

func TestRunPool_RespectsConcurrencyCap(t *testing.T) {
	const maxConcurrent = 3
	var inFlight, peak atomic.Int32

	items := make([]WorkItem[int], 12)
	for i := range items {
		id := i + 1
		items[i] = WorkItem[int]{ID: id, Execute: func(ctx context.Context) (int, error) {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			inFlight.Add(-1)
			return id, nil
		}}
	}

	results := RunPool(context.Background(), PoolConfig{MaxConcurrent: maxConcurrent}, items, nil)

	if len(results) != len(items) {
		t.Fatalf("expected %d results, got %d", len(items), len(results))
	}
	if p := peak.Load(); p > maxConcurrent {
		t.Errorf("concurrency cap exceeded: peak %d > %d", p, maxConcurrent)
	}
}

func TestRunPool_Progress(t *testing.T) {
	items := []WorkItem[int]{
		{ID: 1, Execute: func(ctx context.Context) (int, error) { return 1, nil }},
		{ID: 2, Execute: func(ctx context.Context) (int, error) { return 2, nil }},
	}

	var calls []int
	RunPool(context.Background(), PoolConfig{MaxConcurrent: 2}, items, func(completed, total int) {
		if total != 2 {
			t.Errorf("total = %d, want 2", total)
		}
		calls = append(calls, completed)
	})

	if len(calls) != 2 || calls[0] != 1 || calls[1] != 2 {
		t.Errorf("unexpected progress calls: %v", calls)
	}
}

func TestRunPool_CancelledContextStillYieldsResults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items := []WorkItem[int]{
		{ID: 1, Execute: func(ctx context.Context) (int, error) { return 1, nil }},
		{ID: 2, Execute: func(ctx context.Context) (int, error) { return 2, nil }},
	}

	results := RunPool(ctx, PoolConfig{MaxConcurrent: 1}, items, nil)
	if len(results) != 2 {
		t.Fatalf("expected one result per item even when cancelled, got %d", len(results))
	}
}

func TestRunPool_Empty(t *testing.T) {
	if results := RunPool[int](context.Background(), PoolConfig{MaxConcurrent: 2}, nil, nil); results != nil {
		t.Errorf("expected nil for no items, got %v", results)
	}
}
