package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/five82/leaddeck/internal/leads"
	"github.com/five82/leaddeck/internal/query"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 30 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 30 * time.Second},
		{"negative failures", -1, 30 * time.Second},
		{"one failure", 1, time.Minute},
		{"two failures", 2, 2 * time.Minute},
		{"three failures", 3, 4 * time.Minute},
		{"four failures capped", 4, 5 * time.Minute}, // Would be 8m, capped to 5m
		{"many failures capped", 60, 5 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 100; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}

	tests := []struct {
		name     string
		base     time.Duration
		failures int
		want     time.Duration
	}{
		{"base at cap", maxBackoff, 3, maxBackoff},
		{"base above cap", 10 * time.Minute, 1, 10 * time.Minute},
		{"base above cap many failures", 10 * time.Minute, 50, 10 * time.Minute},
		{"doubling reaches cap", 2 * time.Minute, 2, maxBackoff},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := calculateBackoff(tt.failures, tt.base); got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, tt.base, got, tt.want)
			}
		})
	}
}

func TestNextFailures(t *testing.T) {
	qc := query.New(query.Options{})
	defer qc.Close()

	if got := nextFailures(qc, 2); got != 2 {
		t.Fatalf("missing entry: got %d, want 2", got)
	}

	var fail atomic.Bool
	fail.Store(true)
	sub := qc.Ensure(leads.ListKey, func(ctx context.Context) (any, error) {
		if fail.Load() {
			return nil, errors.New("offline")
		}
		return "ok", nil
	}, true)
	defer sub.Close()
	waitStatus(t, sub, query.StatusError)

	if got := nextFailures(qc, 2); got != 3 {
		t.Fatalf("after failure: got %d, want 3", got)
	}

	fail.Store(false)
	sub.Refetch()
	waitStatus(t, sub, query.StatusSuccess)
	if got := nextFailures(qc, 3); got != 0 {
		t.Fatalf("after success: got %d, want 0", got)
	}
}

func TestPoll_InvalidatesListUntilCancelled(t *testing.T) {
	qc := query.New(query.Options{})
	defer qc.Close()

	var calls atomic.Int32
	sub := qc.Ensure(leads.ListKey, func(ctx context.Context) (any, error) {
		calls.Add(1)
		return "ok", nil
	}, true)
	defer sub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poll(ctx, qc, 5*time.Millisecond, nil)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done

	if calls.Load() < 3 {
		t.Fatalf("fetch calls = %d, want at least 3", calls.Load())
	}
}

func TestPoll_SlowFetchStillSettles(t *testing.T) {
	qc := query.New(query.Options{})
	defer qc.Close()

	var inflight, overlaps atomic.Int32
	sub := qc.Ensure(leads.ListKey, func(ctx context.Context) (any, error) {
		if inflight.Add(1) > 1 {
			overlaps.Add(1)
		}
		defer inflight.Add(-1)
		time.Sleep(30 * time.Millisecond)
		return "ok", nil
	}, true)
	defer sub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poll(ctx, qc, 5*time.Millisecond, nil)
		close(done)
	}()

	// Poll ticks outpace the fetch; the list must still get its data.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if st, ok := qc.Peek(leads.ListKey); ok && st.HasData() {
			break
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done

	st, _ := qc.Peek(leads.ListKey)
	if !st.HasData() || st.Data != "ok" {
		t.Fatalf("list never settled: status=%s data=%v", st.Status, st.Data)
	}
	if overlaps.Load() != 0 {
		t.Fatalf("overlapping fetches = %d, want 0", overlaps.Load())
	}
}

func waitStatus(t *testing.T, sub *query.Subscription, status query.Status) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case st := <-sub.Changes():
			if st.Status == status {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", status)
		}
	}
}
