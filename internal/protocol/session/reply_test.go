package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/danmuck/edgemux/internal/testutil/testlog"
)

func TestReplyFulfilledAtMostOnce(t *testing.T) {
	testlog.Start(t)
	reply, wait := NewReply[int]()

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			if err := reply.Fulfill(v); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			} else if !errors.Is(err, ErrReplyAlreadyUsed) {
				t.Errorf("unexpected fulfill err: %v", err)
			}
		}(i)
	}
	wg.Wait()
	if accepted != 1 {
		t.Fatalf("expected exactly one accepted fulfill, got %d", accepted)
	}
	if _, err := wait.Wait(t.Context(), nil); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if !reply.Used() {
		t.Fatalf("expected reply marked used")
	}
}

func TestReplyDiscardSignalsAwaiter(t *testing.T) {
	testlog.Start(t)
	reply, wait := NewReply[string]()
	reply.Discard()
	reply.Discard()
	if err := reply.Fulfill("late"); !errors.Is(err, ErrReplyAlreadyUsed) {
		t.Fatalf("expected fulfill after discard to fail, got %v", err)
	}
	if _, err := wait.Wait(t.Context(), nil); !errors.Is(err, ErrReplyDiscarded) {
		t.Fatalf("expected discarded, got %v", err)
	}
}

func TestReplyDiscardAfterFulfillKeepsValue(t *testing.T) {
	testlog.Start(t)
	reply, wait := NewReply[string]()
	if err := reply.Fulfill("ok"); err != nil {
		t.Fatalf("fulfill: %v", err)
	}
	reply.Discard()
	got, err := wait.Wait(t.Context(), nil)
	if err != nil || got != "ok" {
		t.Fatalf("unexpected got=%q err=%v", got, err)
	}
}

func TestReplyWaitPrefersValueOverStopSignal(t *testing.T) {
	testlog.Start(t)
	reply, wait := NewReply[int]()
	done := make(chan struct{})
	if err := reply.Fulfill(7); err != nil {
		t.Fatalf("fulfill: %v", err)
	}
	close(done)
	for i := 0; i < 32; i++ {
		r, w := NewReply[int]()
		_ = r.Fulfill(i)
		got, err := w.Wait(t.Context(), done)
		if err != nil || got != i {
			t.Fatalf("iteration %d: got=%d err=%v", i, got, err)
		}
	}
	if got, err := wait.Wait(t.Context(), done); err != nil || got != 7 {
		t.Fatalf("unexpected got=%d err=%v", got, err)
	}
}

func TestReplyWaitStopsWhenConsumerStops(t *testing.T) {
	testlog.Start(t)
	_, wait := NewReply[int]()
	done := make(chan struct{})
	close(done)
	if _, err := wait.Wait(t.Context(), done); !errors.Is(err, ErrReplyDiscarded) {
		t.Fatalf("expected discarded, got %v", err)
	}
}

func TestReplyWaitHonorsContext(t *testing.T) {
	testlog.Start(t)
	reply, wait := NewReply[int]()
	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	if _, err := wait.Wait(ctx, nil); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	// the abandoned slot still accepts its one value without blocking
	if err := reply.Fulfill(1); err != nil {
		t.Fatalf("late fulfill: %v", err)
	}
}
