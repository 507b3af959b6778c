package resilience

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// hold occupies one slot of b until the returned release func is called.
func hold(t *testing.T, b *Bulkhead) (release func()) {
	t.Helper()
	started := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = b.Execute(context.Background(), func() error {
			close(started)
			<-done
			return nil
		})
	}()
	<-started
	return func() { close(done) }
}

func TestBulkheadWaitsForSlot(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "sessions", MaxConcurrent: 1})
	release := hold(t, b)

	result := make(chan error, 1)
	go func() {
		result <- b.Execute(context.Background(), func() error { return nil })
	}()

	select {
	case err := <-result:
		t.Fatalf("expected the caller to queue, returned %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	release()
	select {
	case err := <-result:
		if err != nil {
			t.Errorf("expected the queued call to run, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("queued call never ran")
	}
}

func TestBulkheadMaxWait(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "sessions", MaxConcurrent: 1, MaxWait: 10 * time.Millisecond})
	release := hold(t, b)
	defer release()

	err := b.Execute(context.Background(), func() error {
		t.Error("fn must not run without a slot")
		return nil
	})
	if !errors.Is(err, ErrBulkheadTimeout) {
		t.Errorf("expected ErrBulkheadTimeout, got %v", err)
	}
}

func TestBulkheadContextEndsWait(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "sessions", MaxConcurrent: 1})
	release := hold(t, b)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := b.Execute(ctx, func() error { return nil }); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
}

func TestBulkheadCanceledContextRejected(t *testing.T) {
	b := NewBulkhead(DefaultBulkheadConfig("sessions"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := b.Execute(ctx, func() error {
		called = true
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if called {
		t.Error("expected fn not to run with a canceled context")
	}
}

func TestBulkheadReturnsFnError(t *testing.T) {
	b := NewBulkhead(DefaultBulkheadConfig("sessions"))
	boom := errors.New("boom")
	if err := b.Execute(context.Background(), func() error { return boom }); !errors.Is(err, boom) {
		t.Errorf("expected fn error, got %v", err)
	}
	if b.InUse() != 0 {
		t.Error("expected the slot to be released after an error")
	}
}

func TestBulkheadNeverExceedsLimit(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "sessions", MaxConcurrent: 2})

	var current, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := b.Execute(context.Background(), func() error {
				n := current.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				current.Add(-1)
				return nil
			})
			if err != nil {
				t.Errorf("expected every caller to get a slot, got %v", err)
			}
		}()
	}
	wg.Wait()

	if peak.Load() > 2 {
		t.Errorf("expected at most 2 concurrent calls, saw %d", peak.Load())
	}
}

func TestBulkheadSlots(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "sessions", MaxConcurrent: 3})
	if b.Available() != 3 || b.InUse() != 0 || b.Name() != "sessions" {
		t.Fatalf("unexpected initial state %d/%d %q", b.Available(), b.InUse(), b.Name())
	}

	release := hold(t, b)
	if b.Available() != 2 || b.InUse() != 1 {
		t.Errorf("expected one slot in use, got %d/%d", b.Available(), b.InUse())
	}
	release()

	deadline := time.Now().Add(time.Second)
	for b.InUse() != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if b.Available() != 3 {
		t.Errorf("expected every slot free after release, got %d", b.Available())
	}
}

func TestNewBulkheadDefaultLimit(t *testing.T) {
	if got := NewBulkhead(BulkheadConfig{}).MaxConcurrent(); got != 8 {
		t.Errorf("expected default limit 8, got %d", got)
	}
}
