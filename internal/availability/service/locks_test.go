package service

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestKeyedLock_SerializesSameKey(t *testing.T) {
	l := NewKeyedLock()
	ctx := context.Background()

	if err := l.Acquire(ctx, "caregiver-1"); err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	acquired := make(chan struct{})
	go func() {
		if err := l.Acquire(ctx, "caregiver-1"); err != nil {
			t.Errorf("second acquire: %v", err)
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire succeeded while lock was held")
	case <-time.After(50 * time.Millisecond):
	}

	l.Release("caregiver-1")

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second acquire never completed after release")
	}
	l.Release("caregiver-1")
}

func TestKeyedLock_IndependentKeys(t *testing.T) {
	l := NewKeyedLock()
	ctx := context.Background()

	if err := l.Acquire(ctx, "caregiver-1"); err != nil {
		t.Fatalf("acquire caregiver-1: %v", err)
	}
	defer l.Release("caregiver-1")

	done := make(chan struct{})
	go func() {
		if err := l.Acquire(ctx, "caregiver-2"); err != nil {
			t.Errorf("acquire caregiver-2: %v", err)
		}
		l.Release("caregiver-2")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("different key blocked behind an unrelated lock")
	}
}

func TestKeyedLock_WakesWaitersInOrder(t *testing.T) {
	l := NewKeyedLock()
	ctx := context.Background()

	if err := l.Acquire(ctx, "k"); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	const waiters = 5
	var mu sync.Mutex
	var order []int
	started := make(chan struct{})
	var wg sync.WaitGroup

	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			started <- struct{}{}
			if err := l.Acquire(ctx, "k"); err != nil {
				t.Errorf("waiter %d: %v", n, err)
				return
			}
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
			l.Release("k")
		}(i)
		// Wait for the goroutine to be running before starting the next,
		// so queue positions match launch order.
		<-started
		time.Sleep(10 * time.Millisecond)
	}

	l.Release("k")
	wg.Wait()

	for i, n := range order {
		if i != n {
			t.Fatalf("waiters woke out of order: %v", order)
		}
	}
}

func TestKeyedLock_AcquireHonorsContext(t *testing.T) {
	l := NewKeyedLock()

	if err := l.Acquire(context.Background(), "k"); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := l.Acquire(ctx, "k"); err == nil {
		t.Fatal("expected context error for blocked acquire")
	}

	// The cancelled waiter must have removed itself from the queue.
	l.Release("k")
	if err := l.Acquire(context.Background(), "k"); err != nil {
		t.Fatalf("reacquire after cancelled waiter: %v", err)
	}
	l.Release("k")
}
