package service

import (
	"context"
	"sync"
)

// KeyedLock serializes work per key while letting different keys proceed in
// parallel. Waiters are woken in arrival order, so requests for the same
// caregiver are handled first-come-first-served.
type KeyedLock struct {
	mu     sync.Mutex
	queues map[string][]chan struct{}
}

func NewKeyedLock() *KeyedLock {
	return &KeyedLock{
		queues: make(map[string][]chan struct{}),
	}
}

// Acquire blocks until the key's lock is held or the context is done. A nil
// return means the caller holds the lock and must call Release.
func (l *KeyedLock) Acquire(ctx context.Context, key string) error {
	l.mu.Lock()
	if _, held := l.queues[key]; !held {
		l.queues[key] = []chan struct{}{}
		l.mu.Unlock()
		return nil
	}

	ready := make(chan struct{})
	l.queues[key] = append(l.queues[key], ready)
	l.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		l.mu.Lock()
		queue, ok := l.queues[key]
		if ok {
			for i, waiter := range queue {
				if waiter == ready {
					l.queues[key] = append(queue[:i], queue[i+1:]...)
					l.mu.Unlock()
					return ctx.Err()
				}
			}
		}
		l.mu.Unlock()
		// Handed the lock between ctx.Done and our cleanup; pass it on.
		l.Release(key)
		return ctx.Err()
	}
}

// Release hands the lock to the oldest waiter, or frees the key entirely.
func (l *KeyedLock) Release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	queue, held := l.queues[key]
	if !held {
		return
	}

	if len(queue) == 0 {
		delete(l.queues, key)
		return
	}

	next := queue[0]
	l.queues[key] = queue[1:]
	close(next)
}
