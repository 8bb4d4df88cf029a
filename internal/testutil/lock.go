package testutil

import (
	"context"
	"sync"
)

// StubLocker records acquired keys and can be told to fail.
type StubLocker struct {
	mu       sync.Mutex
	Err      error
	acquired []string
	released int
}

// Acquire records the key and returns a release func that counts releases.
func (l *StubLocker) Acquire(_ context.Context, key string) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Err != nil {
		return nil, l.Err
	}
	l.acquired = append(l.acquired, key)
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.released++
		return nil
	}, nil
}

// Acquired returns the keys acquired so far.
func (l *StubLocker) Acquired() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.acquired...)
}

// Released returns how many locks were released.
func (l *StubLocker) Released() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.released
}
