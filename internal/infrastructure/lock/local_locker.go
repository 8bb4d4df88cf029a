package lock

import (
	"context"
	"sync"

	"github.com/juliohebert/loja-sub000/internal/domain/shared"
)

// LocalLocker is a keyed mutex for single-instance deployments.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

// slot is a one-token semaphore plus the number of goroutines using it.
type slot struct {
	token chan struct{}
	refs  int
}

// NewLocalLocker returns an empty keyed mutex.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]*slot)}
}

// Acquire waits for key or until ctx ends.
func (l *LocalLocker) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	s := l.ref(key)
	select {
	case s.token <- struct{}{}:
	case <-ctx.Done():
		l.unref(key)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			<-s.token
			l.unref(key)
		})
		return nil
	}, nil
}

func (l *LocalLocker) ref(key string) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{token: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	return s
}

func (l *LocalLocker) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.slots[key]
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

// held returns how many keys have waiters or holders.
func (l *LocalLocker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

var _ shared.Locker = (*LocalLocker)(nil)
