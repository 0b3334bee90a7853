package venuelock

import (
	"context"
	"errors"
	"sync"
)

// LocalLocker is an in-process keyed mutex. Waiting is context-aware and
// idle keys are dropped, so memory stays proportional to the keys in use.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	held chan struct{}
	refs int
}

// NewLocalLocker creates an empty LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]*slot)}
}

// Acquire blocks until key is free or ctx is done.
func (l *LocalLocker) Acquire(ctx context.Context, key string) (Lease, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	s := l.ref(key)

	select {
	case s.held <- struct{}{}:
		return &localLease{locker: l, key: key, slot: s}, nil
	case <-ctx.Done():
		l.unref(key, s)
		return nil, errors.Join(ErrAcquireCanceled, ctx.Err())
	}
}

func (l *LocalLocker) ref(key string) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.slots[key]
	if !ok {
		s = &slot{held: make(chan struct{}, 1)}
		l.slots[key] = s
	}

	s.refs++

	return s
}

func (l *LocalLocker) unref(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

// keys returns the number of tracked keys.
func (l *LocalLocker) keys() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.slots)
}

type localLease struct {
	locker   *LocalLocker
	key      string
	slot     *slot
	released sync.Once
}

func (l *localLease) Key() string {
	return l.key
}

func (l *localLease) Release(_ context.Context) error {
	err := ErrLockNotHeld

	l.released.Do(func() {
		<-l.slot.held
		l.locker.unref(l.key, l.slot)
		err = nil
	})

	return err
}
