package session

import "sync"

// Locker serializes whole chat turns per session id so two concurrent
// requests for the same session cannot interleave history mutations.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	mu   sync.Mutex
	refs int
}

// NewLocker creates an empty keyed locker.
func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*refLock)}
}

// Lock acquires the lock for id. Anonymous sessions share no state, so
// an empty id is a no-op.
func (l *Locker) Lock(id string) {
	if id == "" {
		return
	}

	l.mu.Lock()
	rl, ok := l.locks[id]
	if !ok {
		rl = &refLock{}
		l.locks[id] = rl
	}
	rl.refs++
	l.mu.Unlock()

	rl.mu.Lock()
}

// Unlock releases the lock for id and drops the entry once no waiter
// remains, so the map does not grow with session churn.
func (l *Locker) Unlock(id string) {
	if id == "" {
		return
	}

	l.mu.Lock()
	rl, ok := l.locks[id]
	if ok {
		rl.refs--
		if rl.refs == 0 {
			delete(l.locks, id)
		}
	}
	l.mu.Unlock()

	if ok {
		rl.mu.Unlock()
	}
}
