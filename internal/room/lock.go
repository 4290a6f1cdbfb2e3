package room

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// roomLocks serializes load-mutate-save cycles per room within this process.
// Entries are dropped once no caller holds or waits for them.
type roomLocks struct {
	mu    sync.Mutex
	locks map[string]*roomLock
}

type roomLock struct {
	sem  *semaphore.Weighted
	refs int
}

func newRoomLocks() *roomLocks {
	return &roomLocks{locks: make(map[string]*roomLock)}
}

// acquire blocks until the room's lock is held or ctx is done.
func (l *roomLocks) acquire(ctx context.Context, roomID string) (func(), error) {
	l.mu.Lock()
	lk, ok := l.locks[roomID]
	if !ok {
		lk = &roomLock{sem: semaphore.NewWeighted(1)}
		l.locks[roomID] = lk
	}
	lk.refs++
	l.mu.Unlock()

	if err := lk.sem.Acquire(ctx, 1); err != nil {
		l.unref(roomID, lk)
		return nil, err
	}
	return func() {
		lk.sem.Release(1)
		l.unref(roomID, lk)
	}, nil
}

func (l *roomLocks) unref(roomID string, lk *roomLock) {
	l.mu.Lock()
	lk.refs--
	if lk.refs == 0 {
		delete(l.locks, roomID)
	}
	l.mu.Unlock()
}

func (l *roomLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
