package calendar

import "sync"

// mentorLocks serializes calendar-mutating operations per mentor. Concurrent
// external calls against the same mentor's credentials risk racing token
// state; different mentors proceed in parallel.
type mentorLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newMentorLocks() *mentorLocks {
	return &mentorLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the mutex for mentorID and returns the release func.
func (l *mentorLocks) acquire(mentorID string) func() {
	l.mu.Lock()
	lock, ok := l.locks[mentorID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[mentorID] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
