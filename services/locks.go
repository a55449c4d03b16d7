package services

import "sync"

// EventLocks serializes mutations per event. Every operation that reads
// availability and then writes (join, queue processing, purchase, capacity
// edits, expiry) must run under the event's lock so the read-then-write is
// indivisible from the perspective of other operations on the same event.
// Operations on different events never contend.
type EventLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewEventLocks() *EventLocks {
	return &EventLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the lock for the event and returns the matching unlock.
func (l *EventLocks) Lock(eventID string) (unlock func()) {
	l.mu.Lock()
	m, ok := l.locks[eventID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[eventID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
