package client

import (
	"sync"

	v1 "github.com/noriskclient/launcherd/pkg/api/v1"
)

// Store holds the most recent state event of a session. Every delivery
// overwrites the previous one; nothing is queued or deduplicated.
type Store struct {
	mu     sync.RWMutex
	latest *v1.EventPayload
	subs   map[uint64]*listener
	next   uint64
}

// listener serializes calls to fn with its removal.
type listener struct {
	mu      sync.Mutex
	fn      func(v1.EventPayload)
	removed bool
}

func (l *listener) call(p v1.EventPayload) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.removed {
		l.fn(p)
	}
}

func (l *listener) remove() {
	l.mu.Lock()
	l.removed = true
	l.mu.Unlock()
}

func newStore() *Store {
	return &Store{subs: make(map[uint64]*listener)}
}

// Latest returns the most recent event, if any has arrived.
func (s *Store) Latest() (v1.EventPayload, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return v1.EventPayload{}, false
	}
	return *s.latest, true
}

// Subscribe calls fn with every event stored after the call, in arrival
// order, on the session's read loop. fn must not block.
//
// Once unsubscribe returns fn is never called again; an in-flight call is
// waited for. Calling unsubscribe from inside fn deadlocks.
func (s *Store) Subscribe(fn func(v1.EventPayload)) (unsubscribe func()) {
	l := &listener{fn: fn}
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = l
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			l.remove()
		})
	}
}

// Filter is Subscribe restricted to events targeting targetID.
func (s *Store) Filter(targetID string, fn func(v1.EventPayload)) (unsubscribe func()) {
	return s.Subscribe(func(p v1.EventPayload) {
		if p.Target() == targetID {
			fn(p)
		}
	})
}

func (s *Store) set(p v1.EventPayload) {
	s.mu.Lock()
	s.latest = &p
	ls := make([]*listener, 0, len(s.subs))
	for _, l := range s.subs {
		ls = append(ls, l)
	}
	s.mu.Unlock()

	for _, l := range ls {
		l.call(p)
	}
}
