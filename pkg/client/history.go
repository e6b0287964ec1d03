package client

import (
	"sync"

	v1 "github.com/noriskclient/launcherd/pkg/api/v1"
)

// History accumulates events keyed by event id, oldest first, keeping at
// most limit of them.
type History struct {
	mu    sync.RWMutex
	limit int
	order []string
	byID  map[string]v1.EventPayload
}

// NewHistory creates a history holding up to limit events.
func NewHistory(limit int) *History {
	if limit < 1 {
		limit = 1
	}
	return &History{
		limit: limit,
		byID:  make(map[string]v1.EventPayload, limit),
	}
}

// Add records p. Events without an id or with an id already held are ignored.
func (h *History) Add(p v1.EventPayload) bool {
	if p.EventID == "" {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.byID[p.EventID]; ok {
		return false
	}
	if len(h.order) == h.limit {
		delete(h.byID, h.order[0])
		h.order = h.order[1:]
	}
	h.order = append(h.order, p.EventID)
	h.byID[p.EventID] = p
	return true
}

// Get returns the event with the given id.
func (h *History) Get(eventID string) (v1.EventPayload, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	p, ok := h.byID[eventID]
	return p, ok
}

// Events returns the held events, oldest first.
func (h *History) Events() []v1.EventPayload {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]v1.EventPayload, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, h.byID[id])
	}
	return out
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.order)
}
