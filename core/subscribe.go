package core

import (
	"context"
	"sync"
)

// hub fans refreshed task lists out to per-owner subscribers. Delivery is
// best-effort: a subscriber that is not draining its channel misses updates
// rather than blocking the mutation path.
type hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan []Task
}

func newHub() *hub {
	return &hub{subs: map[string]map[int]chan []Task{}}
}

func (h *hub) subscribe(ownerID string) (chan []Task, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++

	ch := make(chan []Task, 1)
	if h.subs[ownerID] == nil {
		h.subs[ownerID] = map[int]chan []Task{}
	}
	h.subs[ownerID][id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[ownerID][id]; ok {
			delete(h.subs[ownerID], id)
			close(sub)
		}
	}
	return ch, cancel
}

func (h *hub) broadcast(ownerID string, tasks []Task) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs[ownerID] {
		select {
		case ch <- tasks:
		default:
		}
	}
}

func (h *hub) hasSubscribers(ownerID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[ownerID]) > 0
}

// Subscribe returns a live stream of the owner's task list and an
// unsubscribe func. Every successful mutation pushes a refreshed list.
func (s *Service) Subscribe(ownerID string) (<-chan []Task, func()) {
	return s.hub.subscribe(ownerID)
}

// publish refreshes subscribers after a mutation. It reads the raw list
// (no recurrence pass, which only runs on caller-driven loads) and never
// fails the mutation it follows.
func (s *Service) publish(ctx context.Context, ownerID string) {
	if !s.hub.hasSubscribers(ownerID) {
		return
	}
	tasks, err := s.store.ListTasks(ctx, ownerID)
	if err != nil {
		s.log.Debug("subscription refresh failed", "owner", ownerID, "error", err)
		return
	}
	s.hub.broadcast(ownerID, tasks)
}
