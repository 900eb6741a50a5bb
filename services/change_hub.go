package services

import (
	"sync"
	"time"
)

// PhaseEvent announces a phase-record change to subscribers
type PhaseEvent struct {
	ProjectID uint      `json:"project_id"`
	Phase     string    `json:"phase"`
	Action    string    `json:"action"` // created, updated
	At        time.Time `json:"at"`
}

// ChangeHub fans phase-record changes out to live subscribers (UI refresh).
// Publishing never blocks: a subscriber that falls behind loses events, and
// writes complete whether or not anyone is listening.
type ChangeHub struct {
	mu     sync.Mutex
	nextID int
	subs   map[uint]map[int]chan PhaseEvent // projectID -> subscriber channels
}

// NewChangeHub creates an empty hub
func NewChangeHub() *ChangeHub {
	return &ChangeHub{subs: make(map[uint]map[int]chan PhaseEvent)}
}

// Subscribe registers for a project's events. The returned cancel func must
// be called when the subscriber goes away.
func (h *ChangeHub) Subscribe(projectID uint) (<-chan PhaseEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	ch := make(chan PhaseEvent, 16)
	if h.subs[projectID] == nil {
		h.subs[projectID] = make(map[int]chan PhaseEvent)
	}
	h.subs[projectID][id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if chans, ok := h.subs[projectID]; ok {
			if c, ok := chans[id]; ok {
				delete(chans, id)
				close(c)
			}
			if len(chans) == 0 {
				delete(h.subs, projectID)
			}
		}
	}
	return ch, cancel
}

// Publish delivers an event to current subscribers, dropping it for any
// whose buffer is full.
func (h *ChangeHub) Publish(event PhaseEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[event.ProjectID] {
		select {
		case ch <- event:
		default:
		}
	}
}
