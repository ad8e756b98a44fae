// Package events fans document changes out to subscribers of one organization.
package events

import (
	"sync"
	"sync/atomic"
	"time"
)

// Event types published by the services.
const (
	TypeStage     = "commit.stage"
	TypeProgress  = "upload.progress"
	TypeCommitted = "document.committed"
	TypeSelected  = "document.selected"
	TypeDeleted   = "document.deleted"
)

// Event is a single change notification scoped to an organization.
type Event struct {
	Type         string    `json:"type"`
	Organization string    `json:"organization"`
	DocumentID   string    `json:"documentId,omitempty"`
	Data         any       `json:"data,omitempty"`
	At           time.Time `json:"at"`
}

// Publisher accepts events. Implementations must not block.
type Publisher interface {
	Publish(Event)
}

type discard struct{}

func (discard) Publish(Event) {}

// Discard drops every event.
var Discard Publisher = discard{}

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 32

// Hub keeps subscribers grouped by organization.
type Hub struct {
	mu      sync.RWMutex
	subs    map[string]map[*Subscription]struct{}
	buffer  int
	dropped atomic.Int64
}

// NewHub creates a hub whose subscribers buffer up to buffer events.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		subs:   make(map[string]map[*Subscription]struct{}),
		buffer: buffer,
	}
}

// Subscription receives the events of one organization until Close.
type Subscription struct {
	org  string
	ch   chan Event
	hub  *Hub
	once sync.Once
}

// Events is closed after Close.
func (s *Subscription) Events() <-chan Event { return s.ch }

// Close detaches the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		defer s.hub.mu.Unlock()
		if set, ok := s.hub.subs[s.org]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(s.hub.subs, s.org)
			}
		}
		close(s.ch)
	})
}

// Subscribe registers a new subscriber for org.
func (h *Hub) Subscribe(org string) *Subscription {
	s := &Subscription{org: org, ch: make(chan Event, h.buffer), hub: h}
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[org]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[org] = set
	}
	set[s] = struct{}{}
	return s
}

// Publish delivers e to every subscriber of e.Organization.
// A subscriber whose buffer is full misses the event.
func (h *Hub) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs[e.Organization] {
		select {
		case s.ch <- e:
		default:
			h.dropped.Add(1)
		}
	}
}

// Subscribers returns the number of live subscriptions for org.
func (h *Hub) Subscribers(org string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[org])
}

// Dropped is the number of events lost to full subscriber buffers.
func (h *Hub) Dropped() int64 { return h.dropped.Load() }
