package hub

import (
	"sync"

	"go.uber.org/zap"

	"github.com/hamed0406/monitor247/internal/domain"
)

// Event names pushed to stream subscribers.
const (
	EventHello           = "hello"
	EventIncidentCreated = "incident.created"
	EventIncidentUpdated = "incident.updated"
	EventCheckUpdated    = "check.updated"
)

// subscriberBuffer bounds how far one slow client can fall behind before its
// events get dropped. Dropping only affects that subscriber.
const subscriberBuffer = 32

type Event struct {
	Name string
	Data any
}

type Subscriber struct {
	ch chan Event
}

// Events is the subscriber's receive side. It is closed on Unsubscribe.
func (s *Subscriber) Events() <-chan Event { return s.ch }

// Hub fans incident/check events out to every connected stream client.
// There is no history: a subscriber only sees events published while it is
// registered.
type Hub struct {
	logger *zap.Logger

	mu   sync.RWMutex
	subs map[*Subscriber]struct{}
}

func New(logger *zap.Logger) *Hub {
	return &Hub{
		logger: logger,
		subs:   make(map[*Subscriber]struct{}),
	}
}

// Subscribe registers a new subscriber and hands it a hello event straight
// away so clients can confirm the stream is live.
func (h *Hub) Subscribe() *Subscriber {
	s := &Subscriber{ch: make(chan Event, subscriberBuffer)}
	s.ch <- Event{Name: EventHello, Data: map[string]any{"t": domain.NowMillis()}}

	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

// Unsubscribe removes s and closes its channel. Safe to call twice.
func (h *Hub) Unsubscribe(s *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[s]; !ok {
		return
	}
	delete(h.subs, s)
	close(s.ch)
}

// Publish delivers the event to every registered subscriber without
// blocking. Sends happen under the read lock and close happens under the
// write lock, so a send can never race a close.
func (h *Hub) Publish(name string, data any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs {
		select {
		case s.ch <- Event{Name: name, Data: data}:
		default:
			h.logger.Warn("event_dropped_slow_subscriber", zap.String("event", name))
		}
	}
}

// Count reports the current number of subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
