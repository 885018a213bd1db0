package hub

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

func recvEvent(t *testing.T, s *Subscriber) Event {
	t.Helper()
	select {
	case ev, ok := <-s.Events():
		if !ok {
			t.Fatalf("channel closed while waiting for event")
		}
		return ev
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for event")
		return Event{}
	}
}

func TestSubscribe_DeliversHello(t *testing.T) {
	h := New(zap.NewNop())
	s := h.Subscribe()
	defer h.Unsubscribe(s)

	ev := recvEvent(t, s)
	if ev.Name != EventHello {
		t.Fatalf("first event = %q, want hello", ev.Name)
	}
	payload, ok := ev.Data.(map[string]any)
	if !ok {
		t.Fatalf("hello payload type %T", ev.Data)
	}
	ts, ok := payload["t"].(int64)
	if !ok || ts <= 0 {
		t.Fatalf("hello payload missing t: %+v", payload)
	}
}

func TestPublish_ReachesAllSubscribers(t *testing.T) {
	h := New(zap.NewNop())
	a := h.Subscribe()
	b := h.Subscribe()
	defer h.Unsubscribe(a)
	defer h.Unsubscribe(b)

	// drain hellos
	recvEvent(t, a)
	recvEvent(t, b)

	h.Publish(EventIncidentCreated, map[string]any{"id": "inc-1"})

	for _, s := range []*Subscriber{a, b} {
		ev := recvEvent(t, s)
		if ev.Name != EventIncidentCreated {
			t.Fatalf("event = %q, want incident.created", ev.Name)
		}
	}
}

func TestUnsubscribe_IdempotentAndStopsDelivery(t *testing.T) {
	h := New(zap.NewNop())
	s := h.Subscribe()
	recvEvent(t, s)

	h.Unsubscribe(s)
	h.Unsubscribe(s) // second call is a no-op

	if h.Count() != 0 {
		t.Fatalf("subscriber still registered after unsubscribe")
	}
	if _, ok := <-s.Events(); ok {
		t.Fatalf("channel should be closed after unsubscribe")
	}
}

func TestPublish_SlowSubscriberDoesNotBlockOthers(t *testing.T) {
	h := New(zap.NewNop())
	slow := h.Subscribe() // never drained past hello
	fast := h.Subscribe()
	defer h.Unsubscribe(slow)
	defer h.Unsubscribe(fast)
	recvEvent(t, fast)

	// overflow the slow subscriber's buffer; publishes must not block
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			h.Publish(EventCheckUpdated, map[string]any{"n": i})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("publish blocked on a slow subscriber")
	}

	// the fast subscriber still received events
	ev := recvEvent(t, fast)
	if ev.Name != EventCheckUpdated {
		t.Fatalf("fast subscriber got %q", ev.Name)
	}
}

func TestPublish_ConcurrentWithSubscribeUnsubscribe(t *testing.T) {
	h := New(zap.NewNop())

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				h.Publish(EventIncidentUpdated, nil)
			}
		}
	}()

	for i := 0; i < 50; i++ {
		s := h.Subscribe()
		h.Unsubscribe(s)
	}
	close(stop)
	wg.Wait()

	if h.Count() != 0 {
		t.Fatalf("expected empty registry, got %d", h.Count())
	}
}
