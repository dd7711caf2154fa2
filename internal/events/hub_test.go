package events

import (
	"testing"
	"time"
)

func TestHubBroadcastDeliversToSubscriber(t *testing.T) {
	h := NewHub()
	_, ch, cancel := h.Subscribe()
	defer cancel()

	h.Broadcast(Envelope{Name: "phase_changed", Data: []byte(`{"phase":"idle"}`)})

	select {
	case env := <-ch:
		if env.Name != "phase_changed" {
			t.Fatalf("unexpected event name %q", env.Name)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected broadcast to be delivered")
	}
}

func TestHubBroadcastDropsWhenSubscriberFull(t *testing.T) {
	h := NewHub()
	_, ch, cancel := h.Subscribe()
	defer cancel()

	for i := 0; i < DefaultHubCapacity+5; i++ {
		h.Broadcast(Envelope{Name: "x"})
	}
	// Buffer should be full but not block or panic; draining should yield
	// exactly the capacity's worth of frames without the hub wedging.
	drained := 0
	for {
		select {
		case <-ch:
			drained++
		default:
			if drained != DefaultHubCapacity {
				t.Fatalf("expected exactly %d buffered frames, got %d", DefaultHubCapacity, drained)
			}
			return
		}
	}
}

func TestAdminGateSingleSubscriber(t *testing.T) {
	g := &AdminGate{}
	tok, err := g.Claim()
	if err != nil || tok == "" {
		t.Fatalf("expected first claim to succeed, got %v", err)
	}
	if _, err := g.Claim(); err == nil {
		t.Fatalf("expected second claim to fail while first is active")
	}
	g.Release(tok)
	if _, err := g.Claim(); err != nil {
		t.Fatalf("expected claim to succeed after release, got %v", err)
	}
}

func TestDegradedWatchNotifiesOnChange(t *testing.T) {
	w := NewDegradedWatch()
	ch := w.Changed()
	if changed := w.Set(true); !changed {
		t.Fatalf("expected first Set to report a change")
	}
	select {
	case v := <-ch:
		if !v {
			t.Fatalf("expected degraded=true")
		}
	case <-time.After(time.Second):
		t.Fatalf("expected change notification")
	}
	if changed := w.Set(true); changed {
		t.Fatalf("expected repeated Set with same value to be a no-op")
	}
}
