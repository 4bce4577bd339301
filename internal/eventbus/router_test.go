package eventbus

import (
	"testing"
	"time"
)

func TestNewRouter(t *testing.T) {
	t.Run("default buffer size", func(t *testing.T) {
		r := NewRouter(nil, 0)
		if r.bufferSize != DefaultBufferSize {
			t.Errorf("want %d, got %d", DefaultBufferSize, r.bufferSize)
		}
	})

	t.Run("negative buffer size uses default", func(t *testing.T) {
		r := NewRouter(nil, -5)
		if r.bufferSize != DefaultBufferSize {
			t.Errorf("want %d, got %d", DefaultBufferSize, r.bufferSize)
		}
	})

	t.Run("custom buffer size", func(t *testing.T) {
		r := NewRouter(nil, 50)
		if r.bufferSize != 50 {
			t.Errorf("want 50, got %d", r.bufferSize)
		}
	})
}

func TestRouter_EmitSubscribe(t *testing.T) {
	r := NewRouter(nil, 10)
	defer r.Close()

	ch := r.Subscribe()
	r.Emit(NewAuditEvent(time.Now(), "join", "Alice", ""))

	select {
	case received := <-ch:
		if received.Type() != TypeAudit {
			t.Errorf("want %s, got %s", TypeAudit, received.Type())
		}
		ev, ok := received.(AuditEvent)
		if !ok {
			t.Fatalf("want AuditEvent, got %T", received)
		}
		if ev.Player != "Alice" {
			t.Errorf("want Alice, got %s", ev.Player)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestRouter_MultipleSubscribersAllReceive(t *testing.T) {
	r := NewRouter(nil, 10)
	defer r.Close()

	a := r.Subscribe()
	b := r.Subscribe()
	r.Emit(NewBanEvent(time.Now(), "Griefer", "forbidden command"))

	for _, ch := range []<-chan Event{a, b} {
		select {
		case ev := <-ch:
			if ev.Type() != TypeBan {
				t.Errorf("want %s, got %s", TypeBan, ev.Type())
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestRouter_FullChannelDropsEventInsteadOfBlocking(t *testing.T) {
	r := NewRouter(nil, 1)
	defer r.Close()

	ch := r.Subscribe()
	r.Emit(NewSystemEvent(time.Now(), "first"))
	r.Emit(NewSystemEvent(time.Now(), "second")) // channel full, dropped

	select {
	case ev := <-ch:
		sys, ok := ev.(SystemEvent)
		if !ok || sys.Message != "first" {
			t.Errorf("want first system event to survive, got %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}

	select {
	case ev, ok := <-ch:
		if ok {
			t.Errorf("expected no second event, got %+v", ev)
		}
	default:
	}
}

func TestRouter_Unsubscribe(t *testing.T) {
	r := NewRouter(nil, 10)
	defer r.Close()

	ch := r.Subscribe()
	r.Unsubscribe(ch)

	if _, ok := <-ch; ok {
		t.Error("expected channel closed after Unsubscribe")
	}

	// Unsubscribing again, or a channel never subscribed, must not panic.
	r.Unsubscribe(ch)
}

func TestRouter_CloseClosesSubscribersAndStopsEmit(t *testing.T) {
	r := NewRouter(nil, 10)
	ch := r.Subscribe()
	r.Close()
	r.Close() // idempotent

	if _, ok := <-ch; ok {
		t.Error("expected channel closed after Close")
	}

	r.Emit(NewSystemEvent(time.Now(), "after close")) // must not panic

	newCh := r.Subscribe()
	if _, ok := <-newCh; ok {
		t.Error("expected Subscribe after Close to return an already-closed channel")
	}
}
