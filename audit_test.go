package authgate

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, AuditEvent) {
	s.count.Add(1)
}

type gateSink struct {
	gate chan struct{}
}

func newGateSink() *gateSink {
	return &gateSink{gate: make(chan struct{})}
}

func (s *gateSink) Emit(context.Context, AuditEvent) {
	<-s.gate
}

func TestAuditDisabledDispatcherNil(t *testing.T) {
	d := newAuditDispatcher(AuditConfig{Enabled: false}, &countingSink{})
	if d != nil {
		t.Fatal("disabled audit must not start a dispatcher")
	}
	// Nil receiver is safe anyway.
	d.Emit(context.Background(), AuditEvent{})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher reports drops")
	}
}

func TestAuditDeliversEvents(t *testing.T) {
	sink := NewChannelSink(8)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 8}, sink)
	defer d.Close()

	d.Emit(context.Background(), AuditEvent{EventType: "signin", Success: true})

	select {
	case event := <-sink.Events():
		if event.EventType != "signin" || !event.Success {
			t.Fatalf("unexpected event %+v", event)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestAuditCloseDrainsBuffer(t *testing.T) {
	sink := &countingSink{}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 16}, sink)

	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: "signup"})
	}
	d.Close()

	if got := sink.count.Load(); got != 10 {
		t.Fatalf("expected 10 delivered after Close, got %d", got)
	}
}

func TestAuditDropIfFull(t *testing.T) {
	sink := newGateSink()
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// Block the worker on the first event, fill the one-slot buffer with the
	// second, then overflow.
	for i := 0; i < 8; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: "signin"})
	}

	if d.Dropped() == 0 {
		t.Fatal("expected drops with a full buffer")
	}

	close(sink.gate)
	d.Close()
}

func TestAuditEmitAfterCloseNoPanic(t *testing.T) {
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 4}, &countingSink{})
	d.Close()
	d.Emit(context.Background(), AuditEvent{EventType: "signin"})
	d.Close()
}

func TestEngineEmitsAuditEvents(t *testing.T) {
	sink := NewChannelSink(32)
	te := newTestEngine(t, func(cfg *Config) {
		cfg.Audit.Enabled = true
		cfg.Audit.BufferSize = 32
	})
	// Swap in a dispatcher bound to the capturing sink.
	te.engine.audit.Close()
	te.engine.audit = newAuditDispatcher(te.engine.config.Audit, sink)
	defer te.engine.audit.Close()

	ctx := context.Background()
	te.seedAccount(t, "u1", "alice@example.com", "Str0ng!pass")
	if _, err := te.engine.Signin(ctx, "alice@example.com", "Str0ng!pass"); err != nil {
		t.Fatalf("Signin failed: %v", err)
	}

	select {
	case event := <-sink.Events():
		if event.EventType != "signin" {
			t.Fatalf("expected signin event, got %q", event.EventType)
		}
		if !event.Success || event.AccountID != "u1" || event.Email != "alice@example.com" {
			t.Fatalf("unexpected event %+v", event)
		}
		if event.Timestamp.IsZero() {
			t.Fatal("event timestamp not set")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no audit event delivered")
	}
}
