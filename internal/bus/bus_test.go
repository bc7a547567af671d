package bus

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"coderd/internal/domain"
)

func testBusLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestBus_PublishAndReceive(t *testing.T) {
	b := New(4, testBusLogger())
	defer b.Close()

	b.Publish(domain.InvocationEvent{TraceID: "t1", Tool: "execute_command", Success: true})

	select {
	case ev := <-b.Subscribe():
		if ev.TraceID != "t1" || ev.Tool != "execute_command" || !ev.Success {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestBus_PreservesOrder(t *testing.T) {
	b := New(8, testBusLogger())

	b.Publish(domain.InvocationEvent{TraceID: "first"})
	b.Publish(domain.InvocationEvent{TraceID: "second"})
	b.Close()

	var got []string
	for ev := range b.Subscribe() {
		got = append(got, ev.TraceID)
	}
	if len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestBus_DropsWhenFull(t *testing.T) {
	b := New(1, testBusLogger())
	defer b.Close()

	b.Publish(domain.InvocationEvent{TraceID: "kept"})
	// No consumer: the second publish must drop, not block.
	done := make(chan struct{})
	go func() {
		b.Publish(domain.InvocationEvent{TraceID: "dropped"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on full bus")
	}

	ev := <-b.Subscribe()
	if ev.TraceID != "kept" {
		t.Fatalf("expected first event to survive, got %+v", ev)
	}
}

func TestBus_CloseStopsDelivery(t *testing.T) {
	b := New(4, testBusLogger())
	b.Close()

	// Publish after close must not panic.
	b.Publish(domain.InvocationEvent{TraceID: "late"})

	if _, open := <-b.Subscribe(); open {
		t.Fatal("channel should be closed")
	}
}

func TestBus_CloseTwice(t *testing.T) {
	b := New(4, testBusLogger())
	b.Close()
	b.Close()
}
