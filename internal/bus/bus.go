package bus

import (
	"log/slog"
	"sync"

	"coderd/internal/domain"
)

// InMemoryBus is a Go-channel based event bus carrying invocation events
// to the audit recorder. Publish never blocks the invocation path: when
// the buffer is full the event is dropped with a warning.
type InMemoryBus struct {
	events chan domain.InvocationEvent
	mu     sync.RWMutex
	closed bool
	logger *slog.Logger
}

// New creates a new InMemoryBus with the given buffer size.
func New(bufferSize int, logger *slog.Logger) *InMemoryBus {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &InMemoryBus{
		events: make(chan domain.InvocationEvent, bufferSize),
		logger: logger,
	}
}

func (b *InMemoryBus) Publish(ev domain.InvocationEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		b.logger.Warn("attempted to publish to closed bus", "tool", ev.Tool)
		return
	}

	select {
	case b.events <- ev:
	default:
		b.logger.Warn("event bus full, dropping invocation event",
			"tool", ev.Tool,
			"trace_id", ev.TraceID,
		)
	}
}

func (b *InMemoryBus) Subscribe() <-chan domain.InvocationEvent {
	return b.events
}

func (b *InMemoryBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.closed {
		b.closed = true
		close(b.events)
	}
}

var _ domain.EventBus = (*InMemoryBus)(nil)
