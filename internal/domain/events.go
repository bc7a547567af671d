package domain

import "time"

// InvocationEvent records one completed tool invocation.
type InvocationEvent struct {
	TraceID  string
	Tool     string
	Success  bool
	Kind     ErrorKind
	Error    string
	Duration time.Duration
	At       time.Time
}

// EventBus fans invocation events out to in-process observers. Publish
// must never block the invocation path.
type EventBus interface {
	Publish(ev InvocationEvent)
	Subscribe() <-chan InvocationEvent
	Close()
}
