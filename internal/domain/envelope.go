package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorKind classifies a tool failure for logging and metrics. Kinds are
// internal taxonomy only; the wire envelope carries just the message.
type ErrorKind string

const (
	KindUnknownTool      ErrorKind = "unknown_tool"
	KindInvalidArguments ErrorKind = "invalid_arguments"
	KindExecFailure      ErrorKind = "exec_failure"
	KindIOFailure        ErrorKind = "io_failure"
	KindNetworkFailure   ErrorKind = "network_failure"
)

// ToolError attaches an ErrorKind to an underlying error.
type ToolError struct {
	Kind ErrorKind
	Err  error
}

func (e *ToolError) Error() string { return e.Err.Error() }
func (e *ToolError) Unwrap() error { return e.Err }

// Errf builds a ToolError from a format string.
func Errf(kind ErrorKind, format string, args ...any) *ToolError {
	return &ToolError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the ErrorKind from an error chain, or "" if none.
func KindOf(err error) ErrorKind {
	var te *ToolError
	if errors.As(err, &te) {
		return te.Kind
	}
	return ""
}

// Envelope is the uniform result of a tool invocation. It serializes to a
// flat JSON object: the payload fields plus "success", plus "error" when
// the invocation failed. A failure envelope carries the operation's
// empty-value payload so both outcomes share one shape.
type Envelope struct {
	ok      bool
	kind    ErrorKind
	errMsg  string
	payload map[string]any
}

// Success returns an envelope for a completed invocation.
func Success(payload map[string]any) Envelope {
	return Envelope{ok: true, payload: payload}
}

// Failure returns an envelope for a failed invocation. The error message
// and kind are taken from err; payload holds the empty-value fields.
func Failure(err error, payload map[string]any) Envelope {
	return Envelope{kind: KindOf(err), errMsg: err.Error(), payload: payload}
}

// OK reports whether the invocation succeeded.
func (e Envelope) OK() bool { return e.ok }

// Kind returns the failure classification, or "" for success envelopes.
func (e Envelope) Kind() ErrorKind { return e.kind }

// Err returns the failure message, or "" for success envelopes.
func (e Envelope) Err() string { return e.errMsg }

// Field returns a payload field by name, or nil if absent.
func (e Envelope) Field(key string) any { return e.payload[key] }

// MarshalJSON flattens the payload together with the success flag and,
// on failure, the error message. "success" and "error" win over payload
// fields of the same name.
func (e Envelope) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.payload)+2)
	for k, v := range e.payload {
		out[k] = v
	}
	out["success"] = e.ok
	if e.ok {
		delete(out, "error")
	} else {
		out["error"] = e.errMsg
	}
	return json.Marshal(out)
}
