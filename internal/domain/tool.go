package domain

import "context"

// Tool is one callable capability exposed by the server (shell, file ops,
// web access, plan management). Execute never returns a Go error: every
// outcome, including failure, is reported through the Envelope.
type Tool interface {
	Name() string
	Description() string
	Params() []ParamSpec
	Execute(ctx context.Context, args map[string]any) Envelope
}

// ParamSpec declares a single tool parameter. Declaration order is the
// order parameters appear in the derived input schema.
type ParamSpec struct {
	Name        string
	Type        string
	Description string
	Required    bool
	Default     any
}

// Descriptor is the wire-facing description of a tool. Descriptors are
// derived once, when the registry is sealed, and reused for every listing.
type Descriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}
