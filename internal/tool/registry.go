package tool

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"coderd/internal/domain"
	"coderd/internal/metrics"
)

// Registry holds the fixed tool catalog and dispatches invocations. Tools
// are registered during startup and the registry is then sealed; sealing
// derives the wire descriptors once and freezes the catalog for the life
// of the process.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]domain.Tool
	order  []string
	descs  []domain.Descriptor
	sealed bool
	bus    domain.EventBus
	logger *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		tools:  make(map[string]domain.Tool),
		logger: logger,
	}
}

// Register adds a tool to the catalog. Registering after Seal panics.
func (r *Registry) Register(t domain.Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		panic("tool: Register called after Seal")
	}
	name := t.Name()
	if _, ok := r.tools[name]; !ok {
		r.order = append(r.order, name)
	}
	r.tools[name] = t
	r.logger.Debug("registered tool", "name", name)
}

// Seal freezes the catalog and derives one descriptor per tool, in
// registration order. Listings after Seal reuse the cached descriptors.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return
	}
	r.descs = make([]domain.Descriptor, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		r.descs = append(r.descs, domain.Descriptor{
			Name:        name,
			Description: t.Description(),
			InputSchema: buildSchema(t.Params()),
		})
	}
	r.sealed = true
	r.logger.Info("tool catalog sealed", "tools", len(r.order))
}

// Sealed reports whether the catalog has been frozen.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// SetEventBus attaches a bus that receives one event per invocation.
func (r *Registry) SetEventBus(bus domain.EventBus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bus = bus
}

func (r *Registry) Get(name string) domain.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Descriptors returns the cached wire descriptors. Empty before Seal.
func (r *Registry) Descriptors() []domain.Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.descs
}

// Invoke runs one tool call end to end: lookup, argument binding,
// execution, then log, metric and event bookkeeping. It always returns
// an envelope; a panicking tool is reported as a failure, never crashes
// the server.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) domain.Envelope {
	start := time.Now()
	traceID := uuid.New().String()

	var env domain.Envelope
	t := r.Get(name)
	if t == nil {
		env = domain.Failure(domain.Errf(domain.KindUnknownTool, "unknown tool: %s", name), nil)
	} else if bound, err := bindArgs(t.Params(), args); err != nil {
		env = domain.Failure(err, nil)
	} else {
		metrics.InvocationsInFlight.Inc()
		env = r.exec(ctx, t, bound)
		metrics.InvocationsInFlight.Dec()
	}

	r.finish(traceID, name, start, env)
	return env
}

func (r *Registry) exec(ctx context.Context, t domain.Tool, args map[string]any) (env domain.Envelope) {
	defer func() {
		if rec := recover(); rec != nil {
			env = domain.Failure(domain.Errf(domain.KindExecFailure, "tool panic: %v", rec), nil)
		}
	}()
	return t.Execute(ctx, args)
}

func (r *Registry) finish(traceID, name string, start time.Time, env domain.Envelope) {
	elapsed := time.Since(start)
	metrics.ObserveInvocation(name, env.OK(), elapsed)

	if env.OK() {
		r.logger.Info("tool invocation completed",
			"trace_id", traceID, "tool", name, "duration_ms", elapsed.Milliseconds())
	} else {
		r.logger.Warn("tool invocation failed",
			"trace_id", traceID, "tool", name, "kind", string(env.Kind()),
			"error", env.Err(), "duration_ms", elapsed.Milliseconds())
	}

	r.mu.RLock()
	bus := r.bus
	r.mu.RUnlock()
	if bus != nil {
		bus.Publish(domain.InvocationEvent{
			TraceID:  traceID,
			Tool:     name,
			Success:  env.OK(),
			Kind:     env.Kind(),
			Error:    env.Err(),
			Duration: elapsed,
			At:       start,
		})
	}
}

// buildSchema renders ParamSpecs as a JSON Schema object.
func buildSchema(specs []domain.ParamSpec) map[string]any {
	props := make(map[string]any, len(specs))
	required := make([]string, 0, len(specs))
	for _, p := range specs {
		prop := map[string]any{"type": p.Type, "description": p.Description}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		props[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// bindArgs checks required parameters and fills declared defaults.
// Keys the tool does not declare are dropped.
func bindArgs(specs []domain.ParamSpec, args map[string]any) (map[string]any, error) {
	bound := make(map[string]any, len(specs))
	for _, p := range specs {
		v, ok := args[p.Name]
		if !ok {
			if p.Required {
				return nil, domain.Errf(domain.KindInvalidArguments, "missing required argument: %s", p.Name)
			}
			if p.Default != nil {
				bound[p.Name] = p.Default
			}
			continue
		}
		bound[p.Name] = v
	}
	return bound, nil
}

func ArgsString(args map[string]any, key string) string {
	if args == nil {
		return ""
	}
	v, ok := args[key]
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}
