package tool

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"coderd/internal/domain"
)

const planTitle = "# Project Action Plan"

// PlanStore owns the plan document on disk. Every read and write goes
// through its mutex so concurrent plan operations never interleave.
type PlanStore struct {
	mu   sync.Mutex
	path string
}

func NewPlanStore(path string) *PlanStore {
	return &PlanStore{path: path}
}

// Path returns the plan document location.
func (s *PlanStore) Path() string { return s.path }

// Create writes a fresh plan document under the standard header,
// replacing any existing plan.
func (s *PlanStore) Create(content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return domain.Errf(domain.KindIOFailure, "create plan directory: %v", err)
	}
	if err := os.WriteFile(s.path, []byte(planHeader()+content), 0o644); err != nil {
		return domain.Errf(domain.KindIOFailure, "write plan: %v", err)
	}
	return nil
}

// Append adds content to the plan, creating a headed document first if
// none exists.
func (s *PlanStore) Append(content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
			return domain.Errf(domain.KindIOFailure, "create plan directory: %v", err)
		}
		if err := os.WriteFile(s.path, []byte(planHeader()), 0o644); err != nil {
			return domain.Errf(domain.KindIOFailure, "write plan: %v", err)
		}
	}
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return domain.Errf(domain.KindIOFailure, "open plan: %v", err)
	}
	if _, err := f.WriteString("\n" + content); err != nil {
		f.Close()
		return domain.Errf(domain.KindIOFailure, "append plan: %v", err)
	}
	if err := f.Close(); err != nil {
		return domain.Errf(domain.KindIOFailure, "close plan: %v", err)
	}
	return nil
}

// Read returns the current plan document.
func (s *PlanStore) Read() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", domain.Errf(domain.KindIOFailure, "read plan: %v", err)
	}
	return string(data), nil
}

func planHeader() string {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return fmt.Sprintf("%s\n\nWorking Directory: %s\n\n", planTitle, wd)
}

// --- CreatePlanTool ---

// CreatePlanTool starts a new project action plan.
type CreatePlanTool struct {
	store *PlanStore
}

func NewCreatePlanTool(store *PlanStore) *CreatePlanTool { return &CreatePlanTool{store: store} }

func (t *CreatePlanTool) Name() string { return "create_plan" }
func (t *CreatePlanTool) Description() string {
	return "Create a new project action plan document. Overwrites any existing plan."
}
func (t *CreatePlanTool) Params() []domain.ParamSpec {
	return []domain.ParamSpec{
		{Name: "plan_content", Type: "string", Description: "The plan content in markdown", Required: true},
	}
}

func (t *CreatePlanTool) Execute(ctx context.Context, args map[string]any) domain.Envelope {
	if err := t.store.Create(ArgsString(args, "plan_content")); err != nil {
		return domain.Failure(err, nil)
	}
	return domain.Success(nil)
}

// --- AppendPlanTool ---

// AppendPlanTool adds content to the project action plan.
type AppendPlanTool struct {
	store *PlanStore
}

func NewAppendPlanTool(store *PlanStore) *AppendPlanTool { return &AppendPlanTool{store: store} }

func (t *AppendPlanTool) Name() string { return "append_plan" }
func (t *AppendPlanTool) Description() string {
	return "Append content to the project action plan, creating it if needed."
}
func (t *AppendPlanTool) Params() []domain.ParamSpec {
	return []domain.ParamSpec{
		{Name: "additional_content", Type: "string", Description: "Content to append to the plan", Required: true},
	}
}

func (t *AppendPlanTool) Execute(ctx context.Context, args map[string]any) domain.Envelope {
	if err := t.store.Append(ArgsString(args, "additional_content")); err != nil {
		return domain.Failure(err, nil)
	}
	return domain.Success(nil)
}

// --- ReadPlanTool ---

// ReadPlanTool returns the current project action plan.
type ReadPlanTool struct {
	store *PlanStore
}

func NewReadPlanTool(store *PlanStore) *ReadPlanTool { return &ReadPlanTool{store: store} }

func (t *ReadPlanTool) Name() string        { return "read_plan" }
func (t *ReadPlanTool) Description() string { return "Read the current project action plan." }
func (t *ReadPlanTool) Params() []domain.ParamSpec {
	return []domain.ParamSpec{}
}

func (t *ReadPlanTool) Execute(ctx context.Context, args map[string]any) domain.Envelope {
	content, err := t.store.Read()
	if err != nil {
		return domain.Failure(err, map[string]any{"content": ""})
	}
	return domain.Success(map[string]any{"content": content})
}

// Compile-time interface checks.
var (
	_ domain.Tool = (*CreatePlanTool)(nil)
	_ domain.Tool = (*AppendPlanTool)(nil)
	_ domain.Tool = (*ReadPlanTool)(nil)
)
