package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestSuccess_MarshalJSON(t *testing.T) {
	env := Success(map[string]any{"content": "hello"})

	data, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["success"] != true {
		t.Fatalf("expected success=true, got %v", got["success"])
	}
	if got["content"] != "hello" {
		t.Fatalf("expected content 'hello', got %v", got["content"])
	}
	if _, ok := got["error"]; ok {
		t.Fatal("success envelope should not carry an 'error' key")
	}
}

func TestFailure_MarshalJSON(t *testing.T) {
	env := Failure(Errf(KindIOFailure, "open plan: no such file"), map[string]any{"content": ""})

	data, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["success"] != false {
		t.Fatalf("expected success=false, got %v", got["success"])
	}
	if got["error"] != "open plan: no such file" {
		t.Fatalf("unexpected error message: %v", got["error"])
	}
	if got["content"] != "" {
		t.Fatalf("expected empty content, got %v", got["content"])
	}
}

func TestFailure_KindAndMessage(t *testing.T) {
	env := Failure(Errf(KindNetworkFailure, "connect: refused"), nil)

	if env.OK() {
		t.Fatal("expected failure envelope")
	}
	if env.Kind() != KindNetworkFailure {
		t.Fatalf("expected network kind, got %q", env.Kind())
	}
	if env.Err() != "connect: refused" {
		t.Fatalf("unexpected message: %q", env.Err())
	}
}

func TestSuccess_Accessors(t *testing.T) {
	env := Success(map[string]any{"exit_code": 7})

	if !env.OK() {
		t.Fatal("expected success envelope")
	}
	if env.Kind() != "" {
		t.Fatalf("success envelope should have no kind, got %q", env.Kind())
	}
	if env.Err() != "" {
		t.Fatalf("success envelope should have no error, got %q", env.Err())
	}
	if env.Field("exit_code") != 7 {
		t.Fatalf("expected 7, got %v", env.Field("exit_code"))
	}
	if env.Field("missing") != nil {
		t.Fatal("expected nil for absent field")
	}
}

func TestMarshalJSON_ReservedKeys(t *testing.T) {
	env := Success(map[string]any{"success": false, "error": "bogus"})

	data, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["success"] != true {
		t.Fatal("envelope success flag must win over payload key")
	}
	if _, ok := got["error"]; ok {
		t.Fatal("payload must not inject an error key into a success envelope")
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	inner := Errf(KindExecFailure, "spawn failed")
	wrapped := fmt.Errorf("invoke: %w", inner)

	if got := KindOf(wrapped); got != KindExecFailure {
		t.Fatalf("expected exec kind through wrap, got %q", got)
	}
	if got := KindOf(errors.New("plain")); got != "" {
		t.Fatalf("expected empty kind for plain error, got %q", got)
	}
}
