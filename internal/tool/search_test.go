package tool

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"coderd/internal/domain"
)

func TestWebSearchTool_QueriesAPI(t *testing.T) {
	var gotQuery, gotKey, gotCx string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotKey = r.URL.Query().Get("key")
		gotCx = r.URL.Query().Get("cx")
		w.Write([]byte(`{"items":[{"title":"result"}]}`))
	}))
	defer srv.Close()

	tool := NewWebSearchTool(WebConfig{APIKey: "test-key", EngineID: "test-cx"})
	tool.endpoint = srv.URL

	env := tool.Execute(context.Background(), map[string]any{"query": "golang testing"})
	if !env.OK() {
		t.Fatalf("search: %q", env.Err())
	}
	if gotQuery != "golang testing" || gotKey != "test-key" || gotCx != "test-cx" {
		t.Fatalf("unexpected request params: q=%q key=%q cx=%q", gotQuery, gotKey, gotCx)
	}
	results, _ := env.Field("results").(string)
	if !strings.Contains(results, `"title":"result"`) {
		t.Fatalf("raw body should pass through: %q", results)
	}
}

func TestWebSearchTool_APIErrorBodyIsStillSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400}}`))
	}))
	defer srv.Close()

	tool := NewWebSearchTool(WebConfig{APIKey: "k", EngineID: "cx"})
	tool.endpoint = srv.URL

	env := tool.Execute(context.Background(), map[string]any{"query": "q"})
	if !env.OK() {
		t.Fatalf("HTTP error status should not fail the invocation: %q", env.Err())
	}
	results, _ := env.Field("results").(string)
	if !strings.Contains(results, `"code":400`) {
		t.Fatalf("API error body should pass through: %q", results)
	}
}

func TestWebSearchTool_MissingCredentials(t *testing.T) {
	tool := NewWebSearchTool(WebConfig{})

	env := tool.Execute(context.Background(), map[string]any{"query": "q"})
	if env.OK() {
		t.Fatal("expected failure without credentials")
	}
	if env.Kind() != domain.KindNetworkFailure {
		t.Fatalf("expected network_failure kind, got %q", env.Kind())
	}
	if !strings.Contains(env.Err(), "GOOGLE_API_KEY") {
		t.Fatalf("error should name the missing variables: %q", env.Err())
	}
	if env.Field("results") != "" {
		t.Fatalf("failure should carry empty results, got %v", env.Field("results"))
	}
}

func TestWebSearchTool_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	tool := NewWebSearchTool(WebConfig{APIKey: "k", EngineID: "cx"})
	tool.endpoint = srv.URL

	env := tool.Execute(context.Background(), map[string]any{"query": "q"})
	if env.OK() {
		t.Fatal("expected failure for unreachable endpoint")
	}
	if env.Kind() != domain.KindNetworkFailure {
		t.Fatalf("expected network_failure kind, got %q", env.Kind())
	}
}

func TestWebFetchTool_ReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>hello</html>"))
	}))
	defer srv.Close()

	env := NewWebFetchTool(WebConfig{}).Execute(context.Background(), map[string]any{"url": srv.URL})
	if !env.OK() {
		t.Fatalf("fetch: %q", env.Err())
	}
	if env.Field("content") != "<html>hello</html>" {
		t.Fatalf("unexpected content: %v", env.Field("content"))
	}
}

func TestWebFetchTool_NotFoundBodyIsStillSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("gone"))
	}))
	defer srv.Close()

	env := NewWebFetchTool(WebConfig{}).Execute(context.Background(), map[string]any{"url": srv.URL})
	if !env.OK() {
		t.Fatalf("404 should not fail the invocation: %q", env.Err())
	}
	if env.Field("content") != "gone" {
		t.Fatalf("404 body should pass through, got %v", env.Field("content"))
	}
}

func TestWebFetchTool_RejectsNonHTTPScheme(t *testing.T) {
	env := NewWebFetchTool(WebConfig{}).Execute(context.Background(), map[string]any{"url": "file:///etc/passwd"})
	if env.OK() {
		t.Fatal("expected failure for non-http scheme")
	}
	if env.Kind() != domain.KindNetworkFailure {
		t.Fatalf("expected network_failure kind, got %q", env.Kind())
	}
	if env.Field("content") != "" {
		t.Fatalf("failure should carry empty content, got %v", env.Field("content"))
	}
}

func TestWebFetchTool_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	env := NewWebFetchTool(WebConfig{}).Execute(context.Background(), map[string]any{"url": url})
	if env.OK() {
		t.Fatal("expected failure for refused connection")
	}
	if env.Kind() != domain.KindNetworkFailure {
		t.Fatalf("expected network_failure kind, got %q", env.Kind())
	}
}
