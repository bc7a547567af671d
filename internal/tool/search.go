package tool

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"coderd/internal/domain"
)

const (
	searchEndpoint  = "https://www.googleapis.com/customsearch/v1"
	userAgentString = "coderd/0.1"
)

// WebConfig carries the shared settings for the web tools.
type WebConfig struct {
	APIKey         string
	EngineID       string
	TimeoutSeconds int
}

func newHTTPClient(cfg WebConfig) *http.Client {
	client := &http.Client{}
	if cfg.TimeoutSeconds > 0 {
		client.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return client
}

// --- WebSearchTool ---

// WebSearchTool queries the Google Custom Search API and returns the raw
// response body. Non-2xx API responses are still successful invocations;
// the caller sees whatever the API said.
type WebSearchTool struct {
	client   *http.Client
	apiKey   string
	engineID string
	endpoint string
}

func NewWebSearchTool(cfg WebConfig) *WebSearchTool {
	return &WebSearchTool{
		client:   newHTTPClient(cfg),
		apiKey:   cfg.APIKey,
		engineID: cfg.EngineID,
		endpoint: searchEndpoint,
	}
}

func (t *WebSearchTool) Name() string { return "search_web" }

func (t *WebSearchTool) Description() string {
	return "Search the web using the Google Custom Search API and return the raw JSON results."
}

func (t *WebSearchTool) Params() []domain.ParamSpec {
	return []domain.ParamSpec{
		{Name: "query", Type: "string", Description: "The search query", Required: true},
	}
}

func (t *WebSearchTool) Execute(ctx context.Context, args map[string]any) domain.Envelope {
	query := ArgsString(args, "query")
	if t.apiKey == "" || t.engineID == "" {
		return domain.Failure(domain.Errf(domain.KindNetworkFailure,
			"search credentials missing: set GOOGLE_API_KEY and GOOGLE_SEARCH_ENGINE_ID"),
			map[string]any{"results": ""})
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("key", t.apiKey)
	params.Set("cx", t.engineID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return domain.Failure(domain.Errf(domain.KindNetworkFailure, "build search request: %v", err), map[string]any{"results": ""})
	}
	req.Header.Set("User-Agent", userAgentString)

	resp, err := t.client.Do(req)
	if err != nil {
		return domain.Failure(domain.Errf(domain.KindNetworkFailure, "search request: %v", err), map[string]any{"results": ""})
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Failure(domain.Errf(domain.KindNetworkFailure, "read search response: %v", err), map[string]any{"results": ""})
	}
	return domain.Success(map[string]any{"results": string(body)})
}

// --- WebFetchTool ---

// WebFetchTool fetches a URL and returns the raw response body. The HTTP
// status is not checked; a 404 page is still content.
type WebFetchTool struct {
	client *http.Client
}

func NewWebFetchTool(cfg WebConfig) *WebFetchTool {
	return &WebFetchTool{client: newHTTPClient(cfg)}
}

func (t *WebFetchTool) Name() string        { return "fetch_url" }
func (t *WebFetchTool) Description() string { return "Fetch the raw content of a URL." }
func (t *WebFetchTool) Params() []domain.ParamSpec {
	return []domain.ParamSpec{
		{Name: "url", Type: "string", Description: "Full URL to fetch (must start with http:// or https://)", Required: true},
	}
}

func (t *WebFetchTool) Execute(ctx context.Context, args map[string]any) domain.Envelope {
	rawURL := ArgsString(args, "url")

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return domain.Failure(domain.Errf(domain.KindNetworkFailure, "invalid URL: %v", err), map[string]any{"content": ""})
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return domain.Failure(domain.Errf(domain.KindNetworkFailure, "unsupported URL scheme: %s (only http/https allowed)", parsed.Scheme), map[string]any{"content": ""})
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return domain.Failure(domain.Errf(domain.KindNetworkFailure, "build fetch request: %v", err), map[string]any{"content": ""})
	}
	req.Header.Set("User-Agent", userAgentString)

	resp, err := t.client.Do(req)
	if err != nil {
		return domain.Failure(domain.Errf(domain.KindNetworkFailure, "fetch url: %v", err), map[string]any{"content": ""})
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Failure(domain.Errf(domain.KindNetworkFailure, "read response body: %v", err), map[string]any{"content": ""})
	}
	return domain.Success(map[string]any{"content": string(body)})
}

// Compile-time interface checks.
var (
	_ domain.Tool = (*WebSearchTool)(nil)
	_ domain.Tool = (*WebFetchTool)(nil)
)
