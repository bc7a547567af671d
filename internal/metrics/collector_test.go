package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func renderMetrics(t *testing.T, c *MetricsCollector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler()(rec, httptest.NewRequest("GET", "/metrics", nil))
	return rec.Body.String()
}

func TestCollector_CounterAndGauge(t *testing.T) {
	c := NewMetricsCollector()

	ctr := c.Counter("test_events_total", "Test events", "")
	ctr.Inc()
	ctr.Add(2)
	if ctr.Value() != 3 {
		t.Fatalf("expected counter value 3, got %d", ctr.Value())
	}

	g := c.Gauge("test_active", "Test active things", "")
	g.Set(5)
	g.Inc()
	g.Dec()
	if g.Value() != 5 {
		t.Fatalf("expected gauge value 5, got %d", g.Value())
	}

	body := renderMetrics(t, c)
	for _, want := range []string{
		"# TYPE test_events_total counter",
		"test_events_total 3",
		"# TYPE test_active gauge",
		"test_active 5",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("exposition missing %q:\n%s", want, body)
		}
	}
}

func TestCollector_HistogramRendering(t *testing.T) {
	c := NewMetricsCollector()
	h := c.Histogram("test_latency_seconds", "Test latency", `tool="x"`, []float64{0.1, 1})
	h.Observe(0.05)
	h.Observe(0.5)
	h.Observe(2)

	body := renderMetrics(t, c)
	for _, want := range []string{
		`test_latency_seconds_bucket{tool="x",le="0.1"} 1`,
		`test_latency_seconds_bucket{tool="x",le="1"} 2`,
		`test_latency_seconds_bucket{tool="x",le="+Inf"} 3`,
		`test_latency_seconds_count{tool="x"} 3`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("exposition missing %q:\n%s", want, body)
		}
	}
}

func TestCollector_HistogramUnlabeled(t *testing.T) {
	c := NewMetricsCollector()
	h := c.Histogram("test_plain_seconds", "Plain latency", "", []float64{1})
	h.Observe(0.5)

	body := renderMetrics(t, c)
	for _, want := range []string{
		`test_plain_seconds_bucket{le="1"} 1`,
		`test_plain_seconds_bucket{le="+Inf"} 1`,
		"test_plain_seconds_count 1",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("exposition missing %q:\n%s", want, body)
		}
	}
}

func TestObserveInvocation_RendersLabeledSeries(t *testing.T) {
	ObserveInvocation("probe_tool", false, 30*time.Millisecond)

	body := renderMetrics(t, Collector)
	for _, want := range []string{
		`coderd_invocations_total{tool="probe_tool"} 1`,
		`coderd_invocation_failures_total{tool="probe_tool"} 1`,
		`coderd_invocation_latency_seconds_bucket{tool="probe_tool",le="+Inf"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("exposition missing %q:\n%s", want, body)
		}
	}
}

func TestObserveRequest_CountsByMethod(t *testing.T) {
	ObserveRequest("tools/probe")

	body := renderMetrics(t, Collector)
	if !strings.Contains(body, `coderd_mcp_requests_total{method="tools/probe"} 1`) {
		t.Fatalf("exposition missing request counter:\n%s", body)
	}
}
