package listapi_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"sharedlist/internal/adapters/listapi"
	"sharedlist/internal/core"
)

// syncBuffer guards log output written by server goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newServer(t *testing.T, logs io.Writer) *httptest.Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	metrics, err := core.NewPrometheusMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	svc := core.NewInMemoryService(core.NewDefaultRulesEngine(0), core.WithMetricsRecorder(metrics))
	logger := slog.New(slog.NewTextHandler(logs, nil))
	router := listapi.NewRouter(listapi.NewHandler(svc, logger), listapi.RouterOptions{
		Logger:         logger,
		AllowedOrigins: []string{"https://list.example"},
		Gatherer:       reg,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func send(t *testing.T, method, url, body string, header http.Header) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestRouterServesBothPaths(t *testing.T) {
	srv := newServer(t, io.Discard)
	send(t, http.MethodPost, srv.URL+listapi.PathList, `{"action":"add","text":"Milk"}`, nil)
	resp := send(t, http.MethodGet, srv.URL+listapi.PathLegacy, "", nil)
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"text":"Milk"`) {
		t.Fatalf("legacy path did not serve the same list: %d %s", resp.StatusCode, body)
	}
}

func TestRouterRequestIDAndAccessLog(t *testing.T) {
	logs := &syncBuffer{}
	srv := newServer(t, logs)

	resp := send(t, http.MethodGet, srv.URL+listapi.PathList, "", nil)
	if resp.Header.Get(listapi.RequestIDHeader) == "" {
		t.Fatalf("expected generated request id")
	}
	resp = send(t, http.MethodGet, srv.URL+listapi.PathList, "", http.Header{listapi.RequestIDHeader: {"abc-123"}})
	if got := resp.Header.Get(listapi.RequestIDHeader); got != "abc-123" {
		t.Fatalf("incoming request id not honoured: %q", got)
	}
	if !strings.Contains(logs.String(), "request_id=abc-123") || !strings.Contains(logs.String(), "status=200") {
		t.Fatalf("access log missing fields: %s", logs.String())
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	srv := newServer(t, io.Discard)
	resp := send(t, http.MethodOptions, srv.URL+listapi.PathList, "", http.Header{
		"Origin":                        {"https://list.example"},
		"Access-Control-Request-Method": {http.MethodDelete},
	})
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 preflight, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://list.example" {
		t.Fatalf("unexpected allow origin %q", got)
	}
	resp = send(t, http.MethodGet, srv.URL+listapi.PathList, "", http.Header{"Origin": {"https://other.example"}})
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("disallowed origin received CORS header %q", got)
	}
}

func TestRouterOperationalEndpoints(t *testing.T) {
	srv := newServer(t, io.Discard)
	send(t, http.MethodPost, srv.URL+listapi.PathList, `{"action":"add","text":"Milk"}`, nil)

	resp := send(t, http.MethodGet, srv.URL+listapi.PathHealth, "", nil)
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Fatalf("unexpected health response %d %q", resp.StatusCode, body)
	}
	resp = send(t, http.MethodGet, srv.URL+listapi.PathMetric, "", nil)
	body, _ = io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `sharedlist_store_operations_total{operation="add_item",status="success"} 1`) {
		t.Fatalf("metrics missing add counter: %s", body)
	}
	resp = send(t, http.MethodGet, srv.URL+listapi.PathVars, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expvar endpoint status %d", resp.StatusCode)
	}
	resp = send(t, http.MethodGet, srv.URL+"/nope", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestRouterWithoutGathererHidesMetrics(t *testing.T) {
	router := listapi.NewRouter(listapi.NewHandler(core.NewInMemoryService(nil), nil), listapi.RouterOptions{})
	req := httptest.NewRequest(http.MethodGet, listapi.PathMetric, nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected metrics disabled, got %d", resp.Code)
	}
}
