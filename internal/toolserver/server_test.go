package toolserver_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"filmscout/internal/config"
	"filmscout/internal/health"
	"filmscout/internal/logging"
	"filmscout/internal/mcpserver"
	"filmscout/internal/metrics"
	"filmscout/internal/services"
	"filmscout/internal/testsupport"
	"filmscout/internal/tmdb"
	"filmscout/internal/tools"
	"filmscout/internal/toolserver"
)

type harness struct {
	catalog *testsupport.Catalog
	health  *health.Recorder
	url     string
}

func newHarness(t *testing.T, opts ...testsupport.ConfigOption) *harness {
	t.Helper()
	catalog := testsupport.NewCatalog(t)
	cfg := testsupport.NewConfig(t, append([]testsupport.ConfigOption{testsupport.WithCatalog(catalog)}, opts...)...)
	return startHarness(t, cfg, catalog)
}

func startHarness(t *testing.T, cfg *config.Config, catalog *testsupport.Catalog) *harness {
	t.Helper()
	m := metrics.New(false)
	client, err := tmdb.NewFromConfig(cfg, tmdb.WithObserver(m))
	if err != nil {
		t.Fatalf("tmdb.NewFromConfig: %v", err)
	}
	t.Cleanup(client.Close)

	recorder := health.NewRecorder()
	service := tools.New(client, tools.WithRecorder(recorder), tools.WithRecorder(m))
	srv, err := toolserver.New(cfg, toolserver.Dependencies{
		Tools:   service,
		Health:  recorder,
		Metrics: m.Handler(),
		MCP:     mcpserver.New(service, logging.NewNop()),
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("toolserver.New: %v", err)
	}
	httpServer := httptest.NewServer(srv.Handler())
	t.Cleanup(httpServer.Close)
	return &harness{catalog: catalog, health: recorder, url: httpServer.URL}
}

func (h *harness) do(t *testing.T, method, path, body string, header http.Header) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), method, h.url+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	for key, values := range header {
		req.Header[key] = values
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, payload
}

func decodeEnvelope(t *testing.T, body []byte) tools.ToolError {
	t.Helper()
	var envelope tools.ToolError
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("decode envelope %s: %v", body, err)
	}
	return envelope
}

func TestSearchTitleEndpoint(t *testing.T) {
	h := newHarness(t)
	h.catalog.JSON("/search/movie", `{"page":1,"results":[{"id":27205,"title":"Inception","release_date":"2010-07-16","vote_average":8.4}]}`)

	resp, body := h.do(t, http.MethodPost, "/tools/search_title", `{"query":"Inception"}`, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d body=%s", resp.StatusCode, body)
	}
	var payload struct {
		Results []tools.NormalizedTitle `json:"results"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Results) != 1 || payload.Results[0].Year == nil || *payload.Results[0].Year != 2010 {
		t.Fatalf("unexpected results %s", body)
	}
	if resp.Header.Get(toolserver.RequestIDHeader) == "" {
		t.Fatal("expected a generated request id")
	}
}

func TestDetailsEndpointUsesResultKey(t *testing.T) {
	h := newHarness(t)
	h.catalog.JSON("/movie/27205", `{"id":27205,"title":"Inception","genres":[{"id":28,"name":"Action"}]}`)

	resp, body := h.do(t, http.MethodPost, "/tools/get_details", `{"id":27205,"type":"movie"}`, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d body=%s", resp.StatusCode, body)
	}
	var payload struct {
		Result tools.NormalizedDetails `json:"result"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Result.Title != "Inception" || payload.Result.Overview != "No overview available" {
		t.Fatalf("unexpected details %s", body)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		kind   string
	}{
		{name: "validation", path: "/tools/get_details", body: `{"id":1,"type":"book"}`, status: http.StatusBadRequest, kind: "ValidationError"},
		{name: "malformed json", path: "/tools/search_title", body: `{"query":`, status: http.StatusBadRequest, kind: "ValidationError"},
		{name: "not found", path: "/tools/get_details", body: `{"id":999999,"type":"movie"}`, status: http.StatusNotFound, kind: "NotFound"},
		{name: "unknown tool", path: "/tools/summarize", body: `{}`, status: http.StatusNotFound, kind: "NotFound"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := h.do(t, http.MethodPost, tc.path, tc.body, nil)
			if resp.StatusCode != tc.status {
				t.Fatalf("status = %d, want %d (body=%s)", resp.StatusCode, tc.status, body)
			}
			if envelope := decodeEnvelope(t, body); string(envelope.Kind) != tc.kind || envelope.Message == "" {
				t.Fatalf("unexpected envelope %+v", envelope)
			}
		})
	}
}

func TestToolEndpointRejectsGet(t *testing.T) {
	h := newHarness(t)
	resp, _ := h.do(t, http.MethodGet, "/tools/search_title", "", nil)
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestBearerTokenGuardsTools(t *testing.T) {
	h := newHarness(t, testsupport.WithServerToken("s3cret"))
	h.catalog.JSON("/search/movie", `{"page":1,"results":[]}`)

	resp, _ := h.do(t, http.MethodPost, "/tools/search_title", `{"query":"x"}`, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("missing token status = %d", resp.StatusCode)
	}
	resp, body := h.do(t, http.MethodPost, "/tools/search_title", `{"query":"x"}`, http.Header{"Authorization": {"Bearer wrong"}})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong token status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unauthorized content type = %q", ct)
	}
	if got := resp.Header.Get("WWW-Authenticate"); got != "Bearer" {
		t.Fatalf("WWW-Authenticate = %q", got)
	}
	if envelope := decodeEnvelope(t, body); envelope.Kind != services.KindUnauthorized || envelope.Message == "" {
		t.Fatalf("unexpected unauthorized envelope %+v", envelope)
	}
	if strings.Contains(string(body), "s3cret") {
		t.Fatalf("unauthorized body leaks the token: %s", body)
	}
	resp, _ = h.do(t, http.MethodPost, "/tools/search_title", `{"query":"x"}`, http.Header{"Authorization": {"Bearer s3cret"}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("valid token status = %d", resp.StatusCode)
	}
	resp, _ = h.do(t, http.MethodPost, "/mcp", `{}`, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("mcp without token status = %d", resp.StatusCode)
	}
	resp, _ = h.do(t, http.MethodGet, "/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health should stay open, status = %d", resp.StatusCode)
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	h := newHarness(t)
	resp, _ := h.do(t, http.MethodGet, "/health", "", http.Header{toolserver.RequestIDHeader: {"req-123"}})
	if got := resp.Header.Get(toolserver.RequestIDHeader); got != "req-123" {
		t.Fatalf("request id = %q", got)
	}
}

func TestHealthEndpoints(t *testing.T) {
	h := newHarness(t)
	h.catalog.JSON("/search/movie", `{"page":1,"results":[]}`)
	h.do(t, http.MethodPost, "/tools/search_title", `{"query":"Inception"}`, nil)
	h.do(t, http.MethodPost, "/tools/get_details", `{"id":42,"type":"movie"}`, nil)

	resp, body := h.do(t, http.MethodGet, "/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var snap health.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Status != "healthy" || snap.ToolCalls["search_title"].SuccessRate != 1 || snap.ToolCalls["get_details"].SuccessRate != 0 {
		t.Fatalf("unexpected snapshot %s", body)
	}
	if snap.ErrorCount != 1 || len(snap.RecentErrors) != 1 || snap.RecentErrors[0].Type != "NotFound" {
		t.Fatalf("unexpected errors %s", body)
	}

	resp, body = h.do(t, http.MethodGet, "/health/metrics", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var raw health.Raw
	if err := json.Unmarshal(body, &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if raw.ToolCalls["get_details"].ErrorCount != 1 || len(raw.Errors) != 1 {
		t.Fatalf("unexpected raw stats %s", body)
	}
}

func TestPrometheusEndpoint(t *testing.T) {
	h := newHarness(t)
	h.catalog.JSON("/search/movie", `{"page":1,"results":[]}`)
	h.do(t, http.MethodPost, "/tools/search_title", `{"query":"Inception"}`, nil)

	resp, body := h.do(t, http.MethodGet, "/metrics", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	text := string(body)
	for _, want := range []string{
		`filmscout_tool_calls_total{status="success",tool="search_title"} 1`,
		`filmscout_catalog_requests_total{code="200",route="/search/movie"} 1`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
	if strings.Contains(text, testsupport.CatalogAPIKey) {
		t.Fatal("credential leaked into metrics")
	}
}

func TestRootListsEndpoints(t *testing.T) {
	h := newHarness(t)
	resp, body := h.do(t, http.MethodGet, "/", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var payload struct {
		Service   string            `json:"service"`
		Endpoints map[string]string `json:"endpoints"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Endpoints["discover"] != "POST /tools/discover" || payload.Endpoints["mcp"] != "/mcp" {
		t.Fatalf("unexpected endpoints %v", payload.Endpoints)
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, err := toolserver.New(cfg, toolserver.Dependencies{}, nil); err == nil {
		t.Fatal("expected error without tools and health")
	}
}
