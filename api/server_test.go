package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/seenimoa/oilprice/internal/client"
	"github.com/seenimoa/oilprice/internal/config"
	"github.com/seenimoa/oilprice/internal/historical"
	"github.com/seenimoa/oilprice/internal/provider"
	"github.com/seenimoa/oilprice/internal/providers/oilprice"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

func priceRows(n int) string {
	rows := make([]string, n)
	for i := range rows {
		rows[i] = fmt.Sprintf(`{"created_at":"2024-01-%02dT00:00:00Z","code":"WTI_USD","price":%d}`, i+1, 70+i)
	}
	return "[" + strings.Join(rows, ",") + "]"
}

func upstreamBody(n int) string {
	return fmt.Sprintf(`{"status":"success","data":{"prices":%s}}`, priceRows(n))
}

// testServer returns a server whose oilprice provider talks to upstream.
func testServer(t *testing.T, upstream http.HandlerFunc) *Server {
	t.Helper()
	up := httptest.NewServer(upstream)
	t.Cleanup(up.Close)

	cfg := &config.Config{}
	cfg.API.BaseURL = up.URL
	cfg.API.Key = "test-key-123456"
	cfg.API.TimeoutSec = 5
	cfg.API.CacheTTL = 60
	cfg.Historical.MaxPages = 10
	cfg.Historical.Endpoints = config.EndpointsConfig{
		Day:   "/v1/prices/past_day",
		Week:  "/v1/prices/past_week",
		Month: "/v1/prices/past_month",
		Year:  "/v1/prices/past_year",
	}

	p := oilprice.New(*cfg, nil)
	if err := p.Init(map[string]string{"api_key": cfg.API.Key}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	reg := provider.NewRegistry()
	if err := reg.Register(p); err != nil {
		t.Fatalf("Register: %v", err)
	}
	return NewServer(cfg, reg, nil)
}

func get(t *testing.T, srv *Server, path string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	var resp APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return rec, resp
}

// ════════════════════════════════════════════════════════════════════
// Routes
// ════════════════════════════════════════════════════════════════════

func TestHealth(t *testing.T) {
	srv := testServer(t, func(w http.ResponseWriter, r *http.Request) {})
	for _, path := range []string{"/health", "/api/v1/health"} {
		rec, resp := get(t, srv, path)
		if rec.Code != http.StatusOK || !resp.Success {
			t.Errorf("%s: got %d %+v", path, rec.Code, resp)
		}
		if rec.Header().Get("Content-Type") != "application/json" {
			t.Errorf("%s: Content-Type %q", path, rec.Header().Get("Content-Type"))
		}
	}
}

func TestProvidersAndKeys(t *testing.T) {
	srv := testServer(t, func(w http.ResponseWriter, r *http.Request) {})

	rec, resp := get(t, srv, "/api/v1/providers")
	if rec.Code != http.StatusOK {
		t.Fatalf("providers: status %d", rec.Code)
	}
	list, ok := resp.Data.([]any)
	if !ok || len(list) != 1 {
		t.Fatalf("providers: got %#v", resp.Data)
	}

	rec, resp = get(t, srv, "/api/v1/config/keys")
	if rec.Code != http.StatusOK {
		t.Fatalf("keys: status %d", rec.Code)
	}
	if strings.Contains(fmt.Sprint(resp.Data), "test-key-123456") {
		t.Error("config/keys leaked the raw key")
	}
}

func TestHistorySinglePage(t *testing.T) {
	var path, perPage string
	srv := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		perPage = r.URL.Query().Get("per_page")
		fmt.Fprint(w, upstreamBody(3))
	})

	rec, resp := get(t, srv, "/api/v1/history/wti?start_date=2024-01-01&end_date=2024-01-05&per_page=10")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %+v", rec.Code, resp)
	}
	if path != "/v1/prices/past_week" {
		t.Errorf("upstream path: got %q, want past_week", path)
	}
	if perPage != "10" {
		t.Errorf("per_page: got %q, want 10", perPage)
	}

	res := resp.Data.(map[string]any)
	if res["model"] != string(provider.ModelCommodityHistorical) {
		t.Errorf("model: got %v", res["model"])
	}
	page := res["data"].(map[string]any)
	if n := len(page["data"].([]any)); n != 3 {
		t.Errorf("records: got %d, want 3", n)
	}
}

func TestHistoryAllAndSummary(t *testing.T) {
	var hits atomic.Int32
	srv := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, upstreamBody(4))
	})

	rec, resp := get(t, srv, "/api/v1/history/WTI_USD?all=true")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %+v", rec.Code, resp)
	}
	res := resp.Data.(map[string]any)
	if n := len(res["data"].([]any)); n != 4 {
		t.Errorf("records: got %d, want 4", n)
	}

	rec, resp = get(t, srv, "/api/v1/history/WTI_USD/summary")
	if rec.Code != http.StatusOK {
		t.Fatalf("summary status %d: %+v", rec.Code, resp)
	}
	sum := resp.Data.(map[string]any)
	if sum["commodity"] != "WTI_USD" {
		t.Errorf("commodity: got %v", sum["commodity"])
	}
	stats := sum["summary"].(map[string]any)
	if stats["count"].(float64) != 4 || stats["first"].(float64) != 70 || stats["last"].(float64) != 73 {
		t.Errorf("summary: got %v", stats)
	}
	// Same query served from the fetcher cache.
	if sum["cached"] != true {
		t.Errorf("expected cached summary, got %v", sum["cached"])
	}
	if hits.Load() != 1 {
		t.Errorf("upstream hits: got %d, want 1", hits.Load())
	}
}

func TestHistoryErrors(t *testing.T) {
	srv := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("by_code") == "MISSING" {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error":"commodity not found"}`)
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	})

	tests := []struct {
		name string
		path string
		want int
	}{
		{"bad date", "/api/v1/history/WTI_USD?start_date=yesterday", http.StatusBadRequest},
		{"bad page", "/api/v1/history/WTI_USD?page=abc", http.StatusBadRequest},
		{"unknown provider", "/api/v1/history/WTI_USD?provider=nope", http.StatusServiceUnavailable},
		{"upstream 404", "/api/v1/history/MISSING", http.StatusNotFound},
		{"upstream 5xx", "/api/v1/history/WTI_USD", http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := get(t, srv, tt.path)
			if rec.Code != tt.want {
				t.Errorf("status: got %d, want %d (%s)", rec.Code, tt.want, resp.Error)
			}
			if resp.Success || resp.Error == "" {
				t.Errorf("expected error envelope, got %+v", resp)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&provider.ErrMissingParam{Param: "commodity"}, http.StatusBadRequest},
		{&historical.QueryError{Err: errors.New("bad")}, http.StatusBadRequest},
		{&client.APIError{StatusCode: 429}, http.StatusTooManyRequests},
		{&client.APIError{StatusCode: 401}, http.StatusBadGateway},
		{&client.APIError{StatusCode: 422}, http.StatusBadRequest},
		{&client.TransportError{Timeout: true, Err: errors.New("deadline")}, http.StatusGatewayTimeout},
		{&historical.PaginationError{Commodity: "WTI_USD", MaxPages: 3}, http.StatusBadGateway},
		{fmt.Errorf("wrapped: %w", &provider.ErrModelNotSupported{}), http.StatusServiceUnavailable},
		{errors.New("other"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v): got %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestHistoryAllOutlastsRouteTimeout(t *testing.T) {
	var hits atomic.Int32
	srv := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		time.Sleep(700 * time.Millisecond)
		fmt.Fprintf(w, `{"data":{"prices":%s},"meta":{"has_next":%t}}`, priceRows(2), n == 1)
	})
	srv.cfg.Server.TimeoutSec = 1
	srv.router = srv.buildRouter()

	rec, resp := get(t, srv, "/api/v1/history/WTI_USD?all=true")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, resp.Error)
	}
	if n := len(resp.Data.(map[string]any)["data"].([]any)); n != 4 {
		t.Errorf("records: got %d, want 4", n)
	}
	if hits.Load() != 2 {
		t.Errorf("upstream hits: got %d, want 2", hits.Load())
	}
}

func TestRouteTimeout(t *testing.T) {
	srv := &Server{cfg: &config.Config{}}
	if got := srv.routeTimeout(); got != DefaultRouteTimeout {
		t.Errorf("default: got %v, want %v", got, DefaultRouteTimeout)
	}
	srv.cfg.Server.TimeoutSec = 5
	if got := srv.routeTimeout(); got != 5*time.Second {
		t.Errorf("configured: got %v, want 5s", got)
	}
}
