package oilprice

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/seenimoa/oilprice/internal/client"
	"github.com/seenimoa/oilprice/internal/config"
	"github.com/seenimoa/oilprice/internal/historical"
	"github.com/seenimoa/oilprice/internal/provider"
	"github.com/seenimoa/oilprice/pkg/models"
)

func testConfig(baseURL string) config.Config {
	var cfg config.Config
	cfg.API.BaseURL = baseURL
	cfg.API.TimeoutSec = 5
	cfg.API.CacheTTL = 60
	cfg.Historical.MaxPages = 10
	cfg.Historical.Endpoints = config.EndpointsConfig{
		Day:   "/v1/prices/past_day",
		Week:  "/v1/prices/past_week",
		Month: "/v1/prices/past_month",
		Year:  "/v1/prices/past_year",
	}
	return cfg
}

// newTestProvider starts a server answering with handler and returns an
// initialized provider pointed at it.
func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p := New(testConfig(srv.URL), nil)
	if err := p.Init(map[string]string{"api_key": "test-key"}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return p
}

func pricesBody(n int, hasNext bool) string {
	rows := make([]string, n)
	for i := range rows {
		rows[i] = fmt.Sprintf(`{"created_at":"2024-01-%02dT00:00:00Z","code":"WTI_USD","price":"%d.5"}`, i%28+1, 70+i)
	}
	return fmt.Sprintf(`{"status":"success","data":{"prices":[%s]},"meta":{"has_next":%t}}`, strings.Join(rows, ","), hasNext)
}

func TestProviderInfo(t *testing.T) {
	p := New(config.Config{}, nil)
	info := p.Info()
	if info.Name != "oilprice" {
		t.Errorf("expected name oilprice, got %s", info.Name)
	}
	if len(info.Credentials) != 1 || !info.Credentials[0].Required {
		t.Fatalf("expected one required credential, got %+v", info.Credentials)
	}
	if info.Credentials[0].EnvVar != config.EnvAPIKey {
		t.Errorf("expected env var %s, got %s", config.EnvAPIKey, info.Credentials[0].EnvVar)
	}
	if len(p.SupportedModels()) != 2 {
		t.Errorf("expected 2 models, got %v", p.SupportedModels())
	}
}

func TestProviderInitMissingKey(t *testing.T) {
	p := New(config.Config{}, nil)
	err := p.Init(map[string]string{})
	var ic *provider.ErrInvalidCredentials
	if !errors.As(err, &ic) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if p.Service() != nil {
		t.Error("service should not be built without a key")
	}

	_, err = p.Fetcher(provider.ModelCommodityHistorical).Fetch(context.Background(), provider.QueryParams{provider.ParamCommodity: "WTI"})
	if !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
	if err := p.Ping(context.Background()); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Ping() = %v", err)
	}
}

func TestHistoricalFetcher(t *testing.T) {
	var hits atomic.Int32
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("Authorization") != "Token test-key" {
			t.Errorf("missing auth header: %q", r.Header.Get("Authorization"))
		}
		if r.URL.Path != "/v1/prices/past_week" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("by_code") != "WTI_USD" || q.Get("page") != "2" || q.Get("start_date") != "2024-01-01" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(pricesBody(3, false)))
	})

	params := provider.QueryParams{
		provider.ParamCommodity: "wti",
		provider.ParamStartDate: "2024-01-01",
		provider.ParamEndDate:   "2024-01-05",
		provider.ParamPage:      "2",
	}
	f := p.Fetcher(provider.ModelCommodityHistorical)
	res, err := f.Fetch(context.Background(), params)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	page, ok := res.Data.(*models.HistoricalResult)
	if !ok {
		t.Fatalf("expected *models.HistoricalResult, got %T", res.Data)
	}
	if page.Len() != 3 || page.Data[0].Value != 70.5 {
		t.Errorf("unexpected page: %+v", page.Data)
	}

	again, err := f.Fetch(context.Background(), params)
	if err != nil {
		t.Fatalf("Fetch (cached): %v", err)
	}
	if !again.Cached {
		t.Error("second fetch should come from cache")
	}
	if hits.Load() != 1 {
		t.Errorf("expected 1 request, got %d", hits.Load())
	}
}

func TestHistoricalAllFetcherThroughRegistry(t *testing.T) {
	var hits atomic.Int32
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		if r.URL.Query().Get("per_page") != "1000" {
			t.Errorf("expected per_page 1000, got %s", r.URL.Query().Get("per_page"))
		}
		_, _ = w.Write([]byte(pricesBody(5, n < 3)))
	})

	reg := provider.NewRegistry()
	if err := reg.Register(p); err != nil {
		t.Fatalf("Register: %v", err)
	}

	res, err := reg.Fetch(context.Background(), provider.ModelCommodityHistoricalAll, provider.QueryParams{
		provider.ParamCommodity: "WTI_USD",
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	prices, ok := res.Data.([]models.HistoricalPrice)
	if !ok {
		t.Fatalf("expected []models.HistoricalPrice, got %T", res.Data)
	}
	if len(prices) != 15 {
		t.Errorf("expected 15 records, got %d", len(prices))
	}
	if hits.Load() != 3 {
		t.Errorf("expected 3 requests, got %d", hits.Load())
	}
	if res.Provider != "oilprice" {
		t.Errorf("expected provider oilprice, got %s", res.Provider)
	}
}

func TestFetchInvalidDateFailsFast(t *testing.T) {
	var hits atomic.Int32
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) { hits.Add(1) })

	_, err := p.Fetcher(provider.ModelCommodityHistoricalAll).Fetch(context.Background(), provider.QueryParams{
		provider.ParamCommodity: "WTI_USD",
		provider.ParamStartDate: "01/02/2024",
	})
	var derr *historical.InvalidDateError
	if !errors.As(err, &derr) {
		t.Fatalf("expected InvalidDateError, got %v", err)
	}
	if hits.Load() != 0 {
		t.Error("no request should be made for an invalid date")
	}
}

func TestFetchPropagatesAPIError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Commodity not found"}`))
	})

	_, err := p.Fetcher(provider.ModelCommodityHistorical).Fetch(context.Background(), provider.QueryParams{
		provider.ParamCommodity: "UNOBTAINIUM_USD",
	})
	if !client.IsNotFound(err) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestQueryFromParams(t *testing.T) {
	q, err := queryFromParams(provider.QueryParams{
		provider.ParamCommodity: " brent ",
		provider.ParamInterval:  "weekly",
		provider.ParamType:      "futures",
		provider.ParamPerPage:   "250",
		provider.ParamTimeout:   "90s",
	})
	if err != nil {
		t.Fatalf("queryFromParams: %v", err)
	}
	if q.Commodity != "BRENT_CRUDE_USD" || q.Interval != "weekly" || q.Type != "futures" || q.PerPage != 250 {
		t.Errorf("unexpected query %+v", q)
	}
	if q.Timeout.Seconds() != 90 {
		t.Errorf("timeout = %v", q.Timeout)
	}

	if _, err := queryFromParams(provider.QueryParams{provider.ParamPage: "two"}); err == nil {
		t.Error("expected error for non-numeric page")
	}
}

func TestPing(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/prices/past_day" {
			t.Errorf("ping should use the day window, got %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(pricesBody(1, false)))
	})
	if err := p.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
