// Package oilprice implements the OilPriceAPI data provider. It serves
// historical commodity prices through the historical-data engine.
//
// Docs: https://docs.oilpriceapi.com
package oilprice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/seenimoa/oilprice/internal/client"
	"github.com/seenimoa/oilprice/internal/config"
	"github.com/seenimoa/oilprice/internal/historical"
	"github.com/seenimoa/oilprice/internal/infra"
	"github.com/seenimoa/oilprice/internal/provider"
)

const (
	providerName = "oilprice"
	credAPIKey   = "api_key"

	// pingCommodity is queried by Ping.
	pingCommodity = "WTI_USD"
)

// ErrNotInitialized is returned by fetchers of a provider whose Init has
// not succeeded.
var ErrNotInitialized = errors.New("oilprice provider not initialized")

// Provider implements provider.Provider for OilPriceAPI.
type Provider struct {
	provider.BaseProvider
	cfg    config.Config
	logger arbor.ILogger
	svc    *historical.Service
}

// New creates the provider and registers its fetchers. The engine is built
// by Init once the API key is known.
func New(cfg config.Config, logger arbor.ILogger) *Provider {
	p := &Provider{
		BaseProvider: provider.NewBaseProvider(
			providerName,
			"OilPriceAPI - real-time and historical commodity prices",
			"https://www.oilpriceapi.com",
			[]provider.ProviderCredential{
				{
					Name:        credAPIKey,
					Description: "OilPriceAPI token from oilpriceapi.com",
					Required:    true,
					EnvVar:      config.EnvAPIKey,
				},
			},
		),
		cfg:    cfg,
		logger: logger,
	}

	// Throttling happens per HTTP request in the client, so fetchers only cache.
	ttl := cfg.API.CacheDuration()
	p.RegisterFetcher(newHistoricalFetcher(p, ttl))
	p.RegisterFetcher(newHistoricalAllFetcher(p, ttl))

	return p
}

// Init stores the API key and builds the transport and engine.
func (p *Provider) Init(credentials map[string]string) error {
	if err := p.BaseProvider.Init(credentials); err != nil {
		return err
	}

	c, err := client.NewClient(credentials[credAPIKey],
		client.WithBaseURL(p.cfg.API.BaseURL),
		client.WithDefaultTimeout(p.cfg.API.Timeout()),
		client.WithUserAgent(p.cfg.API.UserAgent),
		client.WithRateLimiter(infra.NewRateLimiter(p.cfg.API.RateLimit)),
		client.WithLogger(p.logger),
	)
	if err != nil {
		return &provider.ErrInvalidCredentials{Provider: providerName, Detail: err.Error()}
	}

	p.svc = NewService(c, p.cfg, p.logger)
	return nil
}

// NewService builds a historical engine over r configured from cfg.
func NewService(r historical.Requester, cfg config.Config, logger arbor.ILogger) *historical.Service {
	ep := cfg.Historical.Endpoints
	return historical.NewService(r,
		historical.WithEndpointPaths(historical.EndpointPaths{
			Day:   ep.Day,
			Week:  ep.Week,
			Month: ep.Month,
			Year:  ep.Year,
		}),
		historical.WithMaxPages(cfg.Historical.MaxPages),
		historical.WithConcurrency(cfg.Historical.Concurrency),
		historical.WithLogger(logger),
	)
}

// Service returns the historical engine, or nil before Init.
func (p *Provider) Service() *historical.Service {
	return p.svc
}

// Ping fetches a single recent record to verify connectivity and the key.
func (p *Provider) Ping(ctx context.Context) error {
	if p.svc == nil {
		return ErrNotInitialized
	}
	now := time.Now().UTC()
	_, err := p.svc.Get(ctx, historical.Query{
		Commodity: pingCommodity,
		Range:     historical.DateRange{Start: now.AddDate(0, 0, -1), End: now},
		PerPage:   1,
	})
	if err != nil {
		return fmt.Errorf("oilprice ping: %w", err)
	}
	return nil
}
