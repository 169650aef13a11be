package oilprice

import (
	"context"
	"time"

	"github.com/seenimoa/oilprice/internal/historical"
	"github.com/seenimoa/oilprice/internal/provider"
	"github.com/seenimoa/oilprice/pkg/models"
	"github.com/seenimoa/oilprice/pkg/utils"
)

var historicalOptional = []string{
	provider.ParamStartDate,
	provider.ParamEndDate,
	provider.ParamInterval,
	provider.ParamType,
	provider.ParamPerPage,
	provider.ParamTimeout,
}

// --- CommodityHistorical ---

type historicalFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newHistoricalFetcher(p *Provider, ttl time.Duration) *historicalFetcher {
	return &historicalFetcher{
		BaseFetcher: provider.NewBaseFetcherWithOpts(
			provider.ModelCommodityHistorical,
			"One page of historical commodity prices",
			[]string{provider.ParamCommodity},
			append([]string{provider.ParamPage}, historicalOptional...),
			ttl, 0,
		),
		p: p,
	}
}

func (f *historicalFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	if f.p.svc == nil {
		return nil, ErrNotInitialized
	}
	q, err := queryFromParams(params)
	if err != nil {
		return nil, err
	}

	key := provider.CacheKey(f.ModelType(), params)
	if cached, ok := f.CacheGet(key); ok {
		return newCachedResult(cached), nil
	}
	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}

	res, err := f.p.svc.Get(ctx, q)
	if err != nil {
		return nil, err
	}
	f.CacheSet(key, res)
	return newResult(res), nil
}

// --- CommodityHistoricalAll ---

type historicalAllFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newHistoricalAllFetcher(p *Provider, ttl time.Duration) *historicalAllFetcher {
	return &historicalAllFetcher{
		BaseFetcher: provider.NewBaseFetcherWithOpts(
			provider.ModelCommodityHistoricalAll,
			"Every page of historical commodity prices",
			[]string{provider.ParamCommodity},
			historicalOptional,
			ttl, 0,
		),
		p: p,
	}
}

func (f *historicalAllFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	if f.p.svc == nil {
		return nil, ErrNotInitialized
	}
	q, err := queryFromParams(params)
	if err != nil {
		return nil, err
	}

	key := provider.CacheKey(f.ModelType(), params)
	if cached, ok := f.CacheGet(key); ok {
		return newCachedResult(cached), nil
	}
	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}

	prices, err := f.p.svc.GetAll(ctx, q)
	if err != nil {
		return nil, err
	}
	if prices == nil {
		prices = []models.HistoricalPrice{}
	}
	f.CacheSet(key, prices)
	return newResult(prices), nil
}

// --- helpers ---

// queryFromParams converts fetcher params into an engine query. Date
// errors surface before any request is made.
func queryFromParams(params provider.QueryParams) (historical.Query, error) {
	r, err := historical.ParseRange(params[provider.ParamStartDate], params[provider.ParamEndDate])
	if err != nil {
		return historical.Query{}, err
	}
	page, err := params.Int(provider.ParamPage)
	if err != nil {
		return historical.Query{}, err
	}
	perPage, err := params.Int(provider.ParamPerPage)
	if err != nil {
		return historical.Query{}, err
	}
	timeout, err := params.Duration(provider.ParamTimeout)
	if err != nil {
		return historical.Query{}, err
	}

	return historical.Query{
		Commodity: utils.NormalizeCommodity(params[provider.ParamCommodity]),
		Range:     r,
		Interval:  params[provider.ParamInterval],
		Type:      params[provider.ParamType],
		Page:      page,
		PerPage:   perPage,
		Timeout:   timeout,
	}, nil
}

func newResult(data any) *provider.FetchResult {
	return &provider.FetchResult{Data: data, FetchedAt: time.Now()}
}

func newCachedResult(data any) *provider.FetchResult {
	return &provider.FetchResult{Data: data, FetchedAt: time.Now(), Cached: true}
}
