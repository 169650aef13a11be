// Package historical retrieves historical commodity prices from the
// OilPriceAPI service. It picks the server-side window and request timeout
// from the date range, normalizes the several response layouts the API
// produces and walks paginated results eagerly or lazily.
package historical

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/oilprice/pkg/models"
)

// Service defaults.
const (
	DefaultMaxPages    = 1000
	DefaultConcurrency = 4
)

// Requester performs one HTTP call and returns the raw body.
// *client.Client satisfies it.
type Requester interface {
	Request(ctx context.Context, method, path string, query url.Values, timeout time.Duration) ([]byte, error)
}

// Service is the historical-data engine. It holds no per-call state and is
// safe for concurrent use.
type Service struct {
	requester   Requester
	paths       EndpointPaths
	normalizer  Normalizer
	maxPages    int
	concurrency int
	logger      arbor.ILogger
}

// Option configures the Service.
type Option func(*Service)

// WithEndpointPaths overrides the window routes.
func WithEndpointPaths(p EndpointPaths) Option {
	return func(s *Service) { s.paths = p }
}

// WithNormalizer overrides the record defaults.
func WithNormalizer(n Normalizer) Option {
	return func(s *Service) { s.normalizer = n }
}

// WithMaxPages caps the pages walked by GetAll and IterPages.
func WithMaxPages(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxPages = n
		}
	}
}

// WithConcurrency sets the default parallelism of GetAllMany.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService creates a Service issuing requests through r.
func NewService(r Requester, opts ...Option) *Service {
	s := &Service{
		requester:   r,
		paths:       DefaultEndpointPaths(),
		normalizer:  NewNormalizer(),
		maxPages:    DefaultMaxPages,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get fetches the single page q.Page of q.
func (s *Service) Get(ctx context.Context, q Query) (*models.HistoricalResult, error) {
	q = q.withDefaults()
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return s.fetchPage(ctx, q)
}

// GetAll fetches every page of q, starting at page 1 with the maximum page
// size, and returns the concatenated records.
func (s *Service) GetAll(ctx context.Context, q Query) ([]models.HistoricalPrice, error) {
	q.PerPage = MaxPerPage

	var all []models.HistoricalPrice
	it := s.IterPages(ctx, q)
	for it.Next() {
		all = append(all, it.Page()...)
	}
	if err := it.Err(); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Debug().
			Str("commodity", q.Commodity).
			Int("records", len(all)).
			Int("pages", it.Fetched()).
			Msg("Historical fetch complete")
	}
	return all, nil
}

// GetAllMany runs GetAll for each query with at most limit requests in
// flight. A limit <= 0 uses the configured concurrency. Results are keyed
// by commodity; the first failure cancels the remaining fetches.
func (s *Service) GetAllMany(ctx context.Context, queries []Query, limit int) (map[string][]models.HistoricalPrice, error) {
	if limit <= 0 {
		limit = s.concurrency
	}

	results := make([][]models.HistoricalPrice, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, q := range queries {
		g.Go(func() error {
			prices, err := s.GetAll(gctx, q)
			if err != nil {
				return fmt.Errorf("%s: %w", q.Commodity, err)
			}
			results[i] = prices
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string][]models.HistoricalPrice, len(queries))
	for i, q := range queries {
		out[q.Commodity] = append(out[q.Commodity], results[i]...)
	}
	return out, nil
}

// fetchPage selects the window and timeout for q, issues the request and
// normalizes the response. Transport errors are returned unchanged.
func (s *Service) fetchPage(ctx context.Context, q Query) (*models.HistoricalResult, error) {
	endpoint := SelectEndpoint(q.Range)
	timeout := ComputeTimeout(q.Range, q.Timeout)
	path := s.paths.Path(endpoint)

	raw, err := s.requester.Request(ctx, http.MethodGet, path, q.Params(), timeout)
	if err != nil {
		return nil, err
	}

	result := s.normalizer.Normalize(raw, q.Page, q.pageSize())

	if s.logger != nil {
		s.logger.Debug().
			Str("commodity", q.Commodity).
			Str("endpoint", endpoint.String()).
			Int("page", q.Page).
			Int("records", result.Len()).
			Bool("has_next", result.Meta.HasNext).
			Msg("Historical page fetched")
	}
	return result, nil
}
