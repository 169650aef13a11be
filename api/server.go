// Package api provides the HTTP REST API server for oilprice.
//
// It exposes historical commodity prices fetched through the provider
// registry, a per-commodity summary and the provider/key status.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/ternarybob/arbor"

	"github.com/seenimoa/oilprice/internal/analysis"
	"github.com/seenimoa/oilprice/internal/client"
	"github.com/seenimoa/oilprice/internal/config"
	"github.com/seenimoa/oilprice/internal/historical"
	"github.com/seenimoa/oilprice/internal/provider"
	"github.com/seenimoa/oilprice/pkg/models"
	"github.com/seenimoa/oilprice/pkg/utils"
)

// DefaultRouteTimeout applies when server.timeout_sec is unset.
const DefaultRouteTimeout = 30 * time.Second

// Server is the HTTP API server.
type Server struct {
	router   chi.Router
	cfg      *config.Config
	registry *provider.Registry
	logger   arbor.ILogger
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config, reg *provider.Registry, logger arbor.ILogger) *Server {
	s := &Server{cfg: cfg, registry: reg, logger: logger}
	s.router = s.buildRouter()
	return s
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 60 * time.Second,
		// No WriteTimeout: a history walk is bounded per page by the engine
		// timeouts and in length by historical.max_pages.
	}

	errc := make(chan error, 1)
	go func() {
		if s.logger != nil {
			s.logger.Info().Str("addr", addr).Msg("API server listening")
		}
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	if s.logger != nil {
		s.logger.Info().Msg("Shutting down API server")
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	origins := []string{"*"}
	if len(s.cfg.Server.CORSOrigins) > 0 {
		origins = s.cfg.Server.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	timeout := s.routeTimeout()
	r.With(middleware.Timeout(timeout)).Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(timeout))
			r.Get("/health", s.handleHealth)
			r.Get("/providers", s.handleProviders)
			r.Get("/config/keys", s.handleConfigKeys)
		})

		// History walks run as many pages as the engine allows, each under
		// its own timeout, so they carry no route deadline.
		r.Get("/history/{commodity}", s.handleHistory)
		r.Get("/history/{commodity}/summary", s.handleSummary)
	})

	return r
}

// routeTimeout is the deadline of the non-history routes.
func (s *Server) routeTimeout() time.Duration {
	if s.cfg.Server.TimeoutSec > 0 {
		return time.Duration(s.cfg.Server.TimeoutSec) * time.Second
	}
	return DefaultRouteTimeout
}

// requestLogger logs each request at debug level once it completes.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.logger == nil {
			next.ServeHTTP(w, r)
			return
		}
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("elapsed", time.Since(start).String()).
			Msg("HTTP request")
	})
}

// APIResponse is the envelope of every response.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SummaryResponse is the body of GET /api/v1/history/{commodity}/summary.
type SummaryResponse struct {
	Commodity string           `json:"commodity"`
	Summary   analysis.Summary `json:"summary"`
	SMA       map[int]float64  `json:"sma"`
	Cached    bool             `json:"cached"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]any{
			"status":    "ok",
			"client":    "oilprice-go/" + client.Version,
			"providers": len(s.registry.List()),
			"time":      time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: s.registry.List()})
}

func (s *Server) handleConfigKeys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: config.CheckAPIKeys(s.cfg)})
}

// handleHistory serves one page of prices, or every page with all=true.
// Query parameters mirror the provider params: start_date, end_date,
// interval, type, page, per_page, timeout.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	model := provider.ModelCommodityHistorical
	if all := r.URL.Query().Get("all"); all == "true" || all == "1" {
		model = provider.ModelCommodityHistoricalAll
	}

	res, err := s.registry.Fetch(r.Context(), model, historyParams(r))
	if err != nil {
		s.writeFetchError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: res})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	params := historyParams(r)
	res, err := s.registry.Fetch(r.Context(), provider.ModelCommodityHistoricalAll, params)
	if err != nil {
		s.writeFetchError(w, r, err)
		return
	}
	prices, ok := res.Data.([]models.HistoricalPrice)
	if !ok {
		writeError(w, http.StatusInternalServerError, "unexpected data type")
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: SummaryResponse{
			Commodity: params[provider.ParamCommodity],
			Summary:   analysis.Summarize(prices),
			SMA:       analysis.MultiSMA(analysis.Values(prices), analysis.StandardPeriods),
			Cached:    res.Cached,
		},
	})
}

func historyParams(r *http.Request) provider.QueryParams {
	q := r.URL.Query()
	params := provider.QueryParams{
		provider.ParamCommodity: utils.NormalizeCommodity(chi.URLParam(r, "commodity")),
	}
	for _, key := range []string{
		provider.ParamStartDate, provider.ParamEndDate, provider.ParamInterval, provider.ParamType,
		provider.ParamPage, provider.ParamPerPage, provider.ParamTimeout, provider.ParamProvider,
	} {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			params[key] = v
		}
	}
	return params
}

func (s *Server) writeFetchError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if s.logger != nil && status >= http.StatusInternalServerError {
		s.logger.Warn().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("Fetch failed")
	}
	writeError(w, status, err.Error())
}

// statusFor maps a fetch error to the HTTP status returned to the caller.
func statusFor(err error) int {
	var (
		missing     *provider.ErrMissingParam
		invalid     *provider.ErrInvalidParam
		badDate     *historical.InvalidDateError
		badQuery    *historical.QueryError
		notFound    *provider.ErrProviderNotFound
		unsupported *provider.ErrModelNotSupported
		apiErr      *client.APIError
	)
	switch {
	case errors.As(err, &missing), errors.As(err, &invalid), errors.As(err, &badDate), errors.As(err, &badQuery):
		return http.StatusBadRequest
	case errors.As(err, &notFound), errors.As(err, &unsupported):
		return http.StatusServiceUnavailable
	case client.IsTimeout(err), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &apiErr):
		switch apiErr.Kind() {
		case client.KindNotFound:
			return http.StatusNotFound
		case client.KindRateLimit:
			return http.StatusTooManyRequests
		case client.KindClient:
			return http.StatusBadRequest
		default:
			return http.StatusBadGateway
		}
	case errors.Is(err, historical.ErrPaginationNotTerminated):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are sent; an encode failure can only be a broken connection.
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
