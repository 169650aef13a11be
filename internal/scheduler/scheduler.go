// Package scheduler runs historical collection on a cron schedule and
// exports each run's results.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/seenimoa/oilprice/internal/config"
	"github.com/seenimoa/oilprice/internal/export"
	"github.com/seenimoa/oilprice/internal/historical"
	"github.com/seenimoa/oilprice/pkg/models"
)

// Fetcher fetches every page of several queries. *historical.Service
// implements it.
type Fetcher interface {
	GetAllMany(ctx context.Context, queries []historical.Query, limit int) (map[string][]models.HistoricalPrice, error)
}

// Scheduler collects a trailing window of prices for a fixed commodity
// list on every cron tick.
type Scheduler struct {
	cron        *cron.Cron
	fetcher     Fetcher
	saver       export.Saver
	dir         string
	cfg         config.ScheduleConfig
	concurrency int
	logger      arbor.ILogger
	now         func() time.Time
	ctx         context.Context
}

// New creates a Scheduler writing to dir with saver. ctx bounds every
// scheduled run.
func New(ctx context.Context, f Fetcher, saver export.Saver, dir string, cfg config.ScheduleConfig, concurrency int, logger arbor.ILogger) (*Scheduler, error) {
	if saver == nil {
		return nil, errors.New("scheduler: nil saver")
	}
	if len(cfg.Commodities) == 0 {
		return nil, errors.New("scheduler: no commodities configured")
	}
	if cfg.Days <= 0 {
		return nil, fmt.Errorf("scheduler: days must be positive, got %d", cfg.Days)
	}
	return &Scheduler{
		cron:        cron.New(cron.WithSeconds()),
		fetcher:     f,
		saver:       saver,
		dir:         dir,
		cfg:         cfg,
		concurrency: concurrency,
		logger:      logger,
		now:         time.Now,
		ctx:         ctx,
	}, nil
}

// Register adds the collection job for the configured cron spec.
func (s *Scheduler) Register() error {
	if _, err := s.cron.AddFunc(s.cfg.Cron, s.tick); err != nil {
		return fmt.Errorf("register collect task %q: %w", s.cfg.Cron, err)
	}
	return nil
}

// Next returns the time of the next scheduled run, or zero before Register.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	if !entries[0].Next.IsZero() {
		return entries[0].Next
	}
	return entries[0].Schedule.Next(s.now())
}

// Start starts the cron loop in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	if s.logger != nil {
		s.logger.Info().Str("cron", s.cfg.Cron).Strs("commodities", s.cfg.Commodities).Msg("Scheduler started")
	}
}

// Stop stops the cron loop and waits for a running collection to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	if s.logger != nil {
		s.logger.Info().Msg("Scheduler stopped")
	}
}

// RunNow performs one collection immediately and returns the written paths
// keyed by commodity.
func (s *Scheduler) RunNow(ctx context.Context) (map[string]string, error) {
	end := s.now().UTC()
	r := historical.DateRange{Start: end.AddDate(0, 0, -s.cfg.Days), End: end}

	queries := make([]historical.Query, len(s.cfg.Commodities))
	for i, c := range s.cfg.Commodities {
		queries[i] = historical.Query{Commodity: c, Range: r}
	}

	results, err := s.fetcher.GetAllMany(ctx, queries, s.concurrency)
	if err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}

	paths := make(map[string]string, len(results))
	for _, c := range s.cfg.Commodities {
		path := export.FilePath(s.dir, c, s.saver)
		if err := export.Write(s.saver, results[c], path); err != nil {
			return paths, err
		}
		paths[c] = path
		if s.logger != nil {
			s.logger.Info().Str("commodity", c).Int("records", len(results[c])).Str("path", path).Msg("Collected prices")
		}
	}
	return paths, nil
}

func (s *Scheduler) tick() {
	if _, err := s.RunNow(s.ctx); err != nil && s.logger != nil {
		s.logger.Error().Err(err).Msg("Scheduled collection failed")
	}
}
