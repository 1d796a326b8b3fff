// Package scheduler runs periodic ingest and broadcasts run reports.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/maguenza/hackernews-ai-project/internal/pipeline"
	"github.com/maguenza/hackernews-ai-project/pkg/alert"
)

// Config controls the scheduler's ingest cadence and discovery mode.
type Config struct {
	Interval       time.Duration
	BatchSize      int
	Discovery      string
	DiscoveryLimit int
	FrontPageFeed  string
}

// Scheduler runs the ingest pipeline on a fixed interval.
type Scheduler struct {
	pipe     *pipeline.Pipeline
	client   pipeline.Client
	alertMgr *alert.Manager
	log      *slog.Logger
	cfg      Config
}

// New creates a new scheduler.
func New(pipe *pipeline.Pipeline, client pipeline.Client, alertMgr *alert.Manager, log *slog.Logger, cfg Config) *Scheduler {
	if cfg.Interval == 0 {
		cfg.Interval = 15 * time.Minute
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 500
	}
	if cfg.Discovery == "" {
		cfg.Discovery = pipeline.DiscoveryIncremental
	}
	if cfg.DiscoveryLimit == 0 {
		cfg.DiscoveryLimit = 100
	}
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		pipe:     pipe,
		client:   client,
		alertMgr: alertMgr,
		log:      log,
		cfg:      cfg,
	}
}

// Run starts the scheduler loop. Blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	// Run immediately on start.
	s.log.Info("scheduler: initial ingest", "discovery", s.cfg.Discovery)
	s.ingestAndAlert(ctx)

	s.log.Info("scheduler: running", "interval", s.cfg.Interval)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler: stopped")
			return ctx.Err()
		case <-ticker.C:
			s.ingestAndAlert(ctx)
		}
	}
}

func (s *Scheduler) ingestAndAlert(ctx context.Context) {
	summary, err := s.ingestOnce(ctx)
	if err != nil {
		s.log.Error("scheduler: ingest failed", "err", err)
	}
	if summary == nil || !s.alertMgr.HasNotifiers() {
		return
	}

	n := &alert.Notification{
		Pipeline:    "ingest",
		State:       string(summary.State),
		Fetched:     summary.Fetched,
		Transformed: summary.Transformed,
		Loaded:      summary.Loaded,
		Skipped:     summary.Skipped,
		Failed:      summary.Failed,
		SkipReasons: summary.SkipReasons,
		Duration:    summary.FinishedAt.Sub(summary.StartedAt),
		Err:         summary.Err,
	}
	if err := s.alertMgr.Broadcast(ctx, n); err != nil {
		s.log.Warn("scheduler: alert delivery failed", "err", err)
	}
}

func (s *Scheduler) ingestOnce(ctx context.Context) (*pipeline.Summary, error) {
	if s.cfg.Discovery == pipeline.DiscoveryIncremental {
		return s.pipe.RunIncremental(ctx, s.cfg.BatchSize)
	}

	ids, err := pipeline.Discover(ctx, s.client, s.cfg.Discovery, s.cfg.DiscoveryLimit, s.cfg.FrontPageFeed)
	if err != nil {
		return nil, err
	}
	return s.pipe.RunIDs(ctx, ids)
}
