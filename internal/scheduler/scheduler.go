package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/rental/internal/config"
	"github.com/mamadbah2/rental/internal/domain/models"
	"github.com/mamadbah2/rental/internal/metrics"
	"github.com/mamadbah2/rental/internal/repository"
	"github.com/mamadbah2/rental/internal/service/analytics"
	"github.com/mamadbah2/rental/internal/service/ledger"
	"github.com/mamadbah2/rental/internal/service/notify"
)

const (
	jobRent   = "rent_generation"
	jobDigest = "owner_digest"

	jobTimeout = 2 * time.Minute
	lockTTL    = 6 * time.Hour
)

// RentGenerator creates the rent records of a period for every property.
type RentGenerator interface {
	GenerateAll(ctx context.Context, period string, due time.Time) ([]ledger.Result, error)
}

// Summarizer computes an owner's summary for a period.
type Summarizer interface {
	Summary(ctx context.Context, caller models.Identity, period string) (*analytics.Summary, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron       *cron.Cron
	cfg        config.RentConfig
	location   *time.Location
	rent       RentGenerator
	summaries  Summarizer
	properties repository.Properties
	notifier   notify.Notifier
	lock       RunLock
	metrics    *metrics.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// NewScheduler creates a new scheduler instance running in cfg.Timezone.
func NewScheduler(
	cfg config.RentConfig,
	rent RentGenerator,
	summaries Summarizer,
	properties repository.Properties,
	notifier notify.Notifier,
	lock RunLock,
	m *metrics.Metrics,
	logger *zap.Logger,
) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if lock == nil {
		lock = NewLocalLock()
	}
	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", cfg.Timezone, err)
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(location)),
		cfg:        cfg,
		location:   location,
		rent:       rent,
		summaries:  summaries,
		properties: properties,
		notifier:   notifier,
		lock:       lock,
		metrics:    metrics.OrNew(m),
		logger:     logger,
		now:        time.Now,
	}, nil
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler",
		zap.String("rent_schedule", s.cfg.CronSchedule),
		zap.String("digest_schedule", s.cfg.DigestSchedule),
		zap.String("timezone", s.location.String()),
	)

	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, func() { s.run(jobRent, s.RunMonthlyRent) }); err != nil {
		return fmt.Errorf("schedule rent generation: %w", err)
	}
	if s.cfg.DigestSchedule != "" {
		if _, err := s.cron.AddFunc(s.cfg.DigestSchedule, func() { s.run(jobDigest, s.SendOwnerDigests) }); err != nil {
			return fmt.Errorf("schedule owner digest: %w", err)
		}
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) run(job string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		s.metrics.SchedulerRuns.WithLabelValues(job, "error").Inc()
		s.logger.Error("scheduled job failed", zap.String("job", job), zap.Error(err))
		return
	}
	s.metrics.SchedulerRuns.WithLabelValues(job, "ok").Inc()
}

// claim reports whether this replica should run job for period. A lock backend
// error does not block the run; both jobs are safe to repeat.
func (s *Scheduler) claim(ctx context.Context, job, period string) bool {
	ok, err := s.lock.Acquire(ctx, job+":"+period, lockTTL)
	if err != nil {
		s.logger.Warn("run lock unavailable, running anyway", zap.String("job", job), zap.Error(err))
		return true
	}
	if !ok {
		s.logger.Info("job already claimed", zap.String("job", job), zap.String("period", period))
		s.metrics.SchedulerRuns.WithLabelValues(job, "skipped").Inc()
	}
	return ok
}

// RunMonthlyRent generates the current month's rent for every property.
func (s *Scheduler) RunMonthlyRent(ctx context.Context) error {
	period, due := ledger.PeriodFor(s.now().In(s.location), s.cfg.DueDay)
	if !s.claim(ctx, jobRent, period) {
		return nil
	}

	s.logger.Info("generating monthly rent", zap.String("period", period))
	results, err := s.rent.GenerateAll(ctx, period, due)
	if err != nil {
		return err
	}

	var created, skipped, failed int
	for _, r := range results {
		created += r.Created
		skipped += r.Skipped
		failed += len(r.Failed)
	}
	s.logger.Info("monthly rent generated",
		zap.String("period", period),
		zap.Int("properties", len(results)),
		zap.Int("created", created),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
	)
	return nil
}

// SendOwnerDigests notifies every owner with a summary of the previous month.
func (s *Scheduler) SendOwnerDigests(ctx context.Context) error {
	now := s.now().In(s.location)
	period := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.location).AddDate(0, -1, 0).Format(models.PeriodLayout)
	if !s.claim(ctx, jobDigest, period) {
		return nil
	}

	properties, err := s.properties.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list properties: %w", err)
	}

	seen := map[string]bool{}
	for _, p := range properties {
		if seen[p.OwnerID] {
			continue
		}
		seen[p.OwnerID] = true

		owner := models.Identity{UID: p.OwnerID, Role: models.RoleOwner}
		summary, err := s.summaries.Summary(ctx, owner, period)
		if err != nil {
			s.logger.Warn("owner digest skipped", zap.String("owner_id", p.OwnerID), zap.Error(err))
			continue
		}
		s.notifier.NotifyUser(ctx, p.OwnerID, models.Notification{
			Title: "Summary for " + period,
			Body:  analytics.Digest(summary),
			Data:  map[string]string{"type": "owner_digest", "month": period},
		})
	}
	s.logger.Info("owner digests queued", zap.String("period", period), zap.Int("owners", len(seen)))
	return nil
}
