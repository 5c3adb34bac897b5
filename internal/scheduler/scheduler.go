// Package scheduler drives the recurring billing jobs: the monthly voucher
// generation run and the daily overdue sweep.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smallbiznis/feeledger/internal/clock"
	obsmetrics "github.com/smallbiznis/feeledger/internal/observability/metrics"
	voucherdomain "github.com/smallbiznis/feeledger/internal/voucher/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("scheduler: invalid configuration")

type Params struct {
	fx.In

	Log        *zap.Logger
	VoucherSvc voucherdomain.Service
	Clock      clock.Clock
	Config     Config              `optional:"true"`
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Scheduler struct {
	log        *zap.Logger
	cfg        Config
	clock      clock.Clock
	voucherSvc voucherdomain.Service
	obsMetrics *obsmetrics.Metrics

	lastGenPeriod string
	lastSweepDay  string
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.VoucherSvc == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:        p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:        p.Config.withDefaults(),
		clock:      p.Clock,
		voucherSvc: p.VoucherSvc,
		obsMetrics: p.ObsMetrics,
	}, nil
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		s.RunOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce evaluates both jobs against the current clock. Each job guards its
// own period, so a tick is always safe to run.
func (s *Scheduler) RunOnce(ctx context.Context) {
	now := s.clock.Now()
	s.runGeneration(ctx, now)
	s.runSweep(ctx, now)
}

func (s *Scheduler) runGeneration(parent context.Context, now time.Time) {
	if now.Day() < s.cfg.BillingDay {
		return
	}
	period := fmt.Sprintf("%04d-%02d", now.Year(), int(now.Month()))
	if s.lastGenPeriod == period {
		return
	}

	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	result, err := s.voucherSvc.IssueBatch(ctx, voucherdomain.BatchRequest{
		Month: int(now.Month()),
		Year:  now.Year(),
		Actor: "scheduler",
	})
	if err != nil {
		s.recordRun("generation", "error")
		s.log.Error("monthly voucher generation failed",
			zap.String("period", period),
			zap.Error(err),
		)
		return
	}

	// Idempotent voucher creation makes the whole run repeatable, so the
	// period marker is only an optimization, not a correctness guard.
	s.lastGenPeriod = period
	s.recordRun("generation", "ok")
	s.log.Info("monthly voucher generation finished",
		zap.String("period", period),
		zap.Int("created", result.Summary.Created),
		zap.Int("exists", result.Summary.Exists),
		zap.Int("no_fees", result.Summary.NoFees),
		zap.Int("errored", result.Summary.Errored),
	)
}

func (s *Scheduler) runSweep(parent context.Context, now time.Time) {
	day := now.Format("2006-01-02")
	if s.lastSweepDay == day {
		return
	}

	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	swept, err := s.voucherSvc.SweepOverdue(ctx, now)
	if err != nil {
		s.recordRun("overdue_sweep", "error")
		s.log.Error("overdue sweep failed", zap.Error(err))
		return
	}

	s.lastSweepDay = day
	s.recordRun("overdue_sweep", "ok")
	if swept > 0 {
		s.log.Info("overdue sweep finished", zap.Int64("swept", swept))
	}
}

func (s *Scheduler) recordRun(job, result string) {
	if s.obsMetrics != nil {
		s.obsMetrics.IncSchedulerRun(job, result)
	}
}
