// Package workers runs the periodic background jobs: referral reward retries,
// wallet reconciliation and expired token cleanup.
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/fastprodman/shopledger/internal/config"
	"github.com/fastprodman/shopledger/internal/repos/wallets"
	"github.com/fastprodman/shopledger/internal/services/referral"
)

type RewardRetrier interface {
	RetryPending(ctx context.Context, maxAttempts, batch int) (referral.RetryReport, error)
}

type Reconciler interface {
	Reconcile(ctx context.Context) ([]wallets.Drift, error)
}

type TokenPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Jobs holds the job bodies. Each method runs one pass.
type Jobs struct {
	Rewards    RewardRetrier
	Reconciler Reconciler
	Tokens     TokenPurger
	Config     config.WorkerConfig
}

func (j Jobs) RetryRewards(ctx context.Context) error {
	report, err := j.Rewards.RetryPending(ctx, j.Config.RewardMaxAttempts, j.Config.RewardRetryBatch)
	if err != nil {
		return fmt.Errorf("retry rewards: %w", err)
	}

	if report.Issued+report.Failed > 0 {
		slog.InfoContext(ctx, "referral reward retry finished",
			"issued", report.Issued,
			"failed", report.Failed,
		)
	}

	return nil
}

func (j Jobs) Reconcile(ctx context.Context) error {
	fixed, err := j.Reconciler.Reconcile(ctx)
	if err != nil {
		return fmt.Errorf("reconcile wallets: %w", err)
	}

	slog.InfoContext(ctx, "wallet reconciliation finished", "corrected", len(fixed))

	return nil
}

func (j Jobs) PurgeTokens(ctx context.Context) error {
	n, err := j.Tokens.PurgeExpired(ctx)
	if err != nil {
		return fmt.Errorf("purge tokens: %w", err)
	}

	slog.InfoContext(ctx, "expired tokens purged", "deleted", n)

	return nil
}

// Scheduler wraps a gocron scheduler. Jobs run in singleton mode; a run that
// is still busy makes the next tick skip.
type Scheduler struct {
	sched   gocron.Scheduler
	cancel  context.CancelFunc
	timeout time.Duration
}

// NewScheduler registers every job of j. Runs derive their context from ctx.
func NewScheduler(ctx context.Context, j Jobs) (*Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("new scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Scheduler{sched: sched, cancel: cancel, timeout: j.Config.JobTimeout}

	defs := []struct {
		name  string
		every time.Duration
		run   func(context.Context) error
	}{
		{name: "referral-reward-retry", every: j.Config.RewardRetryInterval, run: j.RetryRewards},
		{name: "wallet-reconcile", every: j.Config.ReconcileInterval, run: j.Reconcile},
		{name: "token-cleanup", every: j.Config.TokenCleanupInterval, run: j.PurgeTokens},
	}

	for _, d := range defs {
		if d.every <= 0 {
			slog.Warn("job disabled", "job", d.name)
			continue
		}

		_, err = sched.NewJob(
			gocron.DurationJob(d.every),
			gocron.NewTask(s.runner(ctx, d.name, d.run)),
			gocron.WithName(d.name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			cancel()
			_ = sched.Shutdown()

			return nil, fmt.Errorf("schedule %s: %w", d.name, err)
		}
	}

	return s, nil
}

func (s *Scheduler) runner(ctx context.Context, name string, run func(context.Context) error) func() {
	return func() {
		runCtx := ctx
		if s.timeout > 0 {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}

		start := time.Now()

		err := run(runCtx)
		if err != nil {
			slog.ErrorContext(runCtx, "job failed", "job", name, "error", err, "took", time.Since(start))
		}
	}
}

func (s *Scheduler) Start() {
	s.sched.Start()
	slog.Info("workers started", "jobs", len(s.sched.Jobs()))
}

// Shutdown cancels running jobs and waits for them to return.
func (s *Scheduler) Shutdown(context.Context) error {
	s.cancel()

	err := s.sched.Shutdown()
	if err != nil {
		return fmt.Errorf("scheduler shutdown: %w", err)
	}

	return nil
}
