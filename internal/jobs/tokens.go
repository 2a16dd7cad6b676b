// Package jobs runs scheduled maintenance work.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// TokenStore is the slice of the store the pruner needs.
type TokenStore interface {
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

// PruneRecorder is notified of how many tokens each run removed.
type PruneRecorder interface {
	TokensPruned(n int64)
}

// TokenPruner deletes expired access tokens on a cron schedule.
type TokenPruner struct {
	store    TokenStore
	schedule string
	recorder PruneRecorder
	logger   *slog.Logger
	now      func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

// NewTokenPruner creates a pruner; schedule is a standard cron spec or a
// descriptor such as "@hourly".
func NewTokenPruner(store TokenStore, schedule string, recorder PruneRecorder, logger *slog.Logger) (*TokenPruner, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid token prune schedule %q: %w", schedule, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenPruner{
		store:    store,
		schedule: schedule,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Start begins running on the schedule. Calling Start twice is a no-op.
func (p *TokenPruner) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cron != nil {
		return nil
	}

	cl := cronLogger{p.logger}
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := c.AddFunc(p.schedule, func() {
		if _, err := p.RunOnce(context.Background()); err != nil {
			p.logger.Error("token pruning failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule token pruning: %w", err)
	}

	c.Start()
	p.cron = c
	p.logger.Info("token pruner started", "schedule", p.schedule)
	return nil
}

// Stop halts the schedule and waits for a running prune to finish or ctx to end.
func (p *TokenPruner) Stop(ctx context.Context) error {
	p.mu.Lock()
	c := p.cron
	p.cron = nil
	p.mu.Unlock()

	if c == nil {
		return nil
	}

	select {
	case <-c.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce prunes immediately and returns the number of tokens removed.
func (p *TokenPruner) RunOnce(ctx context.Context) (int64, error) {
	start := p.now()
	n, err := p.store.DeleteExpiredTokens(ctx, start.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}

	if p.recorder != nil {
		p.recorder.TokensPruned(n)
	}
	if n > 0 {
		p.logger.Info("expired tokens pruned", "count", n, "duration", time.Since(start))
	} else {
		p.logger.Debug("no expired tokens to prune")
	}
	return n, nil
}

// cronLogger adapts slog to cron's logger interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
