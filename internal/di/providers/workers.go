package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/listenupapp/bookstore-server/internal/config"
	"github.com/listenupapp/bookstore-server/internal/jobs"
	"github.com/listenupapp/bookstore-server/internal/logger"
	"github.com/listenupapp/bookstore-server/internal/metrics"
)

// MetricsHandle holds the Prometheus collectors, or nil when metrics are disabled.
type MetricsHandle struct {
	Metrics *metrics.Metrics
}

// ProvideMetrics provides the Prometheus collectors.
func ProvideMetrics(i do.Injector) (*MetricsHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	if !cfg.Metrics.Enabled {
		return &MetricsHandle{}, nil
	}
	return &MetricsHandle{Metrics: metrics.New()}, nil
}

// TokenPrunerHandle wraps the expired-token pruner with shutdown capability.
// Pruner is nil when tokens never expire.
type TokenPrunerHandle struct {
	Pruner *jobs.TokenPruner
}

// Shutdown implements do.Shutdownable.
func (h *TokenPrunerHandle) Shutdown() error {
	if h.Pruner == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Pruner.Stop(ctx)
}

// ProvideTokenPruner schedules removal of expired access tokens.
func ProvideTokenPruner(i do.Injector) (*TokenPrunerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	m := do.MustInvoke[*MetricsHandle](i)

	if cfg.Auth.TokenTTL == 0 {
		log.Info("Token pruning disabled, tokens never expire")
		return &TokenPrunerHandle{}, nil
	}

	var recorder jobs.PruneRecorder
	if m.Metrics != nil {
		recorder = m.Metrics
	}

	pruner, err := jobs.NewTokenPruner(storeHandle.Store, cfg.Auth.PruneSchedule, recorder, log.Logger)
	if err != nil {
		return nil, err
	}
	if err := pruner.Start(); err != nil {
		return nil, err
	}

	return &TokenPrunerHandle{Pruner: pruner}, nil
}
