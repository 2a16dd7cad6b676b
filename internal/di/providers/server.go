package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/listenupapp/bookstore-server/internal/api"
	"github.com/listenupapp/bookstore-server/internal/config"
	"github.com/listenupapp/bookstore-server/internal/logger"
	"github.com/listenupapp/bookstore-server/internal/media/files"
	"github.com/listenupapp/bookstore-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer builds the router and starts listening in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	storage := do.MustInvoke[files.Storage](i)
	limiter := do.MustInvoke[*AuthLimiterHandle](i)
	m := do.MustInvoke[*MetricsHandle](i)

	services := &api.Services{
		Auth:           do.MustInvoke[*service.AuthService](i),
		Book:           do.MustInvoke[*service.BookService](i),
		Category:       do.MustInvoke[*service.CategoryService](i),
		Recommendation: do.MustInvoke[*service.RecommendationService](i),
		Transaction:    do.MustInvoke[*service.TransactionService](i),
	}

	handler := api.NewServer(services, api.Options{
		DB:                storeHandle.Store,
		Storage:           storage,
		Metrics:           m.Metrics,
		AuthLimiter:       limiter.KeyedRateLimiter,
		CORSOrigins:       cfg.Server.CORSOrigins,
		TrustProxyHeaders: cfg.Server.TrustProxyHeaders,
	}, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}
