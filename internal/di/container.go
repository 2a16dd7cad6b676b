// Package di provides dependency injection configuration for the bookstore server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/bookstore-server/internal/auth"
	"github.com/listenupapp/bookstore-server/internal/config"
	"github.com/listenupapp/bookstore-server/internal/di/providers"
	"github.com/listenupapp/bookstore-server/internal/logger"
	"github.com/listenupapp/bookstore-server/internal/media/files"
	"github.com/listenupapp/bookstore-server/internal/service"
	"github.com/listenupapp/bookstore-server/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideMetrics)

	// Persistence
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideFileStorage)

	// Auth layer
	do.Provide(injector, providers.ProvideAuthKey)
	do.Provide(injector, providers.ProvideTokenService)
	do.Provide(injector, providers.ProvideAuthLimiter)

	// Business services
	do.Provide(injector, providers.ProvideValidator)
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideBookService)
	do.Provide(injector, providers.ProvideCategoryService)
	do.Provide(injector, providers.ProvideRecommendationService)
	do.Provide(injector, providers.ProvideTransactionService)

	// Workers
	do.Provide(injector, providers.ProvideTokenPruner)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and starts the workers and HTTP server.
func Bootstrap(injector *do.RootScope) error {
	steps := []func() error{
		invoke[*config.Config](injector),
		invoke[*logger.Logger](injector),
		invoke[*providers.MetricsHandle](injector),
		invoke[*providers.StoreHandle](injector),
		invoke[files.Storage](injector),
		invoke[providers.AuthKey](injector),
		invoke[*auth.TokenService](injector),
		invoke[*validation.Validator](injector),
		invoke[*service.AuthService](injector),
		invoke[*service.BookService](injector),
		invoke[*service.CategoryService](injector),
		invoke[*service.RecommendationService](injector),
		invoke[*service.TransactionService](injector),
		invoke[*providers.TokenPrunerHandle](injector),
		invoke[*providers.HTTPServerHandle](injector),
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func invoke[T any](injector do.Injector) func() error {
	return func() error {
		_, err := do.Invoke[T](injector)
		return err
	}
}
