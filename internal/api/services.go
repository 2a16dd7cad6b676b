package api

import (
	"context"

	"github.com/listenupapp/bookstore-server/internal/media/files"
	"github.com/listenupapp/bookstore-server/internal/metrics"
	"github.com/listenupapp/bookstore-server/internal/ratelimit"
	"github.com/listenupapp/bookstore-server/internal/service"
)

// Services groups the business services used by the API server.
type Services struct {
	Auth           *service.AuthService
	Book           *service.BookService
	Category       *service.CategoryService
	Recommendation *service.RecommendationService
	Transaction    *service.TransactionService
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options carries the server's infrastructure dependencies. Metrics and
// AuthLimiter are optional.
type Options struct {
	DB          Pinger
	Storage     files.Storage
	Metrics     *metrics.Metrics
	AuthLimiter *ratelimit.KeyedRateLimiter
	CORSOrigins []string
	// TrustProxyHeaders rewrites RemoteAddr from X-Forwarded-For and
	// X-Real-IP before logging and rate limiting.
	TrustProxyHeaders bool
}
