// Package api provides the HTTP API server and handlers for the bookstore.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/listenupapp/bookstore-server/internal/media/files"
	"github.com/listenupapp/bookstore-server/internal/metrics"
	"github.com/listenupapp/bookstore-server/internal/ratelimit"
	"github.com/listenupapp/bookstore-server/internal/service"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	auth            *service.AuthService
	books           *service.BookService
	categories      *service.CategoryService
	recommendations *service.RecommendationService
	transactions    *service.TransactionService

	db          Pinger
	storage     files.Storage
	metrics     *metrics.Metrics
	authLimiter *ratelimit.KeyedRateLimiter
	corsOrigins []string
	trustProxy  bool

	router *chi.Mux
	logger *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *Services, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s := &Server{
		auth:            services.Auth,
		books:           services.Book,
		categories:      services.Category,
		recommendations: services.Recommendation,
		transactions:    services.Transaction,
		db:              opts.DB,
		storage:         opts.Storage,
		metrics:         opts.Metrics,
		authLimiter:     opts.AuthLimiter,
		corsOrigins:     origins,
		trustProxy:      opts.TrustProxyHeaders,
		router:          chi.NewRouter(),
		logger:          logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	if s.trustProxy {
		s.router.Use(middleware.RealIP)
	}
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	if s.metrics != nil {
		s.router.Use(s.metrics.Middleware)
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: !allowsAnyOrigin(s.corsOrigins),
		MaxAge:           300,
	}))
	s.router.Use(limitBody)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.NotFound(s.notFound)
	s.router.MethodNotAllowed(s.methodNotAllowed)

	s.router.Get("/health", s.handleHealthCheck)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler())
	}
	if s.storage != nil {
		s.router.Get("/storage/*", s.handleStorageFile)
	}

	s.router.Route("/api", func(r chi.Router) {
		// Public auth endpoints.
		r.Group(func(r chi.Router) {
			if s.authLimiter != nil {
				r.Use(s.rateLimit(s.authLimiter))
			}
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
		})

		// Categories are readable by anyone; a token only scopes the nested books.
		r.Route("/categories", func(r chi.Router) {
			r.With(s.optionalAuth).Get("/", s.handleListCategories)
			r.With(s.optionalAuth).Get("/{id}", s.handleGetCategory)
			r.Group(func(r chi.Router) {
				r.Use(s.requireAuth)
				r.Post("/", s.handleCreateCategory)
				r.Put("/{id}", s.handleUpdateCategory)
				r.Patch("/{id}", s.handleUpdateCategory)
				r.Delete("/{id}", s.handleDeleteCategory)
			})
		})

		// Everything else requires a bearer token.
		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Post("/logout", s.handleLogout)
			r.Post("/refresh", s.handleRefresh)
			r.Get("/user", s.handleCurrentUser)

			r.Route("/books", func(r chi.Router) {
				r.Get("/", s.handleListBooks)
				r.Post("/", s.handleCreateBook)
				r.Get("/{id}", s.handleGetBook)
				r.Put("/{id}", s.handleUpdateBook)
				r.Patch("/{id}", s.handleUpdateBook)
				r.Delete("/{id}", s.handleDeleteBook)
			})

			r.Route("/recommendations", func(r chi.Router) {
				r.Get("/", s.handleListRecommendations)
				r.Post("/", s.handleCreateRecommendation)
				r.Get("/{id}", s.handleGetRecommendation)
				r.Put("/{id}", s.handleUpdateRecommendation)
				r.Patch("/{id}", s.handleUpdateRecommendation)
				r.Delete("/{id}", s.handleDeleteRecommendation)
			})

			r.Route("/transactions", func(r chi.Router) {
				r.Get("/", s.handleListTransactions)
				r.Post("/", s.handleCreateTransaction)
				r.Get("/{id}", s.handleGetTransaction)
				r.Put("/{id}", s.handleUpdateTransaction)
				r.Patch("/{id}", s.handleUpdateTransaction)
				r.Delete("/{id}", s.handleDeleteTransaction)
			})
		})
	})
}

func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
