package api

import (
	"context"
	"net/http"
	"strings"

	domainerrors "github.com/listenupapp/bookstore-server/internal/errors"
	"github.com/listenupapp/bookstore-server/internal/http/response"
	"github.com/listenupapp/bookstore-server/internal/service"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const contextKeyPrincipal contextKey = "principal"

// bearerToken extracts the token from an "Authorization: Bearer ..." header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// requireAuth rejects requests without a valid bearer token and attaches the
// caller to the request context. Store failures answer 500, not 401.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			response.Unauthorized(w, s.logger)
			return
		}

		p, err := s.auth.Authenticate(r.Context(), token)
		if err != nil {
			response.HandleError(w, r, err, response.StyleStrict, s.logger)
			return
		}

		next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), p)))
	})
}

// optionalAuth attaches the caller when a valid token is presented and
// otherwise lets the request through anonymously. A token that cannot be
// checked because the store failed fails the request.
func (s *Server) optionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token, ok := bearerToken(r); ok {
			p, err := s.auth.Authenticate(r.Context(), token)
			switch {
			case err == nil:
				r = r.WithContext(withPrincipal(r.Context(), p))
			case !domainerrors.Is(err, domainerrors.ErrUnauthorized):
				response.HandleError(w, r, err, response.StyleStrict, s.logger)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func withPrincipal(ctx context.Context, p *service.Principal) context.Context {
	return context.WithValue(ctx, contextKeyPrincipal, p)
}

// principal returns the authenticated caller, or nil for anonymous requests.
func principal(ctx context.Context) *service.Principal {
	p, _ := ctx.Value(contextKeyPrincipal).(*service.Principal)
	return p
}
