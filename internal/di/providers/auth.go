package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/bookstore-server/internal/auth"
	"github.com/listenupapp/bookstore-server/internal/config"
	"github.com/listenupapp/bookstore-server/internal/logger"
	"github.com/listenupapp/bookstore-server/internal/ratelimit"
)

// AuthKey wraps the token sealing key bytes.
type AuthKey []byte

// ProvideAuthKey loads or generates the token sealing key.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	key, err := auth.LoadOrGenerateKey(cfg.Data.BasePath)
	if err != nil {
		return nil, err
	}

	log.Info("Authentication key loaded", "token_ttl", cfg.Auth.TokenTTL)

	return AuthKey(key), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	authKey := do.MustInvoke[AuthKey](i)

	return auth.NewTokenService([]byte(authKey), cfg.Auth.TokenTTL)
}

// AuthLimiterHandle wraps the login/register rate limiter with shutdown capability.
type AuthLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *AuthLimiterHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideAuthLimiter provides the per-client limiter for the public auth routes.
func ProvideAuthLimiter(i do.Injector) (*AuthLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return &AuthLimiterHandle{KeyedRateLimiter: ratelimit.PerMinute(cfg.Auth.RateLimit)}, nil
}
