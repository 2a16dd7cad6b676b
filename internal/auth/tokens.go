package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"aidanwoods.dev/go-paseto"

	"github.com/listenupapp/bookstore-server/internal/id"
)

const (
	tokenIssuer   = "bookstore-server"
	tokenAudience = "bookstore-client"

	// clockSkew tolerates small differences between issuing and verifying clocks.
	clockSkew = 30 * time.Second
)

// ErrInvalidToken is returned for any token that fails to decrypt or validate.
var ErrInvalidToken = errors.New("invalid token")

// IssuedToken is a freshly sealed bearer token and the row data that backs it.
type IssuedToken struct {
	ID        string
	UserID    int64
	Token     string
	IssuedAt  time.Time
	ExpiresAt *time.Time
}

// TokenService seals and opens PASETO v4.local bearer tokens.
//
// It only proves a token was minted by this server; whether the token is
// still live is decided by the caller looking up its ID.
type TokenService struct {
	symmetricKey paseto.V4SymmetricKey
	ttl          time.Duration
	now          func() time.Time
}

// NewTokenService creates a token service from a 32-byte key.
// A zero ttl issues tokens without an expiry.
func NewTokenService(key []byte, ttl time.Duration) (*TokenService, error) {
	if len(key) != keyLength {
		return nil, fmt.Errorf("PASETO v4 key must be exactly %d bytes, got %d", keyLength, len(key))
	}
	if ttl < 0 {
		return nil, fmt.Errorf("token ttl cannot be negative: %s", ttl)
	}

	symmetricKey, err := paseto.V4SymmetricKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create PASETO symmetric key: %w", err)
	}

	return &TokenService{
		symmetricKey: symmetricKey,
		ttl:          ttl,
		now:          time.Now,
	}, nil
}

// TTL returns the configured token lifetime (zero means no expiry).
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue mints a new token for userID with a fresh token ID.
func (s *TokenService) Issue(userID int64) (*IssuedToken, error) {
	tokenID, err := id.Token()
	if err != nil {
		return nil, fmt.Errorf("generate token ID: %w", err)
	}

	now := s.now().UTC().Truncate(time.Second)

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetAudience(tokenAudience)
	token.SetSubject(strconv.FormatInt(userID, 10))
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetJti(tokenID)

	issued := &IssuedToken{
		ID:       tokenID,
		UserID:   userID,
		IssuedAt: now,
	}
	if s.ttl > 0 {
		exp := now.Add(s.ttl)
		token.SetExpiration(exp)
		issued.ExpiresAt = &exp
	}

	issued.Token = token.V4Encrypt(s.symmetricKey, nil)
	return issued, nil
}

// Parse decrypts a bearer token and validates its claims.
// Any failure is reported as ErrInvalidToken wrapping the cause.
func (s *TokenService) Parse(tokenString string) (*Claims, error) {
	parser := paseto.MakeParser([]paseto.Rule{
		paseto.ForAudience(tokenAudience),
		paseto.IssuedBy(tokenIssuer),
		s.notIssuedInFuture(),
		s.notExpired(),
	})

	token, err := parser.ParseV4Local(s.symmetricKey, tokenString, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	var claims Claims
	if err := json.Unmarshal(token.ClaimsJSON(), &claims); err != nil {
		return nil, fmt.Errorf("%w: parse claims: %w", ErrInvalidToken, err)
	}
	if claims.TokenID == "" {
		return nil, fmt.Errorf("%w: missing token id", ErrInvalidToken)
	}
	if _, err := claims.UserID(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	return &claims, nil
}

func (s *TokenService) notIssuedInFuture() paseto.Rule {
	return func(token paseto.Token) error {
		iat, err := token.GetIssuedAt()
		if err != nil {
			return err
		}
		if iat.After(s.now().Add(clockSkew)) {
			return errors.New("token issued in the future")
		}
		return nil
	}
}

// notExpired only applies to tokens that carry an exp claim; tokens issued
// while no ttl was configured stay valid until revoked.
func (s *TokenService) notExpired() paseto.Rule {
	return func(token paseto.Token) error {
		exp, err := token.GetExpiration()
		if err != nil {
			//nolint:nilerr // absent exp means the token does not expire
			return nil
		}
		if !s.now().Before(exp) {
			return errors.New("token has expired")
		}
		return nil
	}
}
