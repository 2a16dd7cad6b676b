package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/listenupapp/bookstore-server/internal/auth"
	"github.com/listenupapp/bookstore-server/internal/domain"
	domainerrors "github.com/listenupapp/bookstore-server/internal/errors"
	"github.com/listenupapp/bookstore-server/internal/store"
	"github.com/listenupapp/bookstore-server/internal/validation"
)

// Auth event names reported to the EventRecorder.
const (
	EventRegistered    = "registered"
	EventLoggedIn      = "logged_in"
	EventLoginFailed   = "login_failed"
	EventLoggedOut     = "logged_out"
	EventRefreshed     = "refreshed"
	EventTokenRejected = "token_rejected"
)

// User-facing auth messages.
const (
	MsgEmailTaken         = "The email has already been taken."
	MsgInvalidCredentials = "The provided credentials are incorrect."
)

// EventRecorder counts authentication events.
type EventRecorder interface {
	AuthEvent(event string)
}

// dummyHash is verified against when an email is unknown so a failed login
// costs the same whether or not the account exists.
var dummyHash = sync.OnceValue(func() string {
	h, _ := auth.HashPassword("Dummy-password-1!")
	return h
})

// AuthService registers users and issues, validates and revokes bearer tokens.
type AuthService struct {
	store     store.Store
	tokens    *auth.TokenService
	validator *validation.Validator
	events    EventRecorder
	logger    *slog.Logger
	now       func() time.Time
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	store store.Store,
	tokens *auth.TokenService,
	validator *validation.Validator,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		store:     store,
		tokens:    tokens,
		validator: orNewValidator(validator),
		logger:    orDiscard(logger),
		now:       time.Now,
	}
}

// SetEventRecorder sets the recorder notified of auth events.
func (s *AuthService) SetEventRecorder(r EventRecorder) {
	s.events = r
}

// RegisterRequest contains user registration data.
type RegisterRequest struct {
	Name                 string `json:"name" validate:"required,max=255"`
	Email                string `json:"email" validate:"required,max=255,strict_email"`
	Password             string `json:"password" validate:"required,min=8,password_policy"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

var registerFieldOrder = []string{"name", "email", "password", "password_confirmation"}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,strict_email"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is a user together with a freshly issued bearer token.
type AuthResult struct {
	User  *domain.User
	Token string
}

// Register creates a user and issues its first token.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	fields, err := check(s.validator, req)
	if err != nil {
		return nil, err
	}

	if !fields.Has("email") {
		_, err := s.store.GetUserByEmail(ctx, req.Email)
		switch {
		case err == nil:
			fields.Add("email", MsgEmailTaken)
		case !errors.Is(err, store.ErrNotFound):
			return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "check email")
		}
	}
	if err := validationFailed(fields, registerFieldOrder...); err != nil {
		return nil, err
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "hash password")
	}

	user := &domain.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: passwordHash,
	}
	user.InitTimestamps()

	if err := s.store.CreateUser(ctx, user); err != nil {
		// Lost a race with a concurrent registration for the same address.
		if errors.Is(err, store.ErrAlreadyExists) {
			var taken domainerrors.FieldErrors
			taken.Add("email", MsgEmailTaken)
			return nil, validationFailed(taken)
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "create user")
	}

	token, err := s.issue(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID)
	s.record(EventRegistered)

	return &AuthResult{User: user, Token: token}, nil
}

// Login verifies credentials, revokes every token the user holds and issues one new token.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	fields, err := check(s.validator, req)
	if err != nil {
		return nil, err
	}
	if err := validationFailed(fields, "email", "password"); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "get user")
	}
	if user == nil {
		auth.VerifyPassword(dummyHash(), req.Password)
		return nil, s.invalidCredentials()
	}
	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		return nil, s.invalidCredentials()
	}

	revoked, err := s.store.DeleteUserTokens(ctx, user.ID)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "revoke tokens")
	}

	token, err := s.issue(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	if auth.NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, user, req.Password)
	}

	s.logger.Info("user logged in", "user_id", user.ID, "revoked_tokens", revoked)
	s.record(EventLoggedIn)

	return &AuthResult{User: user, Token: token}, nil
}

// Authenticate resolves a bearer token to its caller.
// Bad, revoked or expired tokens are reported as errors.ErrUnauthorized;
// store failures come back as internal errors.
func (s *AuthService) Authenticate(ctx context.Context, bearer string) (*Principal, error) {
	claims, err := s.tokens.Parse(bearer)
	if err != nil {
		return nil, s.reject("token failed to parse", err)
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, s.reject("token subject invalid", err)
	}

	row, err := s.store.GetToken(ctx, claims.TokenID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, s.reject("token revoked", nil)
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "get token")
	}

	now := s.now()
	if row.UserID != userID {
		return nil, s.reject("token subject mismatch", nil)
	}
	if row.IsExpired(now) {
		return nil, s.reject("token expired", nil)
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, s.reject("token user missing", nil)
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "get user")
	}

	if err := s.store.TouchToken(ctx, row.ID, now); err != nil {
		s.logger.Debug("failed to record token use", "token_id", row.ID, "error", err)
	}

	return &Principal{User: user, TokenID: row.ID}, nil
}

// Logout revokes every token of the caller and returns how many were revoked.
// Calling it again revokes nothing and still succeeds.
func (s *AuthService) Logout(ctx context.Context, p *Principal) (int64, error) {
	revoked, err := s.store.DeleteUserTokens(ctx, p.UserID())
	if err != nil {
		return 0, domainerrors.Wrap(err, domainerrors.CodeInternal, "revoke tokens")
	}

	s.logger.Info("user logged out", "user_id", p.UserID(), "revoked_tokens", revoked)
	s.record(EventLoggedOut)

	return revoked, nil
}

// Refresh revokes only the token the caller presented and issues a replacement.
func (s *AuthService) Refresh(ctx context.Context, p *Principal) (string, error) {
	if err := s.store.DeleteToken(ctx, p.TokenID); err != nil {
		return "", domainerrors.Wrap(err, domainerrors.CodeInternal, "revoke token")
	}

	token, err := s.issue(ctx, p.UserID())
	if err != nil {
		return "", err
	}

	s.logger.Info("token refreshed", "user_id", p.UserID())
	s.record(EventRefreshed)

	return token, nil
}

// issue mints a token and persists the row that keeps it valid.
func (s *AuthService) issue(ctx context.Context, userID int64) (string, error) {
	issued, err := s.tokens.Issue(userID)
	if err != nil {
		return "", domainerrors.Wrap(err, domainerrors.CodeInternal, "issue token")
	}

	row := &domain.AccessToken{
		ID:        issued.ID,
		UserID:    userID,
		Name:      domain.DefaultTokenName,
		CreatedAt: issued.IssuedAt,
		ExpiresAt: issued.ExpiresAt,
	}
	if err := s.store.CreateToken(ctx, row); err != nil {
		return "", domainerrors.Wrap(err, domainerrors.CodeInternal, "store token")
	}
	return issued.Token, nil
}

func (s *AuthService) rehash(ctx context.Context, user *domain.User, password string) {
	hash, err := auth.HashPassword(password)
	if err == nil {
		err = s.store.UpdateUserPassword(ctx, user.ID, hash)
	}
	if err != nil {
		s.logger.Warn("failed to upgrade password hash", "user_id", user.ID, "error", err)
		return
	}
	user.PasswordHash = hash
}

func (s *AuthService) invalidCredentials() error {
	s.record(EventLoginFailed)

	var fields domainerrors.FieldErrors
	fields.Add("email", MsgInvalidCredentials)
	return domainerrors.InvalidCredentials(MsgInvalidCredentials).WithDetails(fields)
}

func (s *AuthService) reject(reason string, cause error) error {
	s.record(EventTokenRejected)
	if cause != nil {
		s.logger.Debug("bearer token rejected", "reason", reason, "error", cause)
	} else {
		s.logger.Debug("bearer token rejected", "reason", reason)
	}
	return domainerrors.ErrUnauthorized
}

func (s *AuthService) record(event string) {
	if s.events != nil {
		s.events.AuthEvent(event)
	}
}
