package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"timetracker/internal/caching"
	"timetracker/internal/common"
	"timetracker/internal/config"
	"timetracker/internal/metrics"
	"timetracker/internal/models"
	"timetracker/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "timetracker"

// Token failure variants. Callers only ever see common.ErrUnauthenticated;
// the variant is kept for logs and metrics.
var (
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenExpired   = errors.New("token expired")
	ErrUnknownSubject = errors.New("token subject unknown")
)

// TokenService issues and resolves session tokens.
type TokenService interface {
	Issue(user *models.User) (*models.TokenResponse, error)
	Resolve(ctx context.Context, token string) (*models.User, error)
}

type tokenService struct {
	creds  CredentialStore
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	rec    metrics.Recorder
}

type TokenOption func(*tokenService)

// WithClock replaces the wall clock used for issuance and expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(s *tokenService) { s.now = now }
}

func NewTokenService(cfg *config.Config, creds CredentialStore, rec metrics.Recorder, opts ...TokenOption) TokenService {
	if rec == nil {
		rec = metrics.Nop{}
	}
	s := &tokenService{
		creds:  creds,
		secret: cfg.JWTSecret,
		ttl:    cfg.TokenTTL.Truncate(time.Second),
		now:    time.Now,
		rec:    rec,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// clock reads the wall clock at the whole-second precision of JWT NumericDate,
// so issuance and expiry checks agree on the window boundaries.
func (s *tokenService) clock() time.Time {
	return s.now().UTC().Truncate(time.Second)
}

// Issue signs an HS256 token for user, valid for the configured window.
func (s *tokenService) Issue(user *models.User) (*models.TokenResponse, error) {
	issuedAt := s.clock()
	expiresAt := issuedAt.Add(s.ttl)
	tokenID := uuid.NewString()

	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   user.ID.String(),
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		ID:        tokenID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign JWT: %w", err)
	}

	return &models.TokenResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.ttl.Seconds()),
		TokenID:     tokenID,
		IssuedAt:    issuedAt,
		ExpiresAt:   expiresAt,
	}, nil
}

// Resolve verifies the signature, then the expiry, then re-reads the subject.
// Only the subject claim is trusted.
func (s *tokenService) Resolve(ctx context.Context, token string) (*models.User, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, s.reject(ErrTokenExpired, err)
		}
		return nil, s.reject(ErrTokenMalformed, err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, s.reject(ErrTokenMalformed, err)
	}

	user, err := s.creds.Lookup(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, s.reject(ErrUnknownSubject, err)
		}
		return nil, fmt.Errorf("failed to load token subject: %w", err)
	}
	return user, nil
}

func (s *tokenService) reject(variant, cause error) error {
	reason := strings.ReplaceAll(strings.TrimPrefix(variant.Error(), "token "), " ", "_")
	slog.Warn("bearer token rejected", "reason", reason, "error", cause)
	s.rec.RecordTokenFailure(reason)
	return fmt.Errorf("%w: %w", common.ErrUnauthenticated, variant)
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token *models.TokenResponse
	User  *models.User
}

// AuthService exchanges credentials for tokens.
type AuthService interface {
	Login(ctx context.Context, username, password, clientIP string) (*LoginResult, error)
}

type authService struct {
	creds       CredentialStore
	tokens      TokenService
	cacheSvc    caching.CacheService
	maxAttempts int
	window      time.Duration
	rec         metrics.Recorder
}

func NewAuthService(cfg *config.Config, creds CredentialStore, tokens TokenService, cacheSvc caching.CacheService, rec metrics.Recorder) AuthService {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &authService{
		creds:       creds,
		tokens:      tokens,
		cacheSvc:    cacheSvc,
		maxAttempts: cfg.LoginMaxAttempts,
		window:      cfg.LoginWindow,
		rec:         rec,
	}
}

func loginThrottleKey(username, clientIP string) string {
	return fmt.Sprintf("login:%s:%s", strings.ToLower(username), clientIP)
}

// Login verifies the credentials and issues a token. Repeated attempts for
// the same username and address are throttled; a cache outage does not block logins.
func (s *authService) Login(ctx context.Context, username, password, clientIP string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", common.ErrValidation)
	}

	key := loginThrottleKey(username, clientIP)
	if s.cacheSvc != nil && s.maxAttempts > 0 {
		limited, err := s.cacheSvc.IsRateLimited(ctx, key, s.maxAttempts, s.window)
		if err != nil {
			slog.Warn("login throttle unavailable", "error", err)
		} else if limited {
			s.rec.RecordLogin("throttled")
			return nil, common.ErrTooManyRequests
		}
	}

	user, err := s.creds.Verify(ctx, username, password)
	if err != nil {
		if errors.Is(err, common.ErrUnauthenticated) {
			slog.Info("login failed", "username", username, "client_ip", clientIP)
			s.rec.RecordLogin("failure")
		}
		return nil, err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	if s.cacheSvc != nil {
		if err := s.cacheSvc.ResetRateLimit(ctx, key); err != nil {
			slog.Warn("failed to reset login throttle", "error", err)
		}
	}
	s.rec.RecordLogin("success")
	return &LoginResult{Token: token, User: user}, nil
}
