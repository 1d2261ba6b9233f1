package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	defaultAccessTTL  = time.Hour
	defaultRefreshTTL = 7 * 24 * time.Hour

	minPasswordLength = 8
)

// Service implements the credential lifecycle: registration, login with
// token-pair issuance, single-use refresh-token rotation, and terminal
// revocation. It is request-scoped and stateless between calls; all shared
// state lives in the Store.
type Service struct {
	store  Store
	hasher Hasher
	now    func() time.Time

	signingKey []byte
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration

	observer Observer
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service) error

// WithIssuer sets the iss claim stamped into access tokens.
func WithIssuer(issuer string) ServiceOption {
	return func(s *Service) error {
		s.issuer = strings.TrimSpace(issuer)
		return nil
	}
}

// WithAudience sets the aud claim stamped into access tokens.
func WithAudience(audience string) ServiceOption {
	return func(s *Service) error {
		s.audience = strings.TrimSpace(audience)
		return nil
	}
}

// WithAccessTTL configures access token lifetime.
func WithAccessTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) error {
		if ttl > 0 {
			s.accessTTL = ttl
		}
		return nil
	}
}

// WithRefreshTTL configures the refresh-token validity window. Tokens
// minted by rotation get a fresh window of the same length.
func WithRefreshTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) error {
		if ttl > 0 {
			s.refreshTTL = ttl
		}
		return nil
	}
}

// WithHasher overrides the password hasher.
func WithHasher(h Hasher) ServiceOption {
	return func(s *Service) error {
		if h != nil {
			s.hasher = h
		}
		return nil
	}
}

// WithObserver registers the lifecycle observer.
func WithObserver(o Observer) ServiceOption {
	return func(s *Service) error {
		s.observer = o
		return nil
	}
}

// WithClock overrides time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) error {
		if fn != nil {
			s.now = fn
		}
		return nil
	}
}

// NewService constructs the orchestrator. An empty signing key is a
// configuration error: token creation must be non-fallible once the
// service is up.
func NewService(store Store, signingKey []byte, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth: store is required")
	}
	if len(signingKey) == 0 {
		return nil, errors.New("auth: signing key is required")
	}
	svc := &Service{
		store:      store,
		hasher:     NewArgon2idHasher(DefaultArgon2idParams()),
		now:        time.Now,
		signingKey: signingKey,
		accessTTL:  defaultAccessTTL,
		refreshTTL: defaultRefreshTTL,
	}
	for _, opt := range opts {
		if err := opt(svc); err != nil {
			return nil, err
		}
	}
	return svc, nil
}

// Register creates a new active user with a hashed password and returns its
// identifier. A username already in use yields ErrDuplicateUsername; the
// error does not reveal whether the email collided as well.
func (s *Service) Register(ctx context.Context, username, email, firstName, lastName, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", ErrInvalidInput
	}
	if len(password) < minPasswordLength {
		return "", ErrInvalidInput
	}

	if _, err := s.store.UserByUsername(ctx, username); err == nil {
		s.observe(ctx, EventRegisterDenied, map[string]any{"username": username, "reason": "duplicate"})
		return "", ErrDuplicateUsername
	} else if !errors.Is(err, ErrNotFound) {
		return "", fmt.Errorf("auth: lookup username: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}

	user := &User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        strings.TrimSpace(email),
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: hash,
		Active:       true,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateUsername) {
			s.observe(ctx, EventRegisterDenied, map[string]any{"username": username, "reason": "duplicate"})
			return "", ErrDuplicateUsername
		}
		return "", fmt.Errorf("auth: create user: %w", err)
	}

	s.observe(ctx, EventRegisterSuccess, map[string]any{"username": username, "user_id": user.ID})
	return user.ID, nil
}

// Login verifies credentials and issues a token pair. Unknown usernames,
// wrong passwords, and inactive accounts all yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password, callerIP string) (TokenPair, error) {
	username = strings.TrimSpace(username)

	user, err := s.store.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.observe(ctx, EventLoginDenied, map[string]any{"username": username, "ip": callerIP})
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, fmt.Errorf("auth: lookup username: %w", err)
	}
	if !user.Active || !s.hasher.Verify(user.PasswordHash, password) {
		s.observe(ctx, EventLoginDenied, map[string]any{"username": username, "ip": callerIP})
		return TokenPair{}, ErrInvalidCredentials
	}

	now := s.now().UTC()
	access, err := s.signAccessToken(user, now)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.generateRefreshToken(user.ID, callerIP, now)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.store.SaveLogin(ctx, refresh, now); err != nil {
		return TokenPair{}, fmt.Errorf("auth: save login: %w", err)
	}

	s.observe(ctx, EventLoginSuccess, map[string]any{"username": username, "user_id": user.ID, "ip": callerIP})
	return TokenPair{AccessToken: access, RefreshToken: refresh.Token}, nil
}

// Refresh exchanges an active refresh token for a new token pair. The
// presented token is revoked and chained to its successor; presenting it
// again yields ErrInvalidToken, which covers replay of a token consumed by
// a prior rotation. Concurrent refreshes racing on the same value are
// serialized by the store: exactly one wins.
func (s *Service) Refresh(ctx context.Context, rawToken, callerIP string) (TokenPair, error) {
	user, current, err := s.lookupToken(ctx, rawToken, callerIP, "refresh")
	if err != nil {
		return TokenPair{}, err
	}

	now := s.now().UTC()
	access, err := s.signAccessToken(user, now)
	if err != nil {
		return TokenPair{}, err
	}
	successor, err := s.generateRefreshToken(user.ID, callerIP, now)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.store.RotateRefreshToken(ctx, current.Token, successor); err != nil {
		if errors.Is(err, ErrNotFound) {
			// Lost the race: another call consumed the token first.
			s.observe(ctx, EventTokenDenied, map[string]any{"user_id": user.ID, "ip": callerIP, "op": "refresh"})
			return TokenPair{}, ErrInvalidToken
		}
		return TokenPair{}, fmt.Errorf("auth: rotate refresh token: %w", err)
	}

	s.observe(ctx, EventTokenRotated, map[string]any{"user_id": user.ID, "ip": callerIP})
	return TokenPair{AccessToken: access, RefreshToken: successor.Token}, nil
}

// Revoke terminally invalidates an active refresh token (logout). Revoking
// an unknown, expired, or already-revoked token is an error so callers can
// detect stale logout attempts.
func (s *Service) Revoke(ctx context.Context, rawToken, callerIP string) error {
	user, current, err := s.lookupToken(ctx, rawToken, callerIP, "revoke")
	if err != nil {
		return err
	}

	now := s.now().UTC()
	ip := callerIP
	if ip == "" {
		ip = "unknown"
	}
	if err := s.store.RevokeRefreshToken(ctx, current.Token, now, ip); err != nil {
		if errors.Is(err, ErrNotFound) {
			s.observe(ctx, EventTokenDenied, map[string]any{"user_id": user.ID, "ip": callerIP, "op": "revoke"})
			return ErrInvalidToken
		}
		return fmt.Errorf("auth: revoke refresh token: %w", err)
	}

	s.observe(ctx, EventTokenRevoked, map[string]any{"user_id": user.ID, "ip": callerIP})
	return nil
}

// lookupToken resolves the owner of a raw refresh token and checks that the
// matched token is still active. Unknown, expired, and revoked tokens are
// deliberately indistinguishable to the caller.
func (s *Service) lookupToken(ctx context.Context, rawToken, callerIP, op string) (*User, *RefreshToken, error) {
	if rawToken == "" {
		return nil, nil, ErrInvalidToken
	}
	user, err := s.store.UserByRefreshToken(ctx, rawToken)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.observe(ctx, EventTokenDenied, map[string]any{"ip": callerIP, "op": op})
			return nil, nil, ErrInvalidToken
		}
		return nil, nil, fmt.Errorf("auth: lookup refresh token: %w", err)
	}

	var current *RefreshToken
	for i := range user.RefreshTokens {
		if user.RefreshTokens[i].Token == rawToken {
			current = &user.RefreshTokens[i]
			break
		}
	}
	if current == nil || !current.IsActive(s.now().UTC()) {
		s.observe(ctx, EventTokenDenied, map[string]any{"user_id": user.ID, "ip": callerIP, "op": op})
		return nil, nil, ErrInvalidToken
	}
	return user, current, nil
}
