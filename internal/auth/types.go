package auth

import "time"

// User represents a registered account and its refresh-token collection.
type User struct {
	ID           string
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
	LastLoginAt  *time.Time
	UpdatedAt    *time.Time

	// RefreshTokens is populated by UserByRefreshToken lookups.
	RefreshTokens []RefreshToken
}

// RefreshToken is a persisted long-lived credential. The record is never
// deleted; rotation and revocation only ever set the Revoked* and
// ReplacedBy fields.
type RefreshToken struct {
	ID          string
	UserID      string
	Token       string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	CreatedByIP string
	RevokedAt   *time.Time
	RevokedByIP string
	ReplacedBy  string
}

// IsExpired reports whether the token's expiry has passed at the given instant.
func (t RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// IsActive reports whether the token can still be presented: not revoked
// and not expired. A token leaves this state exactly once.
func (t RefreshToken) IsActive(now time.Time) bool {
	return t.RevokedAt == nil && !t.IsExpired(now)
}

// TokenPair bundles a freshly minted access token with the refresh token
// that can later renew it.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
