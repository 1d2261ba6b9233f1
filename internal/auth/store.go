package auth

import (
	"context"
	"time"
)

// Store describes the persistence the orchestrator depends on. Lookups by
// raw token value are expected to be indexed; implementations must not
// require a linear scan across users.
type Store interface {
	// CreateUser persists a new user. A username or email collision yields
	// ErrDuplicateUsername.
	CreateUser(ctx context.Context, u *User) error

	UserByID(ctx context.Context, id string) (*User, error)
	UserByUsername(ctx context.Context, username string) (*User, error)

	// UserByRefreshToken returns the user owning the raw token value, with
	// the full refresh-token collection loaded. ErrNotFound when no user
	// owns it.
	UserByRefreshToken(ctx context.Context, token string) (*User, error)

	// SaveLogin appends a freshly issued refresh token to its owner and
	// stamps the user's last-login time as one persisted write.
	SaveLogin(ctx context.Context, tok *RefreshToken, loginAt time.Time) error

	// RotateRefreshToken atomically revokes the token identified by old,
	// chains it to the successor, and inserts the successor. The revocation
	// is guarded: if old is no longer unrevoked (a concurrent rotation or
	// revoke won), nothing is written and ErrNotFound is returned.
	RotateRefreshToken(ctx context.Context, old string, successor *RefreshToken) error

	// RevokeRefreshToken terminally revokes the token identified by value,
	// with the same guard as RotateRefreshToken. No successor is created.
	RevokeRefreshToken(ctx context.Context, value string, revokedAt time.Time, revokedByIP string) error
}
