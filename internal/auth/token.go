package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"authd.org/internal/ids"
)

const refreshTokenBytes = 64

// AccessClaims is the JWT claim set carried by access tokens. Username uses
// the unique_name claim for parity with bearer middleware on resource
// servers.
type AccessClaims struct {
	Username string `json:"unique_name,omitempty"`
	Email    string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// signAccessToken mints a short-lived HS256 JWT for the user. Signing only
// fails on misconfiguration; such an error is an internal fault, never part
// of the credential taxonomy.
func (s *Service) signAccessToken(u *User, now time.Time) (string, error) {
	claims := AccessClaims{
		Username: u.Username,
		Email:    u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("auth: sign access token: %w", err)
	}
	return signed, nil
}

// VerifyAccessToken checks signature, issuer, audience, and expiry, and
// returns the verified claims. Transports use this to authenticate bearer
// requests; every failure maps to ErrInvalidToken.
func (s *Service) VerifyAccessToken(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// generateRefreshToken builds an unguessable opaque token bound to the
// caller's address, valid for the configured refresh window.
func (s *Service) generateRefreshToken(userID, ip string, now time.Time) (*RefreshToken, error) {
	raw := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("auth: generate refresh token: %w", err)
	}
	if ip == "" {
		ip = "unknown"
	}
	return &RefreshToken{
		ID:          ids.New(),
		UserID:      userID,
		Token:       base64.StdEncoding.EncodeToString(raw),
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.refreshTTL),
		CreatedByIP: ip,
	}, nil
}
