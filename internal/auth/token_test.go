package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	clock := newTestClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	svc := newTestService(t, NewMemoryStore(), clock)

	user := &User{ID: "user-42", Username: "alice", Email: "alice@example.com"}
	token, err := svc.signAccessToken(user, clock.Now())
	if err != nil {
		t.Fatalf("signAccessToken: %v", err)
	}

	claims, err := svc.VerifyAccessToken(token)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	if claims.Subject != "user-42" {
		t.Fatalf("unexpected subject: %s", claims.Subject)
	}
	if claims.Username != "alice" || claims.Email != "alice@example.com" {
		t.Fatalf("unexpected identity claims: %s / %s", claims.Username, claims.Email)
	}
	if claims.Issuer != "test-issuer" {
		t.Fatalf("unexpected issuer: %s", claims.Issuer)
	}
	if claims.ID == "" {
		t.Fatalf("expected jti to be set")
	}
	if want := clock.Now().Add(time.Hour); !claims.ExpiresAt.Time.Equal(want) {
		t.Fatalf("exp = %v, want %v", claims.ExpiresAt.Time, want)
	}
}

func TestVerifyAccessTokenRejectsExpired(t *testing.T) {
	clock := newTestClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	svc := newTestService(t, NewMemoryStore(), clock)

	token, err := svc.signAccessToken(&User{ID: "user-42", Username: "alice"}, clock.Now())
	if err != nil {
		t.Fatalf("signAccessToken: %v", err)
	}

	clock.Advance(time.Hour + time.Minute)
	if _, err := svc.VerifyAccessToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("got %v, want ErrInvalidToken", err)
	}
}

func TestVerifyAccessTokenRejectsForeignKey(t *testing.T) {
	clock := newTestClock(time.Now().UTC())
	signer := newTestService(t, NewMemoryStore(), clock)

	other, err := NewService(NewMemoryStore(), []byte("other-signing-key"),
		WithIssuer("test-issuer"), WithAudience("test-clients"), WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	token, err := signer.signAccessToken(&User{ID: "user-42"}, clock.Now())
	if err != nil {
		t.Fatalf("signAccessToken: %v", err)
	}
	if _, err := other.VerifyAccessToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("got %v, want ErrInvalidToken", err)
	}
	if _, err := signer.VerifyAccessToken("not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage token: got %v, want ErrInvalidToken", err)
	}
}

func TestVerifyAccessTokenRejectsWrongAudience(t *testing.T) {
	clock := newTestClock(time.Now().UTC())
	signer := newTestService(t, NewMemoryStore(), clock, WithAudience("someone-else"))
	verifier := newTestService(t, NewMemoryStore(), clock)

	token, err := signer.signAccessToken(&User{ID: "user-42"}, clock.Now())
	if err != nil {
		t.Fatalf("signAccessToken: %v", err)
	}
	if _, err := verifier.VerifyAccessToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("got %v, want ErrInvalidToken", err)
	}
}

func TestGenerateRefreshTokenShape(t *testing.T) {
	clock := newTestClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	svc := newTestService(t, NewMemoryStore(), clock)

	tok, err := svc.generateRefreshToken("user-42", "", clock.Now())
	if err != nil {
		t.Fatalf("generateRefreshToken: %v", err)
	}
	if tok.ID == "" || tok.Token == "" {
		t.Fatalf("expected id and value to be set")
	}
	if tok.CreatedByIP != "unknown" {
		t.Fatalf("missing ip must record the unknown sentinel, got %q", tok.CreatedByIP)
	}
	if !tok.ExpiresAt.Equal(clock.Now().Add(7 * 24 * time.Hour)) {
		t.Fatalf("unexpected expiry: %v", tok.ExpiresAt)
	}

	other, err := svc.generateRefreshToken("user-42", "203.0.113.7", clock.Now())
	if err != nil {
		t.Fatalf("generateRefreshToken: %v", err)
	}
	if strings.EqualFold(tok.Token, other.Token) {
		t.Fatalf("token values must be unique")
	}
	if other.CreatedByIP != "203.0.113.7" {
		t.Fatalf("unexpected ip: %q", other.CreatedByIP)
	}
}
