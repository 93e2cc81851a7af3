package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/abhisek/sketchbook/internal/store"
)

// Credentials is the result of a login or signup.
type Credentials struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserID      int    `json:"user_id"`
	Email       string `json:"email"`
}

// ExpiresAt returns the token's exp claim. The signature is not verified:
// the service is the token authority, the client only needs to know when to
// stop sending it. ok is false when the token is unparsable or has no exp.
func (c *Credentials) ExpiresAt() (t time.Time, ok bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(c.AccessToken, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Expired reports whether the token's exp claim is at or before now.
// Tokens without a readable exp never expire on the client side.
func (c *Credentials) Expired(now time.Time) bool {
	exp, ok := c.ExpiresAt()
	return ok && !now.Before(exp)
}

// UserID returns the numeric user id requests should be stamped with:
// 0 when c is nil or expired.
func UserID(c *Credentials, now time.Time) int {
	if c == nil || c.Expired(now) {
		return 0
	}
	return c.UserID
}

// Save persists c as the only stored credential.
func Save(ctx context.Context, repo store.CredentialRepo, c *Credentials, now time.Time) error {
	err := repo.Save(ctx, store.Credential{
		UserID:      c.UserID,
		Email:       c.Email,
		AccessToken: c.AccessToken,
		SavedAt:     now,
	})
	if err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}
	return nil
}

// Load returns the stored credentials, or nil if none are stored.
func Load(ctx context.Context, repo store.CredentialRepo) (*Credentials, error) {
	sc, err := repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}
	if sc == nil {
		return nil, nil
	}
	return &Credentials{
		AccessToken: sc.AccessToken,
		TokenType:   "bearer",
		UserID:      sc.UserID,
		Email:       sc.Email,
	}, nil
}
