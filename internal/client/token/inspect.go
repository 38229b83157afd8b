package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Info holds the displayable claims of a bearer token.
type Info struct {
	// Subject identifies the account the token was minted for.
	Subject string
	// ExpiresAt is the token expiry, zero when the claim is absent.
	ExpiresAt time.Time
}

// Inspect decodes the claims of a JWT without verifying its signature.
// It is used for display only (e.g. showing session expiry in the shell);
// token validity is always decided by the server.
func Inspect(raw string) (Info, error) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return Info{}, fmt.Errorf("decode token: %w", err)
	}

	var info Info
	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	return info, nil
}
