package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenLooksExpired reports whether tok is an application-issued JWT
// whose exp claim has passed. The signature is deliberately not
// verified — the client has no key and a 401 from the backend remains
// the authoritative expiry signal; this is only an advisory pre-check
// so the user can be told to log in again without a doomed request.
// GitHub personal access tokens are not JWTs and always return false.
func TokenLooksExpired(tok string, now time.Time) bool {
	claims := jwt.MapClaims{}

	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}

	return now.After(exp.Time)
}
