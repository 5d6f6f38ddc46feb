package session

import (
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/gcl-lms/web/core"
)

// Claims are the payload of an access token issued by the backend.
type Claims struct {
	jwt.StandardClaims
	UserID    core.ID `json:"user_id"`
	Username  string  `json:"username"`
	Role      string  `json:"rol"`
	Email     string  `json:"email,omitempty"`
	TokenType string  `json:"token_type,omitempty"`
}

// Expiry returns the expiry of the token, zero when it has none.
func (c Claims) Expiry() time.Time {
	if c.StandardClaims.ExpiresAt == 0 {
		return time.Time{}
	}
	return time.Unix(c.StandardClaims.ExpiresAt, 0)
}

// DecodeError is returned when a token cannot be read.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return "decoding token: " + e.Reason + ": " + e.Err.Error()
	}
	return "decoding token: " + e.Reason
}

func (e *DecodeError) Unwrap() error { return e.Err }

func IsDecodeError(err error) bool {
	var dErr *DecodeError
	return errors.As(err, &dErr)
}

var parser = &jwt.Parser{}

// DecodeToken reads the claims of a JWT without verifying its signature.
// The backend remains the authority on every request it serves.
func DecodeToken(raw string) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{}, &DecodeError{Reason: "empty token"}
	}

	var claims Claims
	if _, _, err := parser.ParseUnverified(raw, &claims); err != nil {
		return Claims{}, &DecodeError{Reason: "malformed token", Err: err}
	}
	if claims.Username == "" {
		return Claims{}, &DecodeError{Reason: "missing username claim"}
	}
	if claims.Role == "" {
		return Claims{}, &DecodeError{Reason: "missing rol claim"}
	}
	return claims, nil
}
