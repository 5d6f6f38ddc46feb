package testutil

import (
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// signingKey is unknown to the web app, which never verifies signatures.
var signingKey = []byte("backend-only-secret")

// MintToken returns an access token shaped like the backend's, for user `uname` with role `role`.
func MintToken(t *testing.T, userID interface{}, uname, role string, extra ...jwt.MapClaims) string {
	t.Helper()
	now := time.Now()
	claims := jwt.MapClaims{
		"token_type": "access",
		"exp":        now.Add(time.Hour).Unix(),
		"iat":        now.Unix(),
		"jti":        "jti-" + uname,
		"user_id":    userID,
		"username":   uname,
		"rol":        role,
	}
	for _, ex := range extra {
		for k, v := range ex {
			claims[k] = v
		}
	}
	return sign(t, claims)
}

// MintRefreshToken returns an opaque-looking refresh token.
func MintRefreshToken(t *testing.T, userID interface{}) string {
	t.Helper()
	return sign(t, jwt.MapClaims{
		"token_type": "refresh",
		"exp":        time.Now().Add(24 * time.Hour).Unix(),
		"user_id":    userID,
	})
}

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		t.Fatalf("sign() failed: %v", err)
	}
	return token
}
