package backendapi

import (
	"context"
	"net/url"

	"github.com/sendgrid/rest"

	"github.com/gcl-lms/web/core/session"
	"github.com/gcl-lms/web/core/user"
)

var (
	_ session.TokenIssuer  = (*Client)(nil)
	_ user.RecoveryService = (*Client)(nil)
)

// ObtainToken exchanges credentials for a token pair.
func (c *Client) ObtainToken(ctx context.Context, creds session.Credentials) (session.TokenPair, error) {
	var pair session.TokenPair
	err := c.do(ctx, rest.Post, "api/token/", creds, &pair)
	return pair, err
}

// RefreshToken exchanges a refresh token for a new access token (and a new refresh token when rotation is on).
func (c *Client) RefreshToken(ctx context.Context, refresh string) (session.TokenPair, error) {
	var pair session.TokenPair
	err := c.do(ctx, rest.Post, "api/token/refresh/", map[string]string{"refresh": refresh}, &pair)
	return pair, err
}

func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	return c.doForm(ctx, "usuarios/send-reset-email/", url.Values{"email": {email}}, nil)
}

func (c *Client) ResetPassword(ctx context.Context, token, pwd string) error {
	return c.doForm(ctx, "usuarios/reset-password/", url.Values{"token": {token}, "password": {pwd}}, nil)
}
