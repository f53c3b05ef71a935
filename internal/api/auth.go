package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/faceofmind/admin-sync/internal/model"
)

// ErrNoAccessToken is returned when login succeeds without an access token.
var ErrNoAccessToken = errors.New("login response has no access token")

// Login exchanges credentials for tokens.
func (c *Client) Login(ctx context.Context, email, password string) (model.Tokens, error) {
	var tokens model.Tokens
	req := LoginRequest{Email: email, Password: password}
	if err := c.send(ctx, http.MethodPost, "/auth/login", req, &tokens); err != nil {
		return model.Tokens{}, fmt.Errorf("login: %w", err)
	}
	if tokens.Access == "" {
		return model.Tokens{}, ErrNoAccessToken
	}
	return tokens, nil
}

// Logout tells the backend to end the session. Failures are logged and
// otherwise ignored.
func (c *Client) Logout(ctx context.Context, refresh string) {
	if err := c.send(ctx, http.MethodPost, "/auth/logout", LogoutRequest{Refresh: refresh}, nil); err != nil {
		c.logger.Debug("logout request failed", "error", err)
	}
}
