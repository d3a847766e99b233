package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// CurrentUser asks the server who owns the session cookie.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.sendJSON(ctx, http.MethodGet, "/auth/users/me", nil, &user); err != nil {
		return nil, fmt.Errorf("fetching current user: %w", err)
	}
	return &user, nil
}

// Login posts form credentials to /auth/login. On success the server sets
// the session cookie; the response body is ignored.
func (c *Client) Login(ctx context.Context, email, password string) error {
	form := url.Values{
		"username": {email},
		"password": {password},
		"scope":    {""},
	}
	resp, err := c.Do(ctx, http.MethodPost, "/auth/login",
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return readStatusError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Register creates an account. It does not start a session.
func (c *Client) Register(ctx context.Context, in UserCreate) (*User, error) {
	var user User
	if err := c.sendJSON(ctx, http.MethodPost, "/auth/register", in, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout asks the server to drop the session. Only transport failures are
// reported; the status code is not checked.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.Do(ctx, http.MethodPost, "/auth/logout", nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
