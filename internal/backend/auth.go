package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/breadcrumbsapp/breadcrumbs/internal/breadcrumbs"
)

var ErrNoSession = errors.New("no valid session")

// Session is what the auth provider returns on sign-in/sign-up.
type Session struct {
	AccessToken string      `json:"access_token"`
	User        sessionUser `json:"user"`
}

type sessionUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	UserMetadata struct {
		DisplayName string `json:"display_name"`
	} `json:"user_metadata"`
}

// SignUp registers a new account with the auth provider.
func (c *Client) SignUp(ctx context.Context, email, password, displayName string) (Session, error) {
	return c.authSession(ctx, "/signup", map[string]any{
		"email":    email,
		"password": password,
		"data":     map[string]string{"display_name": displayName},
	})
}

// SignIn exchanges credentials for a session. Credentials are verified by
// the provider; nothing is checked locally.
func (c *Client) SignIn(ctx context.Context, email, password string) (Session, error) {
	return c.authSession(ctx, "/token?grant_type=password", map[string]string{
		"email":    email,
		"password": password,
	})
}

// SignOut invalidates the session token with the provider.
func (c *Client) SignOut(ctx context.Context, token string) error {
	resp, err := c.authDo(ctx, http.MethodPost, "/logout", token, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.asError(resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// UserFromToken resolves a bearer token to the user it belongs to.
// An invalid or expired token yields ErrNoSession.
func (c *Client) UserFromToken(ctx context.Context, token string) (breadcrumbs.User, error) {
	resp, err := c.authDo(ctx, http.MethodGet, "/user", token, nil)
	if err != nil {
		return breadcrumbs.User{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		io.Copy(io.Discard, resp.Body)
		return breadcrumbs.User{}, ErrNoSession
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return breadcrumbs.User{}, c.asError(resp)
	}

	var u sessionUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return breadcrumbs.User{}, fmt.Errorf("decoding user: %w", err)
	}
	return breadcrumbs.User{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.UserMetadata.DisplayName,
	}, nil
}

func (c *Client) authSession(ctx context.Context, path string, body any) (Session, error) {
	resp, err := c.authDo(ctx, http.MethodPost, path, "", body)
	if err != nil {
		return Session{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Session{}, c.asError(resp)
	}

	var s Session
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return Session{}, fmt.Errorf("decoding session: %w", err)
	}
	return s, nil
}

func (c *Client) authDo(ctx context.Context, method, path, token string, body any) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding auth body: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.authURL+path, rd)
	if err != nil {
		return nil, fmt.Errorf("building auth request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.setAuth(req, token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling auth provider: %w", err)
	}
	return resp, nil
}
