// Package backend is the typed client for the remote data and auth service.
// All persistence and business rules (friend graph, hunt progression,
// visibility filtering) live on the remote side; this package only shapes
// requests and decodes responses. Procedures are trusted for correctness,
// nothing is re-validated here.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var ErrNotFound = errors.New("not found")

// Error is a non-2xx response from the remote service.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("backend: %s (status %d)", e.Message, e.Status)
}

type Client struct {
	baseURL string
	authURL string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger
}

func New(baseURL, authURL, apiKey string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		authURL: strings.TrimRight(authURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
}

// rpc calls a remote procedure: POST {base}/rpc/{name} with a JSON params
// object. out may be nil for side-effect-only procedures.
func (c *Client) rpc(ctx context.Context, token, name string, params, out any) error {
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encoding %s params: %w", name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rpc/"+name, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building %s request: %w", name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuth(req, token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := c.asError(resp)
		c.logger.Error("rpc failed", "procedure", name, "error", err)
		return err
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", name, err)
	}
	return nil
}

// rest reads or writes table rows through the REST surface, e.g.
// GET {base}/user_hunt_progress?user_id=eq.X&select=current_note.
func (c *Client) rest(ctx context.Context, token, method, table string, query url.Values, body, out any) error {
	u := c.baseURL + "/" + table
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s body: %w", table, err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return fmt.Errorf("building %s request: %w", table, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.setAuth(req, token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("querying %s: %w", table, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := c.asError(resp)
		c.logger.Error("rest call failed", "table", table, "method", method, "error", err)
		return err
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", table, err)
	}
	return nil
}

func (c *Client) setAuth(req *http.Request, token string) {
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func (c *Client) asError(resp *http.Response) error {
	var body struct {
		Message          string `json:"message"`
		Msg              string `json:"msg"`
		ErrorDescription string `json:"error_description"`
	}
	json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body)

	msg := body.Message
	if msg == "" {
		msg = body.Msg
	}
	if msg == "" {
		msg = body.ErrorDescription
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &Error{Status: resp.StatusCode, Message: msg}
}

// Ping checks that the remote auth service answers at all. Used by the
// health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.authURL+"/health", nil)
	if err != nil {
		return err
	}
	c.setAuth(req, "")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode >= 500 {
		return &Error{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	return nil
}
