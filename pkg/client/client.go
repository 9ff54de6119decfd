// Package client is a Go client for the sessionhub API.
//
// Sessions live in a cookie jar. A request answered with 401 triggers one
// refresh and one retry; concurrent refreshes share a single in-flight call.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	refreshPath = "/auth/refresh"

	refreshCookie = "refreshToken"
)

// Client talks to the API on behalf of one session.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	refresh singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient uses hc for requests. A cookie jar is installed when hc has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		c.http.Jar = jar
	}

	return c, nil
}

// --- Models ---

// Account is an account as seen by its owner.
type Account struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	IsBanned  bool       `json:"isBanned"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// Profile is the body of GET /users/me.
type Profile struct {
	Account     Account  `json:"account"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// PublicAccount is another account's public view.
type PublicAccount struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	CreatedAt time.Time  `json:"createdAt"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Account Account `json:"account"`
}

// --- Auth ---

// Register creates an account and starts a session.
func (c *Client) Register(ctx context.Context, username, password string) (*Account, error) {
	var out authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", credentials{username, password}, &out); err != nil {
		return nil, err
	}
	return &out.Account, nil
}

// Login starts a session.
func (c *Client) Login(ctx context.Context, username, password string) (*Account, error) {
	var out authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", credentials{username, password}, &out); err != nil {
		return nil, err
	}
	return &out.Account, nil
}

// Logout ends the session. The refresh token is sent along so the server can revoke it.
func (c *Client) Logout(ctx context.Context) error {
	body := map[string]string{}
	if token := c.cookie(refreshPath, refreshCookie); token != "" {
		body["refreshToken"] = token
	}
	return c.do(ctx, http.MethodPost, "/auth/logout", body, nil)
}

// Refresh rotates the session tokens. Concurrent callers share one request;
// they all observe its result, including the first caller's context cancellation.
func (c *Client) Refresh(ctx context.Context) error {
	_, err, _ := c.refresh.Do("refresh", func() (any, error) {
		return nil, c.send(ctx, http.MethodPost, refreshPath, nil, nil)
	})
	return err
}

// --- Users ---

// Me returns the session owner's profile.
func (c *Client) Me(ctx context.Context) (*Profile, error) {
	var out Profile
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// User returns the public view of an account.
func (c *Client) User(ctx context.Context, accountID string) (*PublicAccount, error) {
	var out PublicAccount
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(accountID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ban bans an account. Requires users.ban.
func (c *Client) Ban(ctx context.Context, accountID string) error {
	return c.do(ctx, http.MethodPost, "/users/"+url.PathEscape(accountID)+"/ban", nil, nil)
}

// Unban lifts a ban. Requires users.ban.
func (c *Client) Unban(ctx context.Context, accountID string) error {
	return c.do(ctx, http.MethodDelete, "/users/"+url.PathEscape(accountID)+"/ban", nil, nil)
}

// AssignRole grants a role. Requires roles.assign.
func (c *Client) AssignRole(ctx context.Context, accountID, role string) error {
	body := map[string]string{"role": role}
	return c.do(ctx, http.MethodPost, "/users/"+url.PathEscape(accountID)+"/roles", body, nil)
}

// --- Transport ---

// do sends a request; a 401 outside /auth/ is retried once after a successful refresh.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	err := c.send(ctx, method, path, in, out)
	if !isUnauthorized(err) || strings.HasPrefix(path, "/auth/") {
		return err
	}

	if refreshErr := c.Refresh(ctx); refreshErr != nil {
		return err
	}
	return c.send(ctx, method, path, in, out)
}

func (c *Client) send(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) cookie(path, name string) string {
	u := *c.baseURL
	u.Path = path
	for _, ck := range c.http.Jar.Cookies(&u) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}
