// Package apiclient holds the bearer token used for backend calls. The
// session machine is its only writer through SetToken.
package apiclient

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-courier"
)

const (
	TextCodeNoToken        = "API_CLIENT_NO_TOKEN"
	TextCodeTokenMalformed = "API_CLIENT_TOKEN_MALFORMED"
)

// ErrNoToken is returned when claims are requested without a token.
var ErrNoToken = goerrors.New("no bearer token set", goerrors.CategoryAuth).
	WithTextCode(TextCodeNoToken).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned when the token is not a decodable JWT.
var ErrTokenMalformed = goerrors.New("bearer token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// Client attaches the current bearer token to outgoing requests.
type Client struct {
	baseURL string
	http    *http.Client
	now     func() time.Time

	mu    sync.RWMutex
	token string
}

// New creates a client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// SetToken implements courier.TokenSetter. An empty token clears it.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Authorize sets the Authorization header on req, or removes it when no
// token is held.
func (c *Client) Authorize(req *http.Request) {
	token := c.Token()
	if token == "" {
		req.Header.Del("Authorization")
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)
}

// NewRequest builds an authorized request for a path below the base URL.
func (c *Client) NewRequest(method, path string) (*http.Request, error) {
	req, err := http.NewRequest(method, c.baseURL+"/"+strings.TrimLeft(path, "/"), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	c.Authorize(req)
	return req, nil
}

// Do sends an authorized request.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	c.Authorize(req)
	return c.http.Do(req)
}

// Claims decodes the token claims without verifying the signature. The
// backend verifies tokens; the client only reads them for display and expiry.
func (c *Client) Claims() (*TokenClaims, error) {
	token := c.Token()
	if token == "" {
		return nil, ErrNoToken
	}

	claims := &TokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	return claims, nil
}

// Expired reports whether the token carries an expiry in the past. Tokens
// without an exp claim never expire on the client.
func (c *Client) Expired() (bool, error) {
	claims, err := c.Claims()
	if err != nil {
		return false, err
	}
	exp := claims.Expires()
	return !exp.IsZero() && !c.now().Before(exp), nil
}

var _ courier.TokenSetter = (*Client)(nil)
