// Package api is the HTTP client for the barbot server.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/barbot/internal/common"
	"github.com/dmitrijs2005/barbot/internal/netx"
)

var (
	ErrUnauthorized = errors.New("not authorized")
	ErrUnavailable  = errors.New("server unavailable")
)

// APIError carries the server's status and "detail" message.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Detail)
}

func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
	Disabled bool   `json:"disabled"`
}

type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Register(ctx context.Context, username, email string, password []byte, fullName string) (*User, error) {
	var u User
	err := netx.PostJSON(ctx, c.http, c.baseURL+"/register", nil, map[string]string{
		"username":  username,
		"email":     email,
		"password":  string(password),
		"full_name": fullName,
	}, &u)
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (c *Client) Login(ctx context.Context, username string, password []byte) (*Token, error) {
	var t Token
	form := url.Values{"username": {username}, "password": {string(password)}}
	if err := netx.PostForm(ctx, c.http, c.baseURL+"/token", nil, form, &t); err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (c *Client) Me(ctx context.Context, token string) (*User, error) {
	var u User
	if err := netx.GetJSON(ctx, c.http, c.baseURL+"/users/me", bearer(token), &u); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// Chat sends the conversation and returns the server's reply object.
func (c *Client) Chat(ctx context.Context, token string, messages []Message) (map[string]any, error) {
	var out struct {
		Response map[string]any `json:"response"`
	}
	err := netx.PostJSON(ctx, c.http, c.baseURL+"/chat", bearer(token), map[string]any{"messages": messages}, &out)
	if err != nil {
		return nil, translate(err)
	}
	return out.Response, nil
}

func (c *Client) Ping(ctx context.Context) error {
	if err := netx.GetJSON(ctx, c.http, c.baseURL+"/healthz", nil, nil); err != nil {
		return translate(err)
	}
	return nil
}

func bearer(token string) http.Header {
	h := http.Header{}
	h.Set(common.AuthorizationHeaderName, "Bearer "+token)
	return h
}

func translate(err error) error {
	var se *netx.StatusError
	if !errors.As(err, &se) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	detail := se.Status
	var body struct {
		Detail any `json:"detail"`
	}
	if json.Unmarshal(se.Body, &body) == nil && body.Detail != nil {
		if s, ok := body.Detail.(string); ok {
			detail = s
		} else {
			b, _ := json.Marshal(body.Detail)
			detail = string(b)
		}
	}
	return &APIError{StatusCode: se.StatusCode, Detail: detail}
}
