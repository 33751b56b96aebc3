package client

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/raphaelgruber/kbchat/internal/metrics"
	"github.com/raphaelgruber/kbchat/internal/models"
)

// Login posts credentials to /auth/login and returns the user and token from data[0].
func (c *Client) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResult, error) {
	return c.authenticate(ctx, metrics.OpLogin, "/auth/login", req)
}

// Signup posts a registration to /auth/register and returns the new session.
func (c *Client) Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResult, error) {
	return c.authenticate(ctx, metrics.OpSignup, "/auth/register", req)
}

func (c *Client) authenticate(ctx context.Context, op, path string, body any) (*models.AuthResult, error) {
	raw, err := c.do(ctx, op, http.MethodPost, path, "", body)
	if err != nil {
		return nil, err
	}

	result, err := decodeOne[models.AuthResult](raw)
	if err != nil {
		return nil, err
	}
	// Never hand back half a session.
	if result.Token == "" || !result.User.Valid() {
		return nil, ErrInvalidResponse
	}
	return result, nil
}

// mePayload accepts both a user object and a {"user": {...}} wrapper.
type mePayload struct {
	models.User
	Wrapped *models.User `json:"user"`
}

func (p *mePayload) user() *models.User {
	if p.Wrapped.Valid() {
		return p.Wrapped
	}
	if p.User.Valid() {
		u := p.User
		return &u
	}
	return nil
}

// ValidateToken fetches /users/me with the bearer token. Both the standard
// envelope and a bare user object count as success; any other shape fails.
func (c *Client) ValidateToken(ctx context.Context, token string) (*models.User, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}

	raw, err := c.do(ctx, metrics.OpValidateToken, http.MethodGet, "/users/me", token, nil)
	if err != nil {
		return nil, err
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, ErrInvalidResponse
	}

	if _, ok := probe["status"]; ok {
		p, err := decodeOne[mePayload](raw)
		if err != nil {
			return nil, err
		}
		if u := p.user(); u != nil {
			return u, nil
		}
		return nil, ErrInvalidResponse
	}

	var bare models.User
	if err := json.Unmarshal(raw, &bare); err != nil || !bare.Valid() {
		return nil, ErrInvalidResponse
	}
	return &bare, nil
}
