package api

import (
	"context"
	"net/http"

	"github.com/talkscribe/talkscribe-go/internal/client/token"
	"github.com/talkscribe/talkscribe-go/internal/models"
)

const (
	pathLogin    = "/accounts/login/"
	pathRegister = "/accounts/register/"
	pathGetUser  = "/accounts/get_user/"
	pathLogout   = "/accounts/logout/"
)

// RegisterParams is the payload for account creation. Email and Password are
// required; the name fields are optional.
type RegisterParams struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Login exchanges credentials for a token pair. It does not persist the
// tokens; that transition belongs to the session manager.
func (c *Client) Login(ctx context.Context, email, password string) (models.TokenPair, error) {
	if email == "" || password == "" {
		return models.TokenPair{}, &ValidationError{Message: "email and password are required"}
	}
	payload := map[string]string{"email": email, "password": password}
	var pair models.TokenPair
	if err := c.doJSON(ctx, http.MethodPost, pathLogin, payload, &pair, false); err != nil {
		return models.TokenPair{}, err
	}
	return pair, nil
}

// Register creates a new account and returns the created user with its
// initial token pair.
func (c *Client) Register(ctx context.Context, p RegisterParams) (models.RegisterResult, error) {
	if p.Email == "" || p.Password == "" {
		return models.RegisterResult{}, &ValidationError{Message: "email and password are required"}
	}
	var res models.RegisterResult
	if err := c.doJSON(ctx, http.MethodPost, pathRegister, p, &res, false); err != nil {
		return models.RegisterResult{}, err
	}
	return res, nil
}

// CurrentUser fetches the account snapshot for the active session.
func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.doJSON(ctx, http.MethodGet, pathGetUser, nil, &u, true); err != nil {
		return nil, err
	}
	return &u, nil
}

// Logout asks the server to revoke the stored refresh token. Local cleanup
// is the session manager's responsibility, so an error here is advisory.
func (c *Client) Logout(ctx context.Context) error {
	payload := map[string]string{"refresh": c.tokens.Get(token.Refresh)}
	return c.doJSON(ctx, http.MethodPost, pathLogout, payload, nil, true)
}
