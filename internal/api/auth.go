package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/nissyi-gh/teamflow/internal/model"
)

// AuthResponse is the body of a successful login or signup.
type AuthResponse struct {
	Token string         `json:"token"`
	User  *model.Profile `json:"user"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// Login exchanges credentials for a token and profile.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResponse, error) {
	var resp AuthResponse
	err := c.do(ctx, "login", http.MethodPost, "/auth/login", nil, loginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return AuthResponse{}, err
	}
	return resp, resp.validate("login")
}

// Signup registers a new account and returns its token and profile.
func (c *Client) Signup(ctx context.Context, name, email, password, confirmation string) (AuthResponse, error) {
	var resp AuthResponse
	err := c.do(ctx, "signup", http.MethodPost, "/auth/signup", nil, signupRequest{
		Name:                 name,
		Email:                email,
		Password:             password,
		PasswordConfirmation: confirmation,
	}, &resp)
	if err != nil {
		return AuthResponse{}, err
	}
	return resp, resp.validate("signup")
}

// Logout invalidates the current token on the service.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, "logout", http.MethodPost, "/logout", nil, nil, nil)
}

func (r AuthResponse) validate(op string) error {
	if r.Token == "" || r.User == nil {
		return errors.New(op + ": response is missing token or user")
	}
	return nil
}
