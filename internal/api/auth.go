package api

import (
	"context"
	"fmt"

	"github.com/tgienger/taskflow/internal/models"
)

type userEnvelope struct {
	User *models.User `json:"user"`
}

func (e userEnvelope) user(what string) (*models.User, error) {
	if e.User == nil || e.User.ID == "" {
		return nil, fmt.Errorf("%s: response has no user", what)
	}
	return e.User, nil
}

// Protected asks the gateway who the current session belongs to
func (c *Client) Protected(ctx context.Context) (*models.User, error) {
	var out userEnvelope
	if err := c.do(ctx, "GET", "/auth/protected", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.user("session check")
}

// Login exchanges credentials for a session cookie
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	var out userEnvelope
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, "POST", "/auth/login", nil, body, &out); err != nil {
		return nil, err
	}
	return out.user("login")
}

// Logout ends the session on the server
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, "POST", "/auth/logout", nil, nil, nil)
}

// Signup starts a registration; the returned temp user id is needed to
// verify the emailed code
func (c *Client) Signup(ctx context.Context, name, email, password string) (string, error) {
	var out struct {
		TempUserID string `json:"tempUserId"`
	}
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := c.do(ctx, "POST", "/auth/signup", nil, body, &out); err != nil {
		return "", err
	}
	if out.TempUserID == "" {
		return "", fmt.Errorf("signup: response has no tempUserId")
	}
	return out.TempUserID, nil
}

// VerifySignupOTP completes a registration
func (c *Client) VerifySignupOTP(ctx context.Context, tempUserID, otp string) error {
	body := map[string]string{"tempUserId": tempUserID, "otp": otp}
	return c.do(ctx, "POST", "/auth/verify-signup-otp", nil, body, nil)
}

// ResendSignupOTP sends a fresh registration code
func (c *Client) ResendSignupOTP(ctx context.Context, tempUserID string) error {
	body := map[string]string{"tempUserId": tempUserID}
	return c.do(ctx, "POST", "/auth/resend-signup-otp", nil, body, nil)
}

// ForgotPassword emails a reset link
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.do(ctx, "POST", "/auth/forgot-password", nil, map[string]string{"email": email}, nil)
}

// ResetPassword sets a new password using the emailed token
func (c *Client) ResetPassword(ctx context.Context, token, password string) error {
	body := map[string]string{"token": token, "password": password}
	return c.do(ctx, "POST", "/auth/reset-password", nil, body, nil)
}
