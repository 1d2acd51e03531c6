package api

import (
	"context"

	"github.com/tgienger/taskflow/internal/models"
)

// ProfileUser returns the account record of the session user
func (c *Client) ProfileUser(ctx context.Context) (*models.User, error) {
	var out userEnvelope
	if err := c.do(ctx, "GET", "/users/profile-user", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.user("profile user")
}

// GetProfile returns the extended profile fields
func (c *Client) GetProfile(ctx context.Context) (*models.Profile, error) {
	var out struct {
		Profile models.Profile `json:"profile"`
	}
	if err := c.do(ctx, "GET", "/profile/get-profile", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Profile, nil
}

// UpdateUser changes the display name
func (c *Client) UpdateUser(ctx context.Context, name string) (*models.User, error) {
	var out userEnvelope
	if err := c.do(ctx, "PUT", "/users/update-user", nil, map[string]string{"name": name}, &out); err != nil {
		return nil, err
	}
	return out.user("update user")
}

// RequestEmailChange sends a code to the new address
func (c *Client) RequestEmailChange(ctx context.Context, newEmail string) error {
	return c.do(ctx, "PUT", "/users/update-email/request", nil, map[string]string{"email": newEmail}, nil)
}

// VerifyEmailChange confirms the new address with the emailed code
func (c *Client) VerifyEmailChange(ctx context.Context, newEmail, otp string) (*models.User, error) {
	var out userEnvelope
	body := map[string]string{"email": newEmail, "otp": otp}
	if err := c.do(ctx, "PUT", "/users/update-email/verify", nil, body, &out); err != nil {
		return nil, err
	}
	return out.user("verify email")
}

// UpdateProfile saves the extended profile fields
func (c *Client) UpdateProfile(ctx context.Context, p models.Profile) (*models.Profile, error) {
	var out struct {
		Profile models.Profile `json:"profile"`
	}
	if err := c.do(ctx, "PUT", "/profile/update-profile", nil, p, &out); err != nil {
		return nil, err
	}
	return &out.Profile, nil
}
