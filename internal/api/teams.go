package api

import (
	"context"

	"github.com/tgienger/taskflow/internal/models"
)

// MyInvitations lists invitations addressed to the session user
func (c *Client) MyInvitations(ctx context.Context) ([]models.Invitation, error) {
	var out struct {
		Invitations []models.Invitation `json:"invitations"`
	}
	if err := c.do(ctx, "GET", "/teams/my-invitations", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Invitations, nil
}

// SendInvite invites email to the user's team
func (c *Client) SendInvite(ctx context.Context, email string) error {
	return c.do(ctx, "POST", "/teams/send-invite", nil, map[string]string{"email": email}, nil)
}

// AcceptInvite joins the team behind an invitation
func (c *Client) AcceptInvite(ctx context.Context, invitationID string) error {
	return c.do(ctx, "POST", "/teams/accept-invite", nil, map[string]string{"invitationId": invitationID}, nil)
}
