package client

import (
	"context"
)

const userFields = `id email displayName bio createdAt`

// =============================================================================
// ACCOUNT OPERATIONS
// =============================================================================

// Register creates an account and returns a session token.
func (c *Client) Register(ctx context.Context, email, password, displayName string) (*AuthPayload, error) {
	const query = `
		mutation Register($input: RegisterInput!) {
			register(input: $input) { token user { ` + userFields + ` } }
		}
	`

	input := map[string]any{"email": email, "password": password, "displayName": displayName}
	var result struct {
		Register AuthPayload `json:"register"`
	}
	if err := c.Execute(ctx, query, map[string]any{"input": input}, &result); err != nil {
		return nil, err
	}
	return &result.Register, nil
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthPayload, error) {
	const query = `
		mutation Login($email: String!, $password: String!) {
			login(email: $email, password: $password) { token user { ` + userFields + ` } }
		}
	`

	var result struct {
		Login AuthPayload `json:"login"`
	}
	if err := c.Execute(ctx, query, map[string]any{"email": email, "password": password}, &result); err != nil {
		return nil, err
	}
	return &result.Login, nil
}

// Me returns the authenticated user, or nil when the token is missing or invalid.
func (c *Client) Me(ctx context.Context) (*User, error) {
	const query = `
		query Me {
			me { ` + userFields + ` }
		}
	`

	var result struct {
		Me *User `json:"me"`
	}
	if err := c.Execute(ctx, query, nil, &result); err != nil {
		return nil, err
	}
	return result.Me, nil
}

// ProfileInput holds optional profile changes.
type ProfileInput struct {
	DisplayName     *string `json:"displayName,omitempty"`
	Bio             *string `json:"bio,omitempty"`
	Password        *string `json:"password,omitempty"`
	CurrentPassword *string `json:"currentPassword,omitempty"`
}

// UpdateProfile changes the authenticated user's profile.
func (c *Client) UpdateProfile(ctx context.Context, input ProfileInput) (*User, error) {
	const query = `
		mutation UpdateProfile($input: ProfileInput!) {
			updateProfile(input: $input) { ` + userFields + ` }
		}
	`

	var result struct {
		UpdateProfile User `json:"updateProfile"`
	}
	if err := c.Execute(ctx, query, map[string]any{"input": input}, &result); err != nil {
		return nil, err
	}
	return &result.UpdateProfile, nil
}

// RequestPasswordReset asks the server to issue a reset token for email.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	const query = `
		mutation RequestPasswordReset($email: String!) {
			requestPasswordReset(email: $email)
		}
	`
	return c.Execute(ctx, query, map[string]any{"email": email}, nil)
}

// ResetPassword sets a new password using a reset token.
func (c *Client) ResetPassword(ctx context.Context, token, password string) error {
	const query = `
		mutation ResetPassword($token: String!, $password: String!) {
			resetPassword(token: $token, password: $password)
		}
	`
	return c.Execute(ctx, query, map[string]any{"token": token, "password": password}, nil)
}
