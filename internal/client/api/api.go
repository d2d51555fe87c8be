// Package api exposes the backend endpoints the session layer depends on.
package api

import (
	"context"
	"strings"

	"github.com/vidyasetu/vidyasetu/internal/client/clienterr"
	"github.com/vidyasetu/vidyasetu/internal/client/gateway"
	"github.com/vidyasetu/vidyasetu/internal/models"
)

// Backend paths.
const (
	PathLogin         = "/auth/login"
	PathSendOTP       = "/auth/send-otp"
	PathResetPassword = "/auth/reset-password"
	PathProfile       = "/profile"
	PathUpdateProfile = "/profile/update"
)

// Client calls the authentication and profile endpoints through the gateway.
type Client struct {
	gw *gateway.Client
}

// New wraps gw.
func New(gw *gateway.Client) *Client {
	return &Client{gw: gw}
}

// Login exchanges credentials for a token and the user record. A reply
// without a token or user is a decode error.
func (c *Client) Login(ctx context.Context, identifier, password string) (models.LoginResponse, error) {
	var resp models.LoginResponse
	err := c.gw.Post(ctx, PathLogin, models.LoginRequest{EmailOrID: identifier, Password: password}, &resp)
	if err != nil {
		return models.LoginResponse{}, err
	}
	if strings.TrimSpace(resp.Token) == "" || resp.User == nil {
		return models.LoginResponse{}, clienterr.New(clienterr.KindDecode, "api.login", "login response missing token or user")
	}
	return resp, nil
}

// SendOTP asks the backend to mail a reset code.
func (c *Client) SendOTP(ctx context.Context, email string) error {
	return c.gw.Post(ctx, PathSendOTP, models.SendOTPRequest{Email: email}, nil)
}

// ResetPassword sets a new password using the mailed code.
func (c *Client) ResetPassword(ctx context.Context, email, otp, newPassword string) (models.ResetPasswordResponse, error) {
	var resp models.ResetPasswordResponse
	err := c.gw.Post(ctx, PathResetPassword, models.ResetPasswordRequest{
		Email:       email,
		OTP:         otp,
		NewPassword: newPassword,
	}, &resp)
	return resp, err
}

// Profile fetches the full user record from path; an empty path means
// PathProfile.
func (c *Client) Profile(ctx context.Context, path string) (models.User, error) {
	if path == "" {
		path = PathProfile
	}
	var resp models.ProfileResponse
	if err := c.gw.Get(ctx, path, &resp); err != nil {
		return models.User{}, err
	}
	return profileUser("api.profile", resp)
}

// UpdateProfile uploads form to path and returns the full updated record.
// An empty path means PathUpdateProfile.
func (c *Client) UpdateProfile(ctx context.Context, path string, form *gateway.Multipart) (models.User, error) {
	if path == "" {
		path = PathUpdateProfile
	}
	var resp models.ProfileResponse
	if err := c.gw.Put(ctx, path, form, &resp); err != nil {
		return models.User{}, err
	}
	return profileUser("api.update_profile", resp)
}

func profileUser(op string, resp models.ProfileResponse) (models.User, error) {
	if resp.User == nil {
		return models.User{}, clienterr.New(clienterr.KindDecode, op, "profile response missing user")
	}
	return *resp.User, nil
}
