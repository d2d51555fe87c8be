// Package http provides the development backend's HTTP handlers for login,
// password reset and profile endpoints.
package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/vidyasetu/vidyasetu/internal/models"
)

// AuthService defines the authentication operations required by the
// handlers.
type AuthService interface {
	// Login returns a new bearer token and the user it belongs to.
	Login(ctx context.Context, identifier, password string) (string, models.User, error)
	// SendOTP issues a password reset code.
	SendOTP(ctx context.Context, email string) error
	// ResetPassword consumes a reset code and sets a new password.
	ResetPassword(ctx context.Context, email, otp, newPassword string) error
}

// AuthHandler handles the /auth endpoints.
type AuthHandler struct {
	// AuthService performs the underlying authentication operations.
	AuthService AuthService
}

// Login handles POST /auth/login with {"emailOrId", "password"}.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	token, user, err := h.AuthService.Login(r.Context(), req.EmailOrID, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.LoginResponse{Token: token, User: &user, Message: "Login successful"})
}

// SendOTP handles POST /auth/send-otp with {"email"}.
func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req models.SendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := h.AuthService.SendOTP(r.Context(), req.Email); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.StatusResponse{Success: true, Message: "OTP sent to your email"})
}

// ResetPassword handles POST /auth/reset-password with
// {"email", "otp", "newPassword"}.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := h.AuthService.ResetPassword(r.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.ResetPasswordResponse{Success: true, Message: "Password reset successful"})
}
