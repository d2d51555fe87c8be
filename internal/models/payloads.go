package models

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	EmailOrID string `json:"emailOrId"`
	Password  string `json:"password"`
}

// LoginResponse carries the bearer token and the principal on success.
type LoginResponse struct {
	Token   string `json:"token"`
	User    *User  `json:"user"`
	Message string `json:"message,omitempty"`
}

// SendOTPRequest is the body of POST /auth/send-otp.
type SendOTPRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest is the body of POST /auth/reset-password.
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

// StatusResponse is the generic {success, message} reply.
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ResetPasswordResponse may carry a fresh session when the backend logs the
// user in as part of the reset.
type ResetPasswordResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Token   string `json:"token,omitempty"`
	User    *User  `json:"user,omitempty"`
}

// ProfileResponse returns the full user record, never a partial patch.
type ProfileResponse struct {
	Success bool   `json:"success"`
	User    *User  `json:"user"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Message string `json:"message"`
}
