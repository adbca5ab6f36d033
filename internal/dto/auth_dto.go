package dto

import "github.com/google/uuid"

type SignUpRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	FullName       string `json:"full_name"`
	AcceptedPolicy bool   `json:"accepted_policy"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenRequest carries a one-time token from an emailed link.
type TokenRequest struct {
	Token string `json:"token"`
}

type ForgotPasswordRequest struct {
	Email       string `json:"email"`
	RedirectURL string `json:"redirect_url,omitempty"`
}

type UpdatePasswordRequest struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type AuthResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	User         UserResponse `json:"user"`
}

type SignUpResponse struct {
	ConfirmationRequired bool          `json:"confirmation_required"`
	Session              *AuthResponse `json:"session,omitempty"`
}

type UserResponse struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	FullName    string    `json:"full_name"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	Recovery    bool      `json:"recovery,omitempty"`
}

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}
