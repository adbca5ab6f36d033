package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pertepiece/backend/internal/dto"
	"github.com/pertepiece/backend/internal/services"
	"github.com/pertepiece/backend/internal/session"
)

// Authenticator is the identity surface used by AuthHandler.
type Authenticator interface {
	SignUp(ctx context.Context, req *dto.SignUpRequest) (*dto.SignUpResponse, error)
	ConfirmEmail(ctx context.Context, token string) (*dto.AuthResponse, error)
	SignIn(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.AuthResponse, error)
	SignOut(ctx context.Context, refreshToken string) error
	CurrentSession(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error)
	RequestPasswordReset(ctx context.Context, email, redirectURL string) error
	Recover(ctx context.Context, token string) (*dto.AuthResponse, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, newPassword string) error
}

type AuthHandler struct {
	authService Authenticator
}

func NewAuthHandler(authService Authenticator) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var req dto.SignUpRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if !req.AcceptedPolicy {
		return errorJSON(c, fiber.StatusBadRequest, "You must accept the privacy policy")
	}

	resp, err := h.authService.SignUp(c.UserContext(), &req)
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			return errorJSON(c, fiber.StatusBadRequest, verr.Message)
		}
		if errors.Is(err, services.ErrEmailTaken) {
			return errorJSON(c, fiber.StatusConflict, "Email already registered")
		}
		slog.Error("sign up failed", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	resp, err := h.authService.SignIn(c.UserContext(), &req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return errorJSON(c, fiber.StatusUnauthorized, "Email ou mot de passe incorrect")
		}
		if errors.Is(err, services.ErrEmailNotConfirmed) {
			return errorJSON(c, fiber.StatusForbidden, "Veuillez confirmer votre email avant de vous connecter")
		}
		slog.Error("sign in failed", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return c.JSON(resp)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	resp, err := h.authService.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			return errorJSON(c, fiber.StatusUnauthorized, err.Error())
		}
		return errorJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return c.JSON(resp)
}

// Confirm opens a session from an email confirmation link.
func (h *AuthHandler) Confirm(c *fiber.Ctx) error {
	return h.exchangeToken(c, h.authService.ConfirmEmail)
}

// Recover opens a recovery session from a password reset link.
func (h *AuthHandler) Recover(c *fiber.Ctx) error {
	return h.exchangeToken(c, h.authService.Recover)
}

func (h *AuthHandler) exchangeToken(c *fiber.Ctx, exchange func(context.Context, string) (*dto.AuthResponse, error)) error {
	var req dto.TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Token == "" {
		return errorJSON(c, fiber.StatusBadRequest, "Token is required")
	}

	resp, err := exchange(c.UserContext(), req.Token)
	if err != nil {
		if errors.Is(err, services.ErrInvalidLink) || errors.Is(err, services.ErrUserNotFound) {
			return errorJSON(c, fiber.StatusUnauthorized, "Invalid or expired link")
		}
		slog.Error("token exchange failed", "path", c.Path(), "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return c.JSON(resp)
}

func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if err := h.authService.RequestPasswordReset(c.UserContext(), req.Email, req.RedirectURL); err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			return errorJSON(c, fiber.StatusBadRequest, verr.Message)
		}
		slog.Error("password reset request failed", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}

	// Same answer whether or not the account exists.
	return c.JSON(dto.MessageResponse{Message: "If an account exists for this email, a reset link has been sent"})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req dto.LogoutRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if err := h.authService.SignOut(c.UserContext(), req.RefreshToken); err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to logout")
	}

	return c.JSON(dto.MessageResponse{Message: "Logged out successfully"})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	user, err := h.authService.CurrentSession(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return errorJSON(c, fiber.StatusNotFound, "User not found")
		}
		return errorJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}
	user.Recovery = session.IsRecovery(c)

	return c.JSON(user)
}

func (h *AuthHandler) UpdatePassword(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.UpdatePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Password != req.ConfirmPassword {
		return errorJSON(c, fiber.StatusBadRequest, "Passwords do not match")
	}

	if err := h.authService.UpdatePassword(c.UserContext(), userID, req.Password); err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			return errorJSON(c, fiber.StatusBadRequest, verr.Message)
		}
		if errors.Is(err, services.ErrUserNotFound) {
			return errorJSON(c, fiber.StatusNotFound, "User not found")
		}
		slog.Error("password update failed", "user_id", userID.String(), "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to update password")
	}

	return c.JSON(dto.MessageResponse{Message: "Password updated successfully"})
}
