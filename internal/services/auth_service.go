package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"net/url"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pertepiece/backend/internal/config"
	"github.com/pertepiece/backend/internal/dto"
	"github.com/pertepiece/backend/internal/events"
	"github.com/pertepiece/backend/internal/models"
	"github.com/pertepiece/backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLength = 6

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailNotConfirmed  = errors.New("email not confirmed")
	ErrInvalidToken       = errors.New("invalid or expired refresh token")
	ErrInvalidLink        = errors.New("invalid or expired link")
	ErrUserNotFound       = errors.New("user not found")
)

type AuthService struct {
	accounts repository.AccountRepository
	cfg      *config.Config
	events   events.Publisher
	now      func() time.Time
}

func NewAuthService(accounts repository.AccountRepository, cfg *config.Config, publisher events.Publisher) *AuthService {
	return &AuthService{
		accounts: accounts,
		cfg:      cfg,
		events:   publisher,
		now:      time.Now,
	}
}

func validateCredentials(email, password string) error {
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return &ValidationError{Field: "email", Message: "a valid email is required"}
	}
	return validatePassword(password)
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return &ValidationError{Field: "password", Message: fmt.Sprintf("password must be at least %d characters", MinPasswordLength)}
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp creates the identity and its profile in one transaction. When
// email confirmation is required no session is returned.
func (s *AuthService) SignUp(ctx context.Context, req *dto.SignUpRequest) (*dto.SignUpResponse, error) {
	email := normalizeEmail(req.Email)
	if err := validateCredentials(email, req.Password); err != nil {
		return nil, err
	}
	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		return nil, &ValidationError{Field: "full_name", Message: "full name is required"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:       uuid.New(),
		Email:    email,
		Password: string(hash),
	}
	if !s.cfg.RequireEmailConfirmation {
		now := s.now()
		user.EmailConfirmedAt = &now
	}
	profile := models.Profile{
		ID:       user.ID,
		FullName: fullName,
		Role:     models.RoleCitizen,
	}

	if err := s.accounts.CreateAccount(ctx, &user, &profile); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	slog.Info("user signed up", "user_id", user.ID.String())

	if s.cfg.RequireEmailConfirmation {
		raw, err := s.issueOneTimeToken(ctx, user.ID, models.TokenPurposeConfirmation, s.cfg.ConfirmationTokenExpiry)
		if err != nil {
			return nil, err
		}
		s.notify(ctx, events.AuthEmailConfirmation, user.Email, raw, "")
		return &dto.SignUpResponse{ConfirmationRequired: true}, nil
	}

	session, err := s.generateTokenPair(ctx, &user, &profile, false)
	if err != nil {
		return nil, err
	}
	return &dto.SignUpResponse{Session: session}, nil
}

func (s *AuthService) ConfirmEmail(ctx context.Context, token string) (*dto.AuthResponse, error) {
	userID, err := s.consumeOneTimeToken(ctx, token, models.TokenPurposeConfirmation)
	if err != nil {
		return nil, err
	}

	if err := s.accounts.ConfirmEmail(ctx, userID, s.now()); err != nil {
		return nil, err
	}

	user, profile, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.generateTokenPair(ctx, user, profile, false)
}

func (s *AuthService) SignIn(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.accounts.FindUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.Confirmed() {
		return nil, ErrEmailNotConfirmed
	}

	profile, err := s.loadProfile(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return s.generateTokenPair(ctx, user, profile, false)
}

// Refresh rotates a refresh token. The presented token is revoked before a
// new pair is issued, so replaying it fails.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*dto.AuthResponse, error) {
	stored, err := s.accounts.ClaimRefreshToken(ctx, hashToken(refreshToken))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if stored.Expired(s.now()) {
		return nil, ErrInvalidToken
	}

	user, profile, err := s.loadUser(ctx, stored.UserID)
	if err != nil {
		return nil, err
	}
	return s.generateTokenPair(ctx, user, profile, false)
}

func (s *AuthService) SignOut(ctx context.Context, refreshToken string) error {
	return s.accounts.RevokeRefreshToken(ctx, hashToken(refreshToken))
}

// CurrentSession returns the signed-in user with profile data.
func (s *AuthService) CurrentSession(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	user, profile, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := userResponse(user, profile)
	return &resp, nil
}

// RequestPasswordReset emails a recovery link when the account exists. The
// outcome is the same either way so callers cannot probe for accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email, redirectURL string) error {
	email = normalizeEmail(email)
	if email == "" {
		return &ValidationError{Field: "email", Message: "email is required"}
	}
	redirect, err := s.resolveRedirect(redirectURL)
	if err != nil {
		return err
	}

	user, err := s.accounts.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			slog.Debug("password reset requested for unknown email")
			return nil
		}
		return err
	}

	raw, err := s.issueOneTimeToken(ctx, user.ID, models.TokenPurposeRecovery, s.cfg.RecoveryTokenExpiry)
	if err != nil {
		return err
	}
	s.notify(ctx, events.AuthPasswordRecovery, user.Email, raw, redirect)
	return nil
}

// Recover exchanges an emailed recovery token for a session flagged as a
// recovery session.
func (s *AuthService) Recover(ctx context.Context, token string) (*dto.AuthResponse, error) {
	userID, err := s.consumeOneTimeToken(ctx, token, models.TokenPurposeRecovery)
	if err != nil {
		return nil, err
	}

	user, profile, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.generateTokenPair(ctx, user, profile, true)
}

// UpdatePassword sets a new password and revokes every refresh token of
// the user, ending other sessions.
func (s *AuthService) UpdatePassword(ctx context.Context, userID uuid.UUID, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.accounts.UpdatePassword(ctx, userID, string(hash), s.now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// RoleOf returns the profile role, CITOYEN when no profile exists.
func (s *AuthService) RoleOf(ctx context.Context, userID uuid.UUID) (string, error) {
	profile, err := s.loadProfile(ctx, userID)
	if err != nil {
		return "", err
	}
	return profile.Role, nil
}

func (s *AuthService) loadUser(ctx context.Context, userID uuid.UUID) (*models.User, *models.Profile, error) {
	user, err := s.accounts.FindUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, err
	}
	profile, err := s.loadProfile(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return user, profile, nil
}

func (s *AuthService) loadProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	profile, err := s.accounts.FindProfile(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return &models.Profile{ID: userID, Role: models.RoleCitizen}, nil
	}
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *AuthService) resolveRedirect(redirectURL string) (string, error) {
	fallback := s.cfg.PasswordResetRedirectURL
	if redirectURL == "" {
		return fallback, nil
	}
	want, err := url.Parse(fallback)
	if err != nil {
		return "", fmt.Errorf("invalid configured redirect: %w", err)
	}
	got, err := url.Parse(redirectURL)
	if err != nil || got.Scheme != want.Scheme || got.Host != want.Host {
		return "", &ValidationError{Field: "redirect_url", Message: "redirect url is not allowed"}
	}
	return redirectURL, nil
}

func (s *AuthService) issueOneTimeToken(ctx context.Context, userID uuid.UUID, purpose string, ttl time.Duration) (string, error) {
	raw, err := randomToken()
	if err != nil {
		return "", err
	}
	record := models.OneTimeToken{
		ID:        uuid.New(),
		UserID:    userID,
		Purpose:   purpose,
		TokenHash: hashToken(raw),
		ExpiresAt: s.now().Add(ttl),
	}
	if err := s.accounts.CreateOneTimeToken(ctx, &record); err != nil {
		return "", err
	}
	return raw, nil
}

func (s *AuthService) consumeOneTimeToken(ctx context.Context, raw, purpose string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, ErrInvalidLink
	}

	record, err := s.accounts.ConsumeOneTimeToken(ctx, hashToken(raw), purpose, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return uuid.Nil, ErrInvalidLink
		}
		return uuid.Nil, err
	}
	return record.UserID, nil
}

// notify publishes the email event carrying the link. Without a broker the
// link is only logged in development.
func (s *AuthService) notify(ctx context.Context, eventType, email, token, redirect string) {
	payload := map[string]interface{}{
		"email": email,
		"token": token,
	}
	if redirect != "" {
		payload["link"] = recoveryLink(redirect, token)
	}

	if _, nop := s.events.(events.NopPublisher); nop {
		if s.cfg.IsDevelopment() {
			slog.Info("auth email not sent, no broker configured", "action", eventType, "payload", payload)
		}
		return
	}
	if err := s.events.Publish(ctx, events.New(eventType, payload)); err != nil {
		slog.Error("failed to publish auth email", "action", eventType, "error", err)
	}
}

func recoveryLink(redirect, token string) string {
	u, err := url.Parse(redirect)
	if err != nil {
		return redirect
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}

func (s *AuthService) generateTokenPair(ctx context.Context, user *models.User, profile *models.Profile, recovery bool) (*dto.AuthResponse, error) {
	accessToken, err := s.generateAccessToken(user, profile, recovery)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.generateRefreshToken(ctx, user)
	if err != nil {
		return nil, err
	}

	resp := userResponse(user, profile)
	resp.Recovery = recovery
	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.cfg.JWTAccessExpiry.Seconds()),
		User:         resp,
	}, nil
}

func (s *AuthService) generateAccessToken(user *models.User, profile *models.Profile, recovery bool) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"role":  profile.Role,
		"iat":   now.Unix(),
		"exp":   now.Add(s.cfg.JWTAccessExpiry).Unix(),
	}
	if recovery {
		claims["recovery"] = true
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) generateRefreshToken(ctx context.Context, user *models.User) (string, error) {
	rawToken, err := randomToken()
	if err != nil {
		return "", err
	}

	record := models.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: hashToken(rawToken),
		ExpiresAt: s.now().Add(s.cfg.JWTRefreshExpiry),
	}

	if err := s.accounts.CreateRefreshToken(ctx, &record); err != nil {
		return "", err
	}

	return rawToken, nil
}

func userResponse(user *models.User, profile *models.Profile) dto.UserResponse {
	return dto.UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		FullName:    profile.FullName,
		DisplayName: DisplayName(profile.FullName, user.Email),
		Role:        profile.Role,
	}
}

// DisplayName is the profile name, or the capitalized local part of the
// email when no name was given.
func DisplayName(fullName, email string) string {
	if name := strings.TrimSpace(fullName); name != "" {
		return name
	}
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(local)
	return string(unicode.ToUpper(r)) + local[size:]
}

func randomToken() (string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.URLEncoding.EncodeToString(rawBytes), nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}
