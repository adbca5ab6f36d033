package services

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pertepiece/backend/internal/config"
	"github.com/pertepiece/backend/internal/dto"
	"github.com/pertepiece/backend/internal/events"
	"github.com/pertepiece/backend/internal/models"
	"golang.org/x/crypto/bcrypt"
)

func testAuthConfig() *config.Config {
	return &config.Config{
		JWTSecret:                "test-secret",
		JWTAccessExpiry:          15 * time.Minute,
		JWTRefreshExpiry:         24 * time.Hour,
		RecoveryTokenExpiry:      time.Hour,
		ConfirmationTokenExpiry:  24 * time.Hour,
		PasswordResetRedirectURL: "pertepiece://login-callback",
		AppEnv:                   "test",
	}
}

func testAuthService() *AuthService {
	return NewAuthService(newFakeAccounts(), testAuthConfig(), events.NopPublisher{})
}

type authFixture struct {
	svc      *AuthService
	accounts *fakeAccountRepo
	events   *fakePublisher
	now      time.Time
}

func newAuthFixture(requireConfirmation bool) *authFixture {
	cfg := testAuthConfig()
	cfg.RequireEmailConfirmation = requireConfirmation
	f := &authFixture{
		accounts: newFakeAccounts(),
		events:   &fakePublisher{},
		now:      time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC),
	}
	f.svc = NewAuthService(f.accounts, cfg, f.events)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *authFixture) seedUser(t *testing.T, email, password string, confirmed bool) uuid.UUID {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	user := &models.User{ID: uuid.New(), Email: email, Password: string(hash)}
	if confirmed {
		at := f.now.Add(-time.Hour)
		user.EmailConfirmedAt = &at
	}
	profile := &models.Profile{ID: user.ID, FullName: "Awa Koné", Role: models.RoleCitizen}
	if err := f.accounts.CreateAccount(context.Background(), user, profile); err != nil {
		t.Fatal(err)
	}
	return user.ID
}

// lastToken returns the raw token carried by the most recent auth email.
func (f *authFixture) lastToken(t *testing.T) string {
	t.Helper()
	f.events.mu.Lock()
	defer f.events.mu.Unlock()
	if len(f.events.published) == 0 {
		t.Fatal("no auth email published")
	}
	token, _ := f.events.published[len(f.events.published)-1].Payload["token"].(string)
	return token
}

func TestAuthService_SignUp(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(false)

	resp, err := f.svc.SignUp(ctx, &dto.SignUpRequest{Email: " Awa@Example.ci ", Password: "secret1", FullName: "Awa Koné"})
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	if resp.Session == nil || resp.ConfirmationRequired {
		t.Fatalf("SignUp() = %+v, want a session", resp)
	}
	userID := resp.Session.User.ID
	user, err := f.accounts.FindUser(ctx, userID)
	if err != nil || user.Email != "awa@example.ci" || !user.Confirmed() {
		t.Errorf("stored user = %+v, %v", user, err)
	}
	profile, err := f.accounts.FindProfile(ctx, userID)
	if err != nil || profile.FullName != "Awa Koné" || profile.Role != models.RoleCitizen {
		t.Errorf("stored profile = %+v, %v", profile, err)
	}
	if f.accounts.activeRefreshTokens(userID) != 1 {
		t.Errorf("expected one refresh token for the new session")
	}

	_, err = f.svc.SignUp(ctx, &dto.SignUpRequest{Email: "AWA@example.ci", Password: "secret2", FullName: "Other"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate SignUp() error = %v, want ErrEmailTaken", err)
	}

	_, err = f.svc.SignUp(ctx, &dto.SignUpRequest{Email: "koffi@example.ci", Password: "secret1", FullName: "  "})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("blank name error = %v, want validation error", err)
	}
}

func TestAuthService_SignUpStoreFailure(t *testing.T) {
	f := newAuthFixture(false)
	f.accounts.createErr = errBackend

	resp, err := f.svc.SignUp(context.Background(), &dto.SignUpRequest{Email: "awa@example.ci", Password: "secret1", FullName: "Awa"})
	if !errors.Is(err, errBackend) || resp != nil {
		t.Fatalf("SignUp() = %+v, %v", resp, err)
	}
	if len(f.accounts.users) != 0 || len(f.accounts.profiles) != 0 {
		t.Errorf("partial account left behind: %d users, %d profiles", len(f.accounts.users), len(f.accounts.profiles))
	}
}

func TestAuthService_ConfirmationFlow(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(true)

	resp, err := f.svc.SignUp(ctx, &dto.SignUpRequest{Email: "awa@example.ci", Password: "secret1", FullName: "Awa"})
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	if !resp.ConfirmationRequired || resp.Session != nil {
		t.Fatalf("SignUp() = %+v, want confirmation required", resp)
	}
	token := f.lastToken(t)

	if _, err := f.svc.SignIn(ctx, &dto.LoginRequest{Email: "awa@example.ci", Password: "wrong-pass"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password before confirmation: error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := f.svc.SignIn(ctx, &dto.LoginRequest{Email: "awa@example.ci", Password: "secret1"}); !errors.Is(err, ErrEmailNotConfirmed) {
		t.Errorf("right password before confirmation: error = %v, want ErrEmailNotConfirmed", err)
	}

	session, err := f.svc.ConfirmEmail(ctx, token)
	if err != nil || session.AccessToken == "" {
		t.Fatalf("ConfirmEmail() = %+v, %v", session, err)
	}
	if _, err := f.svc.ConfirmEmail(ctx, token); !errors.Is(err, ErrInvalidLink) {
		t.Errorf("second ConfirmEmail() error = %v, want ErrInvalidLink", err)
	}
	if _, err := f.svc.SignIn(ctx, &dto.LoginRequest{Email: "awa@example.ci", Password: "secret1"}); err != nil {
		t.Errorf("SignIn() after confirmation error = %v", err)
	}
}

func TestAuthService_SignIn(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(false)
	userID := f.seedUser(t, "awa@example.ci", "secret1", true)
	f.seedUser(t, "pending@example.ci", "secret1", false)

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"ok", "AWA@example.ci", "secret1", nil},
		{"wrong password", "awa@example.ci", "secret2", ErrInvalidCredentials},
		{"unknown email", "nobody@example.ci", "secret1", ErrInvalidCredentials},
		{"unconfirmed, wrong password", "pending@example.ci", "nope123", ErrInvalidCredentials},
		{"unconfirmed, right password", "pending@example.ci", "secret1", ErrEmailNotConfirmed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := f.svc.SignIn(ctx, &dto.LoginRequest{Email: tt.email, Password: tt.password})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("SignIn() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && (resp.User.ID != userID || resp.RefreshToken == "" || resp.User.Recovery) {
				t.Errorf("SignIn() = %+v", resp)
			}
		})
	}
}

func TestAuthService_RefreshRotation(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(false)
	userID := f.seedUser(t, "awa@example.ci", "secret1", true)

	first, err := f.svc.SignIn(ctx, &dto.LoginRequest{Email: "awa@example.ci", Password: "secret1"})
	if err != nil {
		t.Fatal(err)
	}

	second, err := f.svc.Refresh(ctx, first.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Error("refresh token was not rotated")
	}
	if got := f.accounts.activeRefreshTokens(userID); got != 1 {
		t.Errorf("active refresh tokens = %d, want 1", got)
	}

	if _, err := f.svc.Refresh(ctx, first.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("replayed Refresh() error = %v, want ErrInvalidToken", err)
	}
	if _, err := f.svc.Refresh(ctx, "never-issued"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("unknown token error = %v, want ErrInvalidToken", err)
	}

	f.now = f.now.Add(25 * time.Hour)
	if _, err := f.svc.Refresh(ctx, second.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired Refresh() error = %v, want ErrInvalidToken", err)
	}
	if got := f.accounts.activeRefreshTokens(userID); got != 0 {
		t.Errorf("expired token should be spent, %d still active", got)
	}
}

func TestAuthService_SignOut(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(false)
	f.seedUser(t, "awa@example.ci", "secret1", true)

	session, err := f.svc.SignIn(ctx, &dto.LoginRequest{Email: "awa@example.ci", Password: "secret1"})
	if err != nil {
		t.Fatal(err)
	}
	if err := f.svc.SignOut(ctx, session.RefreshToken); err != nil {
		t.Fatalf("SignOut() error = %v", err)
	}
	if _, err := f.svc.Refresh(ctx, session.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Refresh() after sign out error = %v, want ErrInvalidToken", err)
	}
}

func TestAuthService_PasswordRecovery(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(false)
	userID := f.seedUser(t, "awa@example.ci", "secret1", true)

	if err := f.svc.RequestPasswordReset(ctx, "nobody@example.ci", ""); err != nil {
		t.Fatalf("unknown email error = %v", err)
	}
	if len(f.events.types()) != 0 {
		t.Fatalf("no email expected for an unknown account, got %v", f.events.types())
	}

	if err := f.svc.RequestPasswordReset(ctx, "Awa@example.ci", ""); err != nil {
		t.Fatalf("RequestPasswordReset() error = %v", err)
	}
	if got := f.events.types(); len(got) != 1 || got[0] != events.AuthPasswordRecovery {
		t.Fatalf("events = %v", got)
	}
	token := f.lastToken(t)

	session, err := f.svc.Recover(ctx, token)
	if err != nil {
		t.Fatalf("Recover() error = %v", err)
	}
	if session.User.ID != userID || !session.User.Recovery {
		t.Errorf("Recover() user = %+v, want a recovery session", session.User)
	}
	if _, err := f.svc.Recover(ctx, token); !errors.Is(err, ErrInvalidLink) {
		t.Errorf("second Recover() error = %v, want ErrInvalidLink", err)
	}
}

func TestAuthService_RecoveryLinkExpires(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(false)
	f.seedUser(t, "awa@example.ci", "secret1", true)

	if err := f.svc.RequestPasswordReset(ctx, "awa@example.ci", ""); err != nil {
		t.Fatal(err)
	}
	token := f.lastToken(t)

	f.now = f.now.Add(2 * time.Hour)
	if _, err := f.svc.Recover(ctx, token); !errors.Is(err, ErrInvalidLink) {
		t.Errorf("expired Recover() error = %v, want ErrInvalidLink", err)
	}
	if _, err := f.svc.Recover(ctx, ""); !errors.Is(err, ErrInvalidLink) {
		t.Errorf("empty token error = %v, want ErrInvalidLink", err)
	}
}

func TestAuthService_UpdatePassword(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(false)
	userID := f.seedUser(t, "awa@example.ci", "secret1", true)

	for i := 0; i < 2; i++ {
		if _, err := f.svc.SignIn(ctx, &dto.LoginRequest{Email: "awa@example.ci", Password: "secret1"}); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.svc.RequestPasswordReset(ctx, "awa@example.ci", ""); err != nil {
		t.Fatal(err)
	}
	pending := f.lastToken(t)

	if err := f.svc.UpdatePassword(ctx, userID, "12345"); !errors.Is(err, ErrValidation) {
		t.Errorf("short password error = %v, want validation error", err)
	}
	if err := f.svc.UpdatePassword(ctx, userID, "n3w-secret"); err != nil {
		t.Fatalf("UpdatePassword() error = %v", err)
	}

	if got := f.accounts.activeRefreshTokens(userID); got != 0 {
		t.Errorf("active refresh tokens = %d, want 0", got)
	}
	if _, err := f.svc.Recover(ctx, pending); !errors.Is(err, ErrInvalidLink) {
		t.Errorf("pending recovery link still usable: %v", err)
	}
	if _, err := f.svc.SignIn(ctx, &dto.LoginRequest{Email: "awa@example.ci", Password: "secret1"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("old password error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := f.svc.SignIn(ctx, &dto.LoginRequest{Email: "awa@example.ci", Password: "n3w-secret"}); err != nil {
		t.Errorf("new password SignIn() error = %v", err)
	}

	if err := f.svc.UpdatePassword(ctx, uuid.New(), "n3w-secret"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown user error = %v, want ErrUserNotFound", err)
	}
}

func TestAuthService_RoleOf(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(false)
	adminID := f.seedUser(t, "chef@example.ci", "secret1", true)
	f.accounts.profiles[adminID].Role = models.RoleAdmin

	if role, err := f.svc.RoleOf(ctx, adminID); err != nil || role != models.RoleAdmin {
		t.Errorf("RoleOf(admin) = %q, %v", role, err)
	}
	if role, err := f.svc.RoleOf(ctx, uuid.New()); err != nil || role != models.RoleCitizen {
		t.Errorf("RoleOf(no profile) = %q, %v, want CITOYEN", role, err)
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		fullName string
		email    string
		want     string
	}{
		{"Awa Koné", "awa@example.ci", "Awa Koné"},
		{"  ", "jean.kouadio@example.ci", "Jean.kouadio"},
		{"", "élodie@example.ci", "Élodie"},
		{"", "", ""},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.fullName, tt.email); got != tt.want {
			t.Errorf("DisplayName(%q, %q) = %q, want %q", tt.fullName, tt.email, got, tt.want)
		}
	}
}

func TestValidateCredentials(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		field    string
	}{
		{"valid", "awa@example.ci", "secret", ""},
		{"missing email", "", "secret", "email"},
		{"not an email", "awa", "secret", "email"},
		{"short password", "awa@example.ci", "12345", "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateCredentials(tt.email, tt.password)
			if tt.field == "" {
				if err != nil {
					t.Errorf("validateCredentials() error = %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.field {
				t.Errorf("validateCredentials() error = %v, want field %q", err, tt.field)
			}
		})
	}
}

func TestAuthService_ResolveRedirect(t *testing.T) {
	s := testAuthService()

	got, err := s.resolveRedirect("")
	if err != nil || got != "pertepiece://login-callback" {
		t.Errorf("default redirect = %q, %v", got, err)
	}
	got, err = s.resolveRedirect("pertepiece://login-callback?from=app")
	if err != nil || got != "pertepiece://login-callback?from=app" {
		t.Errorf("same-target redirect = %q, %v", got, err)
	}
	if _, err := s.resolveRedirect("https://evil.example/reset"); !errors.Is(err, ErrValidation) {
		t.Errorf("foreign redirect error = %v, want validation error", err)
	}
}

func TestRecoveryLink(t *testing.T) {
	link := recoveryLink("pertepiece://login-callback", "abc+/=")
	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("link %q does not parse: %v", link, err)
	}
	if u.Scheme != "pertepiece" || u.Host != "login-callback" {
		t.Errorf("link target = %s://%s", u.Scheme, u.Host)
	}
	if u.Query().Get("token") != "abc+/=" {
		t.Errorf("token = %q", u.Query().Get("token"))
	}
}

func TestAuthService_AccessTokenClaims(t *testing.T) {
	s := testAuthService()
	fixed := time.Now().Truncate(time.Second)
	s.now = func() time.Time { return fixed }

	user := &models.User{ID: uuid.New(), Email: "awa@example.ci"}
	profile := &models.Profile{ID: user.ID, Role: models.RoleAdmin}

	for _, recovery := range []bool{false, true} {
		raw, err := s.generateAccessToken(user, profile, recovery)
		if err != nil {
			t.Fatalf("generateAccessToken() error = %v", err)
		}

		token, err := jwt.Parse(raw, func(tok *jwt.Token) (interface{}, error) {
			return []byte("test-secret"), nil
		})
		if err != nil || !token.Valid {
			t.Fatalf("token does not verify: %v", err)
		}
		claims := token.Claims.(jwt.MapClaims)
		if claims["sub"] != user.ID.String() || claims["email"] != user.Email || claims["role"] != models.RoleAdmin {
			t.Errorf("claims = %v", claims)
		}
		if exp, _ := claims["exp"].(float64); int64(exp) != fixed.Add(15*time.Minute).Unix() {
			t.Errorf("exp = %v", claims["exp"])
		}
		_, hasRecovery := claims["recovery"]
		if hasRecovery != recovery {
			t.Errorf("recovery claim present = %v, want %v", hasRecovery, recovery)
		}
	}
}

func TestHashToken(t *testing.T) {
	a, b := hashToken("token-a"), hashToken("token-b")
	if len(a) != 64 || a == b || a != hashToken("token-a") {
		t.Errorf("hashToken() = %q, %q", a, b)
	}
}
