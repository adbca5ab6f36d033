package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pertepiece/backend/internal/dto"
	"github.com/pertepiece/backend/internal/models"
	"github.com/pertepiece/backend/internal/services"
	"github.com/pertepiece/backend/internal/session"
)

var errBackend = errors.New("backend unavailable")

type fakeDeclarationService struct {
	own []models.Declaration
	all []models.AdminDeclaration
	one *models.Declaration
	err error

	draft      *services.DeclarationDraft
	image      []byte
	imageType  string
	patch      *services.DeclarationPatch
	lastActor  services.Actor
	lastStatus models.Status
	deletedFor uuid.UUID
	calls      int
}

func (f *fakeDeclarationService) FetchOwn(ctx context.Context, userID uuid.UUID) ([]models.Declaration, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.own, nil
}

func (f *fakeDeclarationService) FetchAll(ctx context.Context) ([]models.AdminDeclaration, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.all, nil
}

func (f *fakeDeclarationService) Get(ctx context.Context, actor services.Actor, id uuid.UUID) (*models.Declaration, error) {
	f.calls++
	f.lastActor = actor
	if f.err != nil {
		return nil, f.err
	}
	if f.one == nil || f.one.ID != id {
		return nil, services.ErrNotFound
	}
	d := *f.one
	return &d, nil
}

func (f *fakeDeclarationService) Create(ctx context.Context, userID uuid.UUID, draft services.DeclarationDraft, image *services.ImageUpload) (*models.Declaration, error) {
	f.calls++
	f.draft = &draft
	if image != nil {
		b, err := io.ReadAll(image.Reader)
		if err != nil {
			return nil, err
		}
		f.image = b
		f.imageType = image.ContentType
	}
	if f.err != nil {
		return nil, f.err
	}
	return &models.Declaration{
		ID:               uuid.New(),
		UserID:           userID,
		DocumentTypeID:   draft.DocumentTypeID,
		IncidentDate:     models.Date(draft.IncidentDate),
		IncidentLocation: draft.IncidentLocation,
		Description:      draft.Description,
		Status:           models.StatusPending,
		CreatedAt:        time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC),
	}, nil
}

func (f *fakeDeclarationService) Update(ctx context.Context, actor services.Actor, id uuid.UUID, patch services.DeclarationPatch, image *services.ImageUpload) error {
	f.calls++
	f.lastActor = actor
	f.patch = &patch
	if f.err != nil {
		return f.err
	}
	if f.one != nil && patch.IncidentLocation != nil {
		f.one.IncidentLocation = *patch.IncidentLocation
	}
	return nil
}

func (f *fakeDeclarationService) SetStatus(ctx context.Context, actor services.Actor, id uuid.UUID, status models.Status) error {
	f.calls++
	f.lastActor = actor
	f.lastStatus = status
	return f.err
}

func (f *fakeDeclarationService) Delete(ctx context.Context, actor services.Actor, id uuid.UUID) error {
	f.calls++
	f.lastActor = actor
	return f.err
}

func (f *fakeDeclarationService) DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	f.calls++
	f.deletedFor = userID
	if f.err != nil {
		return 0, f.err
	}
	return 3, nil
}

type fakeAuthenticator struct {
	signUpCalls  int
	signInErr    error
	refreshErr   error
	exchangeErr  error
	resetErr     error
	updateErr    error
	lastPassword string
	lastToken    string
}

func testSession() *dto.AuthResponse {
	return &dto.AuthResponse{AccessToken: "access", RefreshToken: "refresh", ExpiresIn: 900}
}

func (f *fakeAuthenticator) SignUp(ctx context.Context, req *dto.SignUpRequest) (*dto.SignUpResponse, error) {
	f.signUpCalls++
	return &dto.SignUpResponse{Session: testSession()}, nil
}

func (f *fakeAuthenticator) ConfirmEmail(ctx context.Context, token string) (*dto.AuthResponse, error) {
	f.lastToken = token
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return testSession(), nil
}

func (f *fakeAuthenticator) SignIn(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return testSession(), nil
}

func (f *fakeAuthenticator) Refresh(ctx context.Context, refreshToken string) (*dto.AuthResponse, error) {
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return testSession(), nil
}

func (f *fakeAuthenticator) SignOut(ctx context.Context, refreshToken string) error {
	return nil
}

func (f *fakeAuthenticator) CurrentSession(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	return &dto.UserResponse{ID: userID, Email: "awa@example.com", DisplayName: "Awa", Role: models.RoleCitizen}, nil
}

func (f *fakeAuthenticator) RequestPasswordReset(ctx context.Context, email, redirectURL string) error {
	return f.resetErr
}

func (f *fakeAuthenticator) Recover(ctx context.Context, token string) (*dto.AuthResponse, error) {
	f.lastToken = token
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return testSession(), nil
}

func (f *fakeAuthenticator) UpdatePassword(ctx context.Context, userID uuid.UUID, newPassword string) error {
	f.lastPassword = newPassword
	return f.updateErr
}

// withUser stands in for the JWT middleware.
func withUser(userID uuid.UUID, extra jwt.MapClaims) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := jwt.MapClaims{"sub": userID.String(), "email": "awa@example.com"}
		for k, v := range extra {
			claims[k] = v
		}
		c.Locals("user", &jwt.Token{Claims: claims})
		return c.Next()
	}
}

func asAdmin(c *fiber.Ctx) error {
	session.MarkAdmin(c)
	return c.Next()
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func errorMessage(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body dto.ErrorResponse
	decode(t, resp, &body)
	if !body.Error {
		t.Errorf("error flag not set")
	}
	return body.Message
}
