package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pertepiece/backend/internal/models"
)

var ErrDuplicate = errors.New("record already exists")

// AccountRepository stores identities, profiles and the tokens that open
// sessions. Claim and Consume are single conditional updates, so a token
// can be spent once even under concurrent requests.
type AccountRepository interface {
	// CreateAccount inserts the user and profile together. ErrDuplicate when
	// the email is taken.
	CreateAccount(ctx context.Context, user *models.User, profile *models.Profile) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	ConfirmEmail(ctx context.Context, userID uuid.UUID, at time.Time) error

	CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error
	// ClaimRefreshToken revokes the active token with this hash and returns
	// it. ErrNotFound when none is active.
	ClaimRefreshToken(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error

	CreateOneTimeToken(ctx context.Context, token *models.OneTimeToken) error
	// ConsumeOneTimeToken marks an unused, unexpired token as used and
	// returns it. ErrNotFound otherwise.
	ConsumeOneTimeToken(ctx context.Context, tokenHash, purpose string, at time.Time) (*models.OneTimeToken, error)

	// UpdatePassword stores the new hash, revokes every refresh token and
	// burns pending recovery links of the user.
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string, at time.Time) error
}
