package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pertepiece/backend/internal/models"
)

var ErrNotFound = errors.New("record not found")

// DeclarationRepository is the relational data API for declarations.
// A nil owner means the call is not restricted to one user's rows.
type DeclarationRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Declaration, error)
	ListWithOwners(ctx context.Context) ([]models.AdminDeclaration, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Declaration, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Create(ctx context.Context, d *models.Declaration) error
	Update(ctx context.Context, id uuid.UUID, owner *uuid.UUID, fields map[string]interface{}) (int64, error)
	Delete(ctx context.Context, id uuid.UUID, owner *uuid.UUID) (int64, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}
