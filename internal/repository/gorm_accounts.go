package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pertepiece/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormAccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &gormAccountRepository{db: db}
}

func (r *gormAccountRepository) CreateAccount(ctx context.Context, user *models.User, profile *models.Profile) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if count > 0 {
			return ErrDuplicate
		}
		if err := tx.Create(user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicate
			}
			return fmt.Errorf("create user: %w", err)
		}
		if err := tx.Create(profile).Error; err != nil {
			return fmt.Errorf("create profile: %w", err)
		}
		return nil
	})
}

func (r *gormAccountRepository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound("find user", err)
	}
	return &user, nil
}

func (r *gormAccountRepository) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound("find user", err)
	}
	return &user, nil
}

func (r *gormAccountRepository) FindProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).First(&profile, "id = ?", id).Error; err != nil {
		return nil, notFound("find profile", err)
	}
	return &profile, nil
}

func (r *gormAccountRepository) ConfirmEmail(ctx context.Context, userID uuid.UUID, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("email_confirmed_at", at).Error
	if err != nil {
		return fmt.Errorf("confirm email: %w", err)
	}
	return nil
}

func (r *gormAccountRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

func (r *gormAccountRepository) ClaimRefreshToken(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	result := r.db.WithContext(ctx).Model(&token).
		Clauses(clause.Returning{}).
		Where("token_hash = ? AND revoked = ?", tokenHash, false).
		Update("revoked", true)
	if result.Error != nil {
		return nil, fmt.Errorf("claim refresh token: %w", result.Error)
	}
	if result.RowsAffected != 1 {
		return nil, ErrNotFound
	}
	return &token, nil
}

func (r *gormAccountRepository) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	err := r.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ?", tokenHash).
		Update("revoked", true).Error
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (r *gormAccountRepository) CreateOneTimeToken(ctx context.Context, token *models.OneTimeToken) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		return fmt.Errorf("store %s token: %w", token.Purpose, err)
	}
	return nil
}

func (r *gormAccountRepository) ConsumeOneTimeToken(ctx context.Context, tokenHash, purpose string, at time.Time) (*models.OneTimeToken, error) {
	var token models.OneTimeToken
	result := r.db.WithContext(ctx).Model(&token).
		Clauses(clause.Returning{}).
		Where("token_hash = ? AND purpose = ? AND used_at IS NULL AND expires_at > ?", tokenHash, purpose, at).
		Update("used_at", at)
	if result.Error != nil {
		return nil, fmt.Errorf("consume %s token: %w", purpose, result.Error)
	}
	if result.RowsAffected != 1 {
		return nil, ErrNotFound
	}
	return &token, nil
}

func (r *gormAccountRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.User{}).Where("id = ?", userID).Update("password", passwordHash)
		if result.Error != nil {
			return fmt.Errorf("update password: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Model(&models.RefreshToken{}).Where("user_id = ?", userID).Update("revoked", true).Error; err != nil {
			return fmt.Errorf("revoke sessions: %w", err)
		}
		err := tx.Model(&models.OneTimeToken{}).
			Where("user_id = ? AND purpose = ? AND used_at IS NULL", userID, models.TokenPurposeRecovery).
			Update("used_at", at).Error
		if err != nil {
			return fmt.Errorf("burn recovery links: %w", err)
		}
		return nil
	})
}

func notFound(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
