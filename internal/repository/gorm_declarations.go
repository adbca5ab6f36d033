package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pertepiece/backend/internal/models"
	"github.com/pertepiece/backend/internal/session"
	"gorm.io/gorm"
)

type gormDeclarationRepository struct {
	db *gorm.DB
}

func NewDeclarationRepository(db *gorm.DB) DeclarationRepository {
	return &gormDeclarationRepository{db: db}
}

func (r *gormDeclarationRepository) scoped(ctx context.Context, owner *uuid.UUID) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Declaration{})
	if owner != nil {
		q = q.Scopes(session.OwnedBy(*owner))
	}
	return q
}

func (r *gormDeclarationRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Declaration, error) {
	var decls []models.Declaration
	err := r.db.WithContext(ctx).
		Scopes(session.OwnedBy(userID)).
		Order("created_at DESC").
		Find(&decls).Error
	if err != nil {
		return nil, fmt.Errorf("list declarations: %w", err)
	}
	return decls, nil
}

func (r *gormDeclarationRepository) ListWithOwners(ctx context.Context) ([]models.AdminDeclaration, error) {
	var decls []models.Declaration
	err := r.db.WithContext(ctx).
		Preload("Owner").
		Order("incident_date DESC").
		Order("created_at DESC").
		Find(&decls).Error
	if err != nil {
		return nil, fmt.Errorf("list all declarations: %w", err)
	}

	result := make([]models.AdminDeclaration, len(decls))
	for i := range decls {
		result[i] = models.AdminDeclaration{Declaration: decls[i]}
	}
	return result, nil
}

func (r *gormDeclarationRepository) Get(ctx context.Context, id uuid.UUID) (*models.Declaration, error) {
	var d models.Declaration
	if err := r.db.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get declaration: %w", err)
	}
	return &d, nil
}

func (r *gormDeclarationRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.scoped(ctx, nil).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check declaration: %w", err)
	}
	return count > 0, nil
}

func (r *gormDeclarationRepository) Create(ctx context.Context, d *models.Declaration) error {
	if err := r.db.WithContext(ctx).Create(d).Error; err != nil {
		return fmt.Errorf("insert declaration: %w", err)
	}
	return nil
}

func (r *gormDeclarationRepository) Update(ctx context.Context, id uuid.UUID, owner *uuid.UUID, fields map[string]interface{}) (int64, error) {
	result := r.scoped(ctx, owner).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return 0, fmt.Errorf("update declaration: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *gormDeclarationRepository) Delete(ctx context.Context, id uuid.UUID, owner *uuid.UUID) (int64, error) {
	q := r.db.WithContext(ctx)
	if owner != nil {
		q = q.Scopes(session.OwnedBy(*owner))
	}
	result := q.Where("id = ?", id).Delete(&models.Declaration{})
	if result.Error != nil {
		return 0, fmt.Errorf("delete declaration: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *gormDeclarationRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Scopes(session.OwnedBy(userID)).Delete(&models.Declaration{})
	if result.Error != nil {
		return 0, fmt.Errorf("delete user declarations: %w", result.Error)
	}
	return result.RowsAffected, nil
}
